// Package model defines the core data types shared by the export job runner.
package model

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/target/repeater/internal/errors"
)

// DestinationKind identifies where an export job delivers its payload.
type DestinationKind string

// SourceKind identifies which inventory query mechanism an export job reads from.
type SourceKind string

// FileFormat identifies the serialization used for file and object store deliveries.
type FileFormat string

const (
	// DestinationFile writes the payload to the local filesystem.
	DestinationFile DestinationKind = "file"
	// DestinationObjectStore uploads the payload to an S3 bucket.
	DestinationObjectStore DestinationKind = "s3"
	// DestinationLogIngestion posts the raw dataset to a Splunk raw collector.
	DestinationLogIngestion DestinationKind = "splunk"

	// SourceReport reads an asset report.
	SourceReport SourceKind = "report"
	// SourceView reads an asset view.
	SourceView SourceKind = "view"
	// SourceQuestion reads the most recent results of a saved question.
	SourceQuestion SourceKind = "question"

	// FormatCSV serializes the tabular result as CSV.
	FormatCSV FileFormat = "csv"
	// FormatJSON serializes as JSON.
	FormatJSON FileFormat = "json"
)

// LastRunLayout is the persisted layout of the Last Run field.
const LastRunLayout = "2006-01-02 15:04:05"

// Valid returns true if the DestinationKind is known.
func (k DestinationKind) Valid() bool {
	return k == DestinationFile || k == DestinationObjectStore || k == DestinationLogIngestion
}

// Valid returns true if the SourceKind is known.
func (k SourceKind) Valid() bool {
	return k == SourceReport || k == SourceView || k == SourceQuestion
}

// Valid returns true if the FileFormat is known.
func (f FileFormat) Valid() bool {
	return f == FormatCSV || f == FormatJSON
}

// JobSpec is one scheduled export job.
//
// Unknown destination or source kinds are kept as-is so the job can be reported
// as unsupported on every cycle instead of failing the whole load.
type JobSpec struct {
	Name           string
	Destination    DestinationKind
	Source         SourceKind
	ComponentName  string
	Format         FileFormat
	Flatten        bool
	Overwrite      bool
	FrequencyHours int
	LastRun        *time.Time
	BucketName     string
	// FileLocation is the persisted path template.
	FileLocation string
	// OutputPath is the effective path, resolved once at load time.
	OutputPath string

	// frequencyErr and lastRunErr are set when the persisted column could not be parsed.
	frequencyErr error
	lastRunErr   error
	duplicateErr error
	raw          JobRecord
}

// ParseJobRecord builds a JobSpec from one persisted record.
// now is the load time used to date-stamp output paths of non-overwriting jobs.
func ParseJobRecord(rec JobRecord, now time.Time) (*JobSpec, error) {
	spec := &JobSpec{
		Name:          strings.TrimSpace(rec.Name),
		Destination:   DestinationKind(normalizeKind(rec.DestinationType)),
		Source:        SourceKind(normalizeKind(rec.TaniumType)),
		ComponentName: strings.TrimSpace(rec.ComponentName),
		Format:        FileFormat(normalizeKind(rec.FileFormat)),
		Flatten:       ParseFlag(rec.Flatten),
		Overwrite:     ParseFlag(rec.Overwrite),
		BucketName:    strings.TrimSpace(rec.BucketName),
		FileLocation:  strings.TrimSpace(rec.FileLocation),
		raw:           rec,
	}

	freq, err := strconv.Atoi(strings.TrimSpace(rec.Frequency))
	if err != nil {
		spec.frequencyErr = apperrors.ConfigField("Frequency", "frequency must be a whole number of hours")
	} else {
		spec.FrequencyHours = freq
	}

	if lr := strings.TrimSpace(rec.LastRun); lr != "" {
		t, parseErr := time.ParseInLocation(LastRunLayout, lr, time.Local)
		if parseErr != nil {
			spec.lastRunErr = &apperrors.AppError{
				Code:    apperrors.ErrCodeConfigInvalid,
				Message: "last run must use the layout " + LastRunLayout,
				Field:   "Last Run",
				Cause:   parseErr,
			}
		} else {
			spec.LastRun = &t
		}
	}

	spec.OutputPath = ResolveOutputPath(spec.FileLocation, spec.Overwrite, now)
	return spec, nil
}

// ResolveOutputPath returns the effective output path for a template.
// When overwrite is false the date is embedded before the extension so each day gets its own file.
func ResolveOutputPath(template string, overwrite bool, now time.Time) string {
	if overwrite || template == "" {
		return template
	}
	dir, file := path.Split(template)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return dir + base + "-" + now.Format("2006-01-02") + ext
}

// ParseFlag interprets a persisted yes/no column.
// Empty, "no", "n", "false" and "0" are false; any other value is true.
func ParseFlag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "no", "n", "false", "0":
		return false
	default:
		return true
	}
}

func normalizeKind(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// Validate checks the job configuration. It does not reject unknown kinds; see Supported.
func (j *JobSpec) Validate() error {
	if j.Name == "" {
		return apperrors.ConfigField("Name", "job name is required")
	}
	if j.duplicateErr != nil {
		return j.duplicateErr
	}
	if j.frequencyErr != nil {
		return j.frequencyErr
	}
	if j.lastRunErr != nil {
		return j.lastRunErr
	}
	if j.FrequencyHours <= 0 {
		return apperrors.ConfigField("Frequency", "frequency must be a positive number of hours")
	}
	if j.Destination == DestinationObjectStore && j.BucketName == "" {
		return apperrors.ConfigField("Bucket Name", "bucket name is required for s3 destinations")
	}
	if j.Destination != DestinationObjectStore && j.BucketName != "" {
		return apperrors.ConfigField("Bucket Name", "bucket name is only allowed for s3 destinations")
	}
	if j.Destination == DestinationFile || j.Destination == DestinationObjectStore {
		if j.FileLocation == "" {
			return apperrors.ConfigField("File Location", "file location is required")
		}
		if !j.Format.Valid() {
			return apperrors.ConfigField("File Format", "file format must be csv or json")
		}
	}
	return nil
}

// Supported returns an UnsupportedJobType error when the source or destination kind is unknown.
func (j *JobSpec) Supported() error {
	if !j.Source.Valid() {
		return apperrors.Unsupportedf("unsupported tanium type %q", string(j.Source))
	}
	if !j.Destination.Valid() {
		return apperrors.Unsupportedf("unsupported destination type %q", string(j.Destination))
	}
	return nil
}

// MarkRun records a successful delivery at t, truncated to the persisted precision.
func (j *JobSpec) MarkRun(t time.Time) {
	ts := t.Truncate(time.Second)
	j.LastRun = &ts
}

// Dump repacks the job into its persisted record. Only Last Run reflects mutation.
func (j *JobSpec) Dump() JobRecord {
	rec := j.raw
	if rec == (JobRecord{}) {
		rec = j.record()
	}
	if j.LastRun != nil {
		formatted := j.LastRun.Format(LastRunLayout)
		if strings.TrimSpace(rec.LastRun) != formatted {
			rec.LastRun = formatted
		}
	} else if j.lastRunErr == nil {
		rec.LastRun = ""
	}
	return rec
}

// MarkDuplicateNames flags every job after the first that shares its name, so Validate
// rejects it while the first keeps running. Names are compared after trimming.
func MarkDuplicateNames(jobs []*JobSpec) {
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job == nil || job.Name == "" {
			continue
		}
		if _, ok := seen[job.Name]; ok {
			job.duplicateErr = apperrors.ConfigField("Name", fmt.Sprintf("duplicate job name %q", job.Name))
			continue
		}
		seen[job.Name] = struct{}{}
	}
}

// record builds a persisted record from the typed fields for specs not loaded from storage.
func (j *JobSpec) record() JobRecord {
	return JobRecord{
		Name:            j.Name,
		DestinationType: string(j.Destination),
		FileLocation:    j.FileLocation,
		Frequency:       strconv.Itoa(j.FrequencyHours),
		TaniumType:      string(j.Source),
		ComponentName:   j.ComponentName,
		FileFormat:      string(j.Format),
		BucketName:      j.BucketName,
		Flatten:         formatFlag(j.Flatten),
		Overwrite:       formatFlag(j.Overwrite),
	}
}

func formatFlag(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
