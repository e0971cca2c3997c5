package testutil

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/target/repeater/internal/domain/model"
)

// JobRecordBuilder provides a fluent interface for building persisted job records in tests.
type JobRecordBuilder struct {
	rec model.JobRecord
}

// NewJobRecord creates a builder for a daily CSV file export of an asset view.
func NewJobRecord(name string) *JobRecordBuilder {
	return &JobRecordBuilder{rec: model.JobRecord{
		Name:            name,
		DestinationType: string(model.DestinationFile),
		FileLocation:    "exports/" + strings.ReplaceAll(strings.ToLower(name), " ", "-") + ".csv",
		Frequency:       "24",
		TaniumType:      string(model.SourceView),
		ComponentName:   name,
		FileFormat:      string(model.FormatCSV),
		Flatten:         "no",
		Overwrite:       "yes",
	}}
}

// WithDestination sets the destination type and clears the bucket for non-s3 kinds.
func (b *JobRecordBuilder) WithDestination(kind model.DestinationKind) *JobRecordBuilder {
	b.rec.DestinationType = string(kind)
	if kind != model.DestinationObjectStore {
		b.rec.BucketName = ""
	}
	return b
}

// WithBucket sets an s3 destination with the given bucket.
func (b *JobRecordBuilder) WithBucket(bucket string) *JobRecordBuilder {
	b.rec.DestinationType = string(model.DestinationObjectStore)
	b.rec.BucketName = bucket
	return b
}

// WithSource sets the source kind and component name.
func (b *JobRecordBuilder) WithSource(kind model.SourceKind, component string) *JobRecordBuilder {
	b.rec.TaniumType = string(kind)
	b.rec.ComponentName = component
	return b
}

// WithLocation sets the file location template.
func (b *JobRecordBuilder) WithLocation(location string) *JobRecordBuilder {
	b.rec.FileLocation = location
	return b
}

// WithFormat sets the file format.
func (b *JobRecordBuilder) WithFormat(format model.FileFormat) *JobRecordBuilder {
	b.rec.FileFormat = string(format)
	return b
}

// WithFrequency sets the frequency in hours.
func (b *JobRecordBuilder) WithFrequency(hours int) *JobRecordBuilder {
	b.rec.Frequency = strconv.Itoa(hours)
	return b
}

// WithLastRun sets the persisted last run.
func (b *JobRecordBuilder) WithLastRun(t time.Time) *JobRecordBuilder {
	b.rec.LastRun = t.Format(model.LastRunLayout)
	return b
}

// WithFlatten sets the Flatten column.
func (b *JobRecordBuilder) WithFlatten(flatten bool) *JobRecordBuilder {
	b.rec.Flatten = yesNo(flatten)
	return b
}

// WithOverwrite sets the Overwrite column.
func (b *JobRecordBuilder) WithOverwrite(overwrite bool) *JobRecordBuilder {
	b.rec.Overwrite = yesNo(overwrite)
	return b
}

// Build returns the record.
func (b *JobRecordBuilder) Build() model.JobRecord {
	return b.rec
}

// Spec parses the record as loaded at now.
func (b *JobRecordBuilder) Spec(t TestingTB, now time.Time) *model.JobSpec {
	t.Helper()
	spec, err := model.ParseJobRecord(b.rec, now)
	if err != nil {
		t.Fatalf("parse job record: %v", err)
	}
	return spec
}

// WriteJobStoreFile writes a job store CSV with the canonical header to dir/name and
// returns its path.
func WriteJobStoreFile(t TestingTB, dir, name string, records ...model.JobRecord) string {
	t.Helper()
	lines := []string{strings.Join(model.JobRecordFields, ",")}
	for _, rec := range records {
		values := rec.Values()
		for i, v := range values {
			if strings.ContainsAny(v, ",\"\n") {
				values[i] = `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
			}
		}
		lines = append(lines, strings.Join(values, ","))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		t.Fatalf("write job store: %v", err)
	}
	return path
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
