package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/repeater/internal/errors"
)

func validRecord() JobRecord {
	return JobRecord{
		Name:            "hosts",
		DestinationType: "file",
		FileLocation:    "exports/hosts.csv",
		Frequency:       "24",
		LastRun:         "",
		TaniumType:      "view",
		ComponentName:   "All Hosts",
		FileFormat:      "csv",
		BucketName:      "",
		Flatten:         "yes",
		Overwrite:       "yes",
	}
}

func TestParseJobRecord_Fields(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 30, 0, 0, time.Local)
	rec := validRecord()
	rec.LastRun = "2026-10-18 07:00:00"

	spec, err := ParseJobRecord(rec, now)
	require.NoError(t, err)

	assert.Equal(t, "hosts", spec.Name)
	assert.Equal(t, DestinationFile, spec.Destination)
	assert.Equal(t, SourceView, spec.Source)
	assert.Equal(t, FormatCSV, spec.Format)
	assert.True(t, spec.Flatten)
	assert.True(t, spec.Overwrite)
	assert.Equal(t, 24, spec.FrequencyHours)
	require.NotNil(t, spec.LastRun)
	assert.Equal(t, time.Date(2026, 10, 18, 7, 0, 0, 0, time.Local), *spec.LastRun)
	assert.Equal(t, "exports/hosts.csv", spec.OutputPath)
	assert.NoError(t, spec.Validate())
	assert.NoError(t, spec.Supported())
}

func TestParseJobRecord_KindsAreCaseInsensitive(t *testing.T) {
	rec := validRecord()
	rec.DestinationType = " S3 "
	rec.BucketName = "inventory"
	rec.TaniumType = "Question"
	rec.FileFormat = "JSON"

	spec, err := ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.Equal(t, DestinationObjectStore, spec.Destination)
	assert.Equal(t, SourceQuestion, spec.Source)
	assert.Equal(t, FormatJSON, spec.Format)
	assert.NoError(t, spec.Validate())
}

func TestParseJobRecord_InvalidLastRun(t *testing.T) {
	rec := validRecord()
	rec.LastRun = "yesterday"

	spec, err := ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.Nil(t, spec.LastRun)

	err = spec.Validate()
	require.Error(t, err)
	assert.True(t, apperrors.IsConfigInvalid(err))
	assert.Equal(t, "Last Run", apperrors.GetField(err))
	assert.Equal(t, "yesterday", spec.Dump().LastRun)
}

func TestMarkDuplicateNames(t *testing.T) {
	recs := []JobRecord{validRecord(), validRecord(), validRecord()}
	recs[1].Name = "Other"
	recs[2].Name = "  " + recs[0].Name + " "

	jobs := make([]*JobSpec, 0, len(recs))
	for _, rec := range recs {
		spec, err := ParseJobRecord(rec, time.Now())
		require.NoError(t, err)
		jobs = append(jobs, spec)
	}
	MarkDuplicateNames(append(jobs, nil))

	assert.NoError(t, jobs[0].Validate())
	assert.NoError(t, jobs[1].Validate())
	err := jobs[2].Validate()
	require.Error(t, err)
	assert.Equal(t, "Name", apperrors.GetField(err))
}

func TestParseJobRecord_UnknownKindsSurfaceAsUnsupported(t *testing.T) {
	rec := validRecord()
	rec.TaniumType = "sensor"

	spec, err := ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.True(t, apperrors.IsUnsupportedJobType(spec.Supported()))

	rec = validRecord()
	rec.DestinationType = "ftp"
	spec, err = ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.True(t, apperrors.IsUnsupportedJobType(spec.Supported()))
}

func TestResolveOutputPath(t *testing.T) {
	now := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name      string
		template  string
		overwrite bool
		want      string
	}{
		{"overwrite keeps template", "exports/hosts.csv", true, "exports/hosts.csv"},
		{"date stamped before extension", "exports/hosts.csv", false, "exports/hosts-2026-10-19.csv"},
		{"no directory", "hosts.json", false, "hosts-2026-10-19.json"},
		{"no extension", "exports/hosts", false, "exports/hosts-2026-10-19"},
		{"dotted directory", "out.d/hosts.csv", false, "out.d/hosts-2026-10-19.csv"},
		{"empty template", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveOutputPath(tt.template, tt.overwrite, now))
		})
	}
}

func TestParseJobRecord_OutputPathComputedAtLoad(t *testing.T) {
	rec := validRecord()
	rec.Overwrite = "no"
	loadedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	spec, err := ParseJobRecord(rec, loadedAt)
	require.NoError(t, err)
	assert.Equal(t, "exports/hosts-2026-01-02.csv", spec.OutputPath)
	assert.Equal(t, "exports/hosts.csv", spec.FileLocation)
	assert.Equal(t, "exports/hosts.csv", spec.Dump().FileLocation)
}

func TestParseFlag(t *testing.T) {
	for _, v := range []string{"", "no", "No", "n", "false", "0", "  "} {
		assert.False(t, ParseFlag(v), "value %q", v)
	}
	for _, v := range []string{"yes", "Y", "true", "1", "x"} {
		assert.True(t, ParseFlag(v), "value %q", v)
	}
}

func TestJobSpec_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*JobRecord)
		wantField string
	}{
		{"missing name", func(r *JobRecord) { r.Name = " " }, "Name"},
		{"non numeric frequency", func(r *JobRecord) { r.Frequency = "daily" }, "Frequency"},
		{"zero frequency", func(r *JobRecord) { r.Frequency = "0" }, "Frequency"},
		{"negative frequency", func(r *JobRecord) { r.Frequency = "-4" }, "Frequency"},
		{"s3 without bucket", func(r *JobRecord) { r.DestinationType = "s3" }, "Bucket Name"},
		{"bucket on file destination", func(r *JobRecord) { r.BucketName = "inventory" }, "Bucket Name"},
		{"bucket on splunk destination", func(r *JobRecord) {
			r.DestinationType = "splunk"
			r.BucketName = "inventory"
		}, "Bucket Name"},
		{"unknown format", func(r *JobRecord) { r.FileFormat = "xml" }, "File Format"},
		{"missing location", func(r *JobRecord) { r.FileLocation = "" }, "File Location"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			spec, err := ParseJobRecord(rec, time.Now())
			require.NoError(t, err)

			err = spec.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsConfigInvalid(err))
			assert.Equal(t, tt.wantField, apperrors.GetField(err))
		})
	}
}

func TestJobSpec_Validate_SplunkNeedsNoFormat(t *testing.T) {
	rec := validRecord()
	rec.DestinationType = "splunk"
	rec.FileFormat = ""
	rec.FileLocation = ""

	spec, err := ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.NoError(t, spec.Validate())
}

func TestJobSpec_DumpPreservesUnmodifiedFields(t *testing.T) {
	rec := JobRecord{
		Name:            "Weekly Report",
		DestinationType: "File",
		FileLocation:    "out/report.csv",
		Frequency:       " 168",
		LastRun:         "2026-10-01 12:00:00",
		TaniumType:      "REPORT",
		ComponentName:   "Weekly",
		FileFormat:      "CSV",
		BucketName:      "",
		Flatten:         "",
		Overwrite:       "Yes",
	}

	spec, err := ParseJobRecord(rec, time.Now())
	require.NoError(t, err)
	assert.Equal(t, rec, spec.Dump())
}

func TestJobSpec_MarkRun(t *testing.T) {
	spec, err := ParseJobRecord(validRecord(), time.Now())
	require.NoError(t, err)

	ran := time.Date(2026, 10, 19, 9, 15, 30, 999, time.Local)
	spec.MarkRun(ran)

	require.NotNil(t, spec.LastRun)
	assert.Equal(t, ran.Truncate(time.Second), *spec.LastRun)
	assert.Equal(t, "2026-10-19 09:15:30", spec.Dump().LastRun)
	assert.Equal(t, "hosts", spec.Dump().Name)
}

func TestJobSpec_DumpWithoutRecord(t *testing.T) {
	spec := &JobSpec{
		Name:           "adhoc",
		Destination:    DestinationFile,
		Source:         SourceQuestion,
		ComponentName:  "Running Processes",
		Format:         FormatCSV,
		FrequencyHours: 6,
		FileLocation:   "procs.csv",
	}

	rec := spec.Dump()
	assert.Equal(t, "adhoc", rec.Name)
	assert.Equal(t, "6", rec.Frequency)
	assert.Equal(t, "no", rec.Flatten)
	assert.Empty(t, rec.LastRun)
}

func TestJobRecordFromValues(t *testing.T) {
	rec := validRecord()
	got, err := JobRecordFromValues(rec.Values())
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = JobRecordFromValues([]string{"too", "short"})
	assert.Error(t, err)
}
