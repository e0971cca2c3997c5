package model

import "fmt"

// JobRecordFields is the persisted column order of the job store.
var JobRecordFields = []string{
	"Name",
	"Destination Type",
	"File Location",
	"Frequency",
	"Last Run",
	"Tanium Type",
	"Component Name",
	"File Format",
	"Bucket Name",
	"Flatten",
	"Overwrite",
}

// JobRecord is one persisted job store record, held verbatim.
type JobRecord struct {
	Name            string
	DestinationType string
	FileLocation    string
	Frequency       string
	LastRun         string
	TaniumType      string
	ComponentName   string
	FileFormat      string
	BucketName      string
	Flatten         string
	Overwrite       string
}

// Values returns the record fields in persisted column order.
func (r JobRecord) Values() []string {
	return []string{
		r.Name,
		r.DestinationType,
		r.FileLocation,
		r.Frequency,
		r.LastRun,
		r.TaniumType,
		r.ComponentName,
		r.FileFormat,
		r.BucketName,
		r.Flatten,
		r.Overwrite,
	}
}

// JobRecordFromValues builds a record from values in persisted column order.
func JobRecordFromValues(values []string) (JobRecord, error) {
	if len(values) != len(JobRecordFields) {
		return JobRecord{}, fmt.Errorf("job record has %d fields, want %d", len(values), len(JobRecordFields))
	}
	return JobRecord{
		Name:            values[0],
		DestinationType: values[1],
		FileLocation:    values[2],
		Frequency:       values[3],
		LastRun:         values[4],
		TaniumType:      values[5],
		ComponentName:   values[6],
		FileFormat:      values[7],
		BucketName:      values[8],
		Flatten:         values[9],
		Overwrite:       values[10],
	}, nil
}

// JobRecordFromMap builds a record from a header-keyed map, as read from a CSV with a header row.
// Missing columns are left empty.
func JobRecordFromMap(m map[string]string) JobRecord {
	return JobRecord{
		Name:            m["Name"],
		DestinationType: m["Destination Type"],
		FileLocation:    m["File Location"],
		Frequency:       m["Frequency"],
		LastRun:         m["Last Run"],
		TaniumType:      m["Tanium Type"],
		ComponentName:   m["Component Name"],
		FileFormat:      m["File Format"],
		BucketName:      m["Bucket Name"],
		Flatten:         m["Flatten"],
		Overwrite:       m["Overwrite"],
	}
}
