package data

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/util"
)

const jobStorePerm = 0o644

// CSVJobStore persists jobs in a CSV file with a header row and one record per job.
type CSVJobStore struct {
	path   string
	clock  core.Clock
	logger *slog.Logger
}

var _ core.JobStore = (*CSVJobStore)(nil)

// CSVJobStoreOptions configures a CSVJobStore.
type CSVJobStoreOptions struct {
	Path   string
	Clock  core.Clock
	Logger *slog.Logger
}

// NewCSVJobStore creates a CSVJobStore.
func NewCSVJobStore(opts CSVJobStoreOptions) *CSVJobStore {
	clock := opts.Clock
	if clock == nil {
		clock = &RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVJobStore{
		path:   opts.Path,
		clock:  clock,
		logger: logger.With("component", "csv_jobstore"),
	}
}

// Path returns the file backing the store.
func (s *CSVJobStore) Path() string {
	return s.path
}

// Load reads every job. A missing or unreadable file is a storage error.
func (s *CSVJobStore) Load(ctx context.Context) ([]*model.JobSpec, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "job store %s not found", s.path)
		}
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "read job store %s", s.path)
	}

	records, err := ReadJobRecords(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeStorage, "parse job store %s", s.path)
	}

	jobs, err := parseRecords(records, s.clock)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "loaded jobs", "path", s.path, "count", len(jobs))
	return jobs, nil
}

// Save rewrites the whole file with every job, replacing it atomically.
func (s *CSVJobStore) Save(ctx context.Context, jobs []*model.JobSpec) error {
	var buf bytes.Buffer
	if err := WriteJobRecords(&buf, dumpRecords(jobs)); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeStorage, "encode job store")
	}
	if err := util.WriteFileAtomic(s.path, buf.Bytes(), jobStorePerm); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeStorage, "write job store %s", s.path)
	}
	s.logger.DebugContext(ctx, "saved jobs", "path", s.path, "count", len(jobs))
	return nil
}

// ReadJobRecords decodes a job store CSV. Columns are matched by header name so column
// order in the file does not matter; every known header must be present.
func ReadJobRecords(r io.Reader) ([]model.JobRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range model.JobRecordFields {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var records []model.JobRecord
	for line := 2; ; line++ {
		values, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if isBlank(values) {
			continue
		}
		if len(values) != len(header) {
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(values), len(header))
		}
		m := make(map[string]string, len(model.JobRecordFields))
		for _, name := range model.JobRecordFields {
			m[name] = values[index[name]]
		}
		records = append(records, model.JobRecordFromMap(m))
	}
	return records, nil
}

// WriteJobRecords encodes records with the canonical header.
func WriteJobRecords(w io.Writer, records []model.JobRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(model.JobRecordFields); err != nil {
		return err
	}
	for _, rec := range records {
		if err := writer.Write(rec.Values()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// parseRecords builds jobs from persisted records using one load time for every job.
// Records that fail validation, including repeated names, are kept so Save writes them back.
func parseRecords(records []model.JobRecord, clock core.Clock) ([]*model.JobSpec, error) {
	now := clock.Now()
	jobs := make([]*model.JobSpec, 0, len(records))
	for i, rec := range records {
		job, err := model.ParseJobRecord(rec, now)
		if err != nil {
			return nil, fmt.Errorf("job record %d: %w", i+1, err)
		}
		jobs = append(jobs, job)
	}
	model.MarkDuplicateNames(jobs)
	return jobs, nil
}

func dumpRecords(jobs []*model.JobSpec) []model.JobRecord {
	records := make([]model.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if job == nil {
			continue
		}
		records = append(records, job.Dump())
	}
	return records
}
