package data

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/data/pgxutil"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// exportJobColumnNames lists the record columns in model.JobRecordFields order.
var exportJobColumnNames = []string{
	"name",
	"destination_type",
	"file_location",
	"frequency",
	"last_run",
	"tanium_type",
	"component_name",
	"file_format",
	"bucket_name",
	"flatten",
	"overwrite",
}

var exportJobColumns = strings.Join(exportJobColumnNames, ", ")

// PostgresJobStore persists jobs in the export_jobs table. Records are stored verbatim as
// text, ordered by position, and Save replaces the whole set in one transaction.
type PostgresJobStore struct {
	DB     *sql.DB
	clock  core.Clock
	logger *slog.Logger
}

var _ core.JobStore = (*PostgresJobStore)(nil)

// PostgresJobStoreOptions configures a PostgresJobStore.
type PostgresJobStoreOptions struct {
	DB     *sql.DB
	Clock  core.Clock
	Logger *slog.Logger
}

// NewPostgresJobStore creates a PostgresJobStore.
func NewPostgresJobStore(opts PostgresJobStoreOptions) *PostgresJobStore {
	clock := opts.Clock
	if clock == nil {
		clock = &RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		DB:     opts.DB,
		clock:  clock,
		logger: logger.With("component", "pg_jobstore"),
	}
}

// Load reads every job ordered by position.
func (s *PostgresJobStore) Load(ctx context.Context) ([]*model.JobSpec, error) {
	query := `SELECT ` + exportJobColumns + ` FROM export_jobs ORDER BY position ASC`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err, "query export jobs")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.WarnContext(ctx, "close export job rows", "error", closeErr)
		}
	}()

	var records []model.JobRecord
	for rows.Next() {
		var rec model.JobRecord
		if err := rows.Scan(
			&rec.Name,
			&rec.DestinationType,
			&rec.FileLocation,
			&rec.Frequency,
			&rec.LastRun,
			&rec.TaniumType,
			&rec.ComponentName,
			&rec.FileFormat,
			&rec.BucketName,
			&rec.Flatten,
			&rec.Overwrite,
		); err != nil {
			return nil, storageErr(err, "scan export job")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err, "iterate export jobs")
	}

	return parseRecords(records, s.clock)
}

// Save replaces every stored job with jobs, in order.
func (s *PostgresJobStore) Save(ctx context.Context, jobs []*model.JobSpec) error {
	records := dumpRecords(jobs)
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, 0, len(exportJobColumnNames)+1)
		row = append(row, i)
		for _, v := range rec.Values() {
			row = append(row, v)
		}
		rows[i] = row
	}

	err := pgxutil.WithPgxTx(ctx, s.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		// Serialize concurrent savers so one full rewrite never interleaves with another.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, fnvHash("export_jobs")); err != nil {
			return fmt.Errorf("lock export jobs: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM export_jobs`); err != nil {
			return fmt.Errorf("clear export jobs: %w", err)
		}
		columns := append([]string{"position"}, exportJobColumnNames...)
		n, err := tx.CopyFrom(ctx, pgx.Identifier{"export_jobs"}, columns, pgx.CopyFromRows(rows))
		if err != nil {
			return fmt.Errorf("copy export jobs: %w", err)
		}
		if int(n) != len(rows) {
			return fmt.Errorf("copy export jobs: wrote %d of %d rows", n, len(rows))
		}
		return nil
	}})
	if err != nil {
		return storageErr(err, "save export jobs")
	}
	s.logger.DebugContext(ctx, "saved export jobs", "count", len(records))
	return nil
}

// storageErr maps database errors and guarantees the result carries an application code.
func storageErr(err error, msg string) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.GetCode(mapped) != "" {
		return apperrors.Wrap(mapped, apperrors.GetCode(mapped), msg)
	}
	return apperrors.Wrap(mapped, apperrors.ErrCodeStorage, msg)
}

// fnvHash computes FNV-1a 64-bit hash of the given string for use as advisory lock key.
func fnvHash(s string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	u := h.Sum64()
	if u > uint64(math.MaxInt64) {
		u %= uint64(math.MaxInt64)
	}
	return int64(u) // #nosec G115 -- value is explicitly bounded to <= MaxInt64 before casting to int64.
}
