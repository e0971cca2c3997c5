// Package destination delivers serialized exports to the local filesystem, an S3 bucket,
// or a Splunk raw collector.
package destination

import (
	"context"
	"log/slog"
	"strings"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/util"
)

const filePerm = 0o644

// FileDestination writes payloads to job.OutputPath on the local filesystem.
type FileDestination struct {
	logger *slog.Logger
}

var _ core.Destination = (*FileDestination)(nil)

// NewFileDestination creates a FileDestination.
func NewFileDestination(logger *slog.Logger) *FileDestination {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileDestination{logger: logger.With("component", "file_destination")}
}

// Deliver replaces the output file atomically with the payload bytes.
func (d *FileDestination) Deliver(ctx context.Context, job *model.JobSpec, p core.Payload) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "file delivery canceled")
	}
	target := strings.TrimSpace(job.OutputPath)
	if target == "" {
		return apperrors.ConfigField("File Location", "file destination requires a file location")
	}
	if err := util.WriteFileAtomic(target, p.Data, filePerm); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery, "write %s", target)
	}
	d.logger.DebugContext(ctx, "wrote export file", "job", job.Name, "path", target, "bytes", len(p.Data))
	return nil
}
