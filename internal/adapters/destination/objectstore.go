package destination

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
	"github.com/target/repeater/internal/util"
)

// DefaultStagingDir is where payloads are written before upload.
const DefaultStagingDir = "TEMP"

// ObjectStoreOptions configures an ObjectStoreDestination.
type ObjectStoreOptions struct {
	Uploader   core.ObjectUploader
	StagingDir string
	Logger     *slog.Logger
}

// ObjectStoreDestination stages the payload locally and uploads it to job.BucketName
// under the key job.OutputPath.
type ObjectStoreDestination struct {
	uploader   core.ObjectUploader
	stagingDir string
	logger     *slog.Logger
}

var _ core.Destination = (*ObjectStoreDestination)(nil)

// NewObjectStoreDestination creates an ObjectStoreDestination. A nil uploader yields a
// destination that rejects every delivery as misconfigured.
func NewObjectStoreDestination(opts ObjectStoreOptions) *ObjectStoreDestination {
	staging := strings.TrimSpace(opts.StagingDir)
	if staging == "" {
		staging = DefaultStagingDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ObjectStoreDestination{
		uploader:   opts.Uploader,
		stagingDir: staging,
		logger:     logger.With("component", "object_store_destination"),
	}
}

// Deliver writes the payload to <staging>/<basename> and uploads it. The staging file is
// removed afterwards whether or not the upload succeeded.
func (d *ObjectStoreDestination) Deliver(ctx context.Context, job *model.JobSpec, p core.Payload) error {
	if d.uploader == nil {
		return apperrors.New(apperrors.ErrCodeConfigInvalid, "object store is not configured")
	}
	if strings.TrimSpace(job.BucketName) == "" {
		return apperrors.ConfigField("Bucket Name", "object store destination requires a bucket name")
	}
	key := objectKey(job.OutputPath)
	if key == "" {
		return apperrors.ConfigField("File Location", "object store destination requires a file location")
	}

	staged := filepath.Join(d.stagingDir, path.Base(key))
	if err := util.WriteFileAtomic(staged, p.Data, filePerm); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery, "stage %s", staged)
	}
	defer func() {
		if err := os.Remove(staged); err != nil && !errors.Is(err, os.ErrNotExist) {
			d.logger.WarnContext(ctx, "remove staged export", "path", staged, "error", err)
		}
	}()

	if err := d.uploader.UploadFile(ctx, job.BucketName, key, staged); err != nil {
		if apperrors.GetCode(err) != "" {
			return err
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery, "upload s3://%s/%s", job.BucketName, key)
	}
	d.logger.DebugContext(ctx, "uploaded export", "job", job.Name, "bucket", job.BucketName, "key", key)
	return nil
}

// objectKey normalizes a file location into an object key.
func objectKey(location string) string {
	key := filepath.ToSlash(strings.TrimSpace(location))
	return strings.TrimLeft(key, "/")
}
