package destination

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/target/repeater/internal/core"
	apperrors "github.com/target/repeater/internal/errors"
)

// S3Config configures the S3 uploader. Empty credentials fall back to the default AWS
// credential chain.
type S3Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Endpoint overrides the S3 endpoint (S3-compatible stores). Path-style addressing is
	// used when set.
	Endpoint string
}

// S3Uploader uploads staged files with the S3 transfer manager.
type S3Uploader struct {
	uploader *manager.Uploader
}

var _ core.ObjectUploader = (*S3Uploader)(nil)

// NewS3Uploader loads AWS configuration and builds an uploader.
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigInvalid, "load aws config")
	}

	endpoint := strings.TrimSpace(cfg.Endpoint)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Uploader{uploader: manager.NewUploader(client)}, nil
}

// UploadFile streams localPath to bucket/key.
func (u *S3Uploader) UploadFile(ctx context.Context, bucket, key, localPath string) (err error) {
	f, err := os.Open(localPath) // #nosec G304 -- staging path built by the object store destination
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery, "open staged file %s", localPath)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = apperrors.Wrapf(closeErr, apperrors.ErrCodeDelivery, "close staged file %s", localPath)
		}
	}()

	_, err = u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "s3 upload canceled")
		}
		return apperrors.Wrapf(err, apperrors.ErrCodeDelivery, "upload s3://%s/%s", bucket, key)
	}
	return nil
}
