package destination

import (
	"context"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// Router dispatches deliveries to the destination matching job.Destination.
// A nil entry means that destination is not configured in this process.
type Router struct {
	File        core.Destination
	ObjectStore core.Destination
	Splunk      core.Destination
}

var _ core.Destination = (*Router)(nil)

// For returns the destination for kind.
func (r *Router) For(kind model.DestinationKind) (core.Destination, error) {
	var dest core.Destination
	switch kind {
	case model.DestinationFile:
		dest = r.File
	case model.DestinationObjectStore:
		dest = r.ObjectStore
	case model.DestinationLogIngestion:
		dest = r.Splunk
	default:
		return nil, apperrors.Unsupportedf("unsupported destination type %q", kind)
	}
	if dest == nil {
		return nil, apperrors.Newf(apperrors.ErrCodeConfigInvalid, "destination %q is not configured", kind)
	}
	return dest, nil
}

// Deliver routes the payload to the job's destination.
func (r *Router) Deliver(ctx context.Context, job *model.JobSpec, p core.Payload) error {
	dest, err := r.For(job.Destination)
	if err != nil {
		return err
	}
	return dest.Deliver(ctx, job, p)
}
