package core

import (
	"context"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// Fetch resolves the job's component by name and fetches its dataset.
func Fetch(ctx context.Context, client DataSourceClient, job *model.JobSpec) (model.RawDataset, error) {
	switch job.Source {
	case model.SourceReport:
		handle, err := client.FindReportByName(ctx, job.ComponentName)
		if err != nil {
			return nil, err
		}
		return client.FetchReport(ctx, handle)
	case model.SourceView:
		handle, err := client.FindViewByName(ctx, job.ComponentName)
		if err != nil {
			return nil, err
		}
		return client.FetchView(ctx, handle)
	case model.SourceQuestion:
		id, err := client.FindQuestionIDByName(ctx, job.ComponentName)
		if err != nil {
			return nil, err
		}
		return client.FetchQuestion(ctx, id)
	default:
		return nil, apperrors.Unsupportedf("unsupported tanium type %q", string(job.Source))
	}
}
