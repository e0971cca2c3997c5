// Package export serializes tabular results into file payloads.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// Serialize encodes a result in the job's file format.
//
// JSON exports of report and question sources pass the fetched body through unshaped.
// View sources export the entity list, or the flattened rows when flatten is set.
func Serialize(job *model.JobSpec, tab *model.TabularResult, ds model.RawDataset) ([]byte, error) {
	if job == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "serialize: job is required")
	}

	switch job.Format {
	case model.FormatCSV:
		return CSV(tab)
	case model.FormatJSON:
		return jsonPayload(job, tab, ds)
	default:
		return nil, apperrors.Unsupportedf("unsupported file format %q", string(job.Format))
	}
}

// CSV writes a header row from the columns followed by one line per row.
func CSV(tab *model.TabularResult) ([]byte, error) {
	if tab == nil {
		return nil, apperrors.New(apperrors.ErrCodeExport, "csv export: no tabular result")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(tab.Columns); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExport, "write csv header")
	}
	for _, row := range tab.Rows {
		if err := w.Write(tab.Values(row)); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeExport, "write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExport, "flush csv")
	}
	return buf.Bytes(), nil
}

func jsonPayload(job *model.JobSpec, tab *model.TabularResult, ds model.RawDataset) ([]byte, error) {
	switch d := ds.(type) {
	case *model.ReportResult, *model.QuestionResult:
		body := d.Body()
		if len(body) == 0 {
			return nil, apperrors.New(apperrors.ErrCodeExport, "json export: empty response body")
		}
		return body, nil
	case *model.ViewResult:
		if job.Flatten {
			return RowsJSON(tab)
		}
		b, err := json.Marshal(d.Entities)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeExport, "encode view entities")
		}
		return b, nil
	case nil:
		return nil, apperrors.New(apperrors.ErrCodeExport, "json export: no dataset")
	default:
		return nil, apperrors.Unsupportedf("json export: unsupported dataset %T", ds)
	}
}

// RowsJSON encodes rows as an array of objects whose keys follow column order.
func RowsJSON(tab *model.TabularResult) ([]byte, error) {
	if tab == nil {
		return nil, apperrors.New(apperrors.ErrCodeExport, "json export: no tabular result")
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range tab.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, col := range tab.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONString(&buf, col); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeJSONString(&buf, row.Get(col)); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeExport, "encode json string")
	}
	buf.Write(b)
	return nil
}
