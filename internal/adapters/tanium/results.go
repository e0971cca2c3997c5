package tanium

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

const (
	reportColumnsExpr   = "columns[].{key: name, label: displayName}"
	questionColumnsExpr = "result_sets[0].columns[].name"
	questionRowsExpr    = "result_sets[0].rows[].data"
)

// FetchReport runs an asset report query.
func (c *Client) FetchReport(ctx context.Context, handle model.ReportHandle) (model.RawDataset, error) {
	path := reportsPath + "/" + pathID(handle.ID) + "/query"
	body, err := c.do(ctx, http.MethodPost, path, nil, map[string]any{"id": reportIDValue(handle.ID)})
	if err != nil {
		return nil, err
	}

	var doc any
	if err := decodeJSON(body, &doc); err != nil {
		return nil, err
	}
	columns, err := reportColumns(doc)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Rows []json.RawMessage `json:"rows"`
	}
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(envelope.Rows))
	for i, raw := range envelope.Rows {
		values, err := orderedValues(raw)
		if err != nil {
			return nil, apperrors.Wrapf(err, apperrors.ErrCodeParse, "report %q row %d", handle.Name, i)
		}
		rows = append(rows, values)
	}

	return &model.ReportResult{Columns: columns, Rows: rows, Raw: body}, nil
}

// reportIDValue sends numeric ids as JSON numbers, matching what the catalog returned.
func reportIDValue(id string) any {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		return json.Number(id)
	}
	return id
}

func reportColumns(doc any) ([]model.ReportColumn, error) {
	projected, err := jmespath.Search(reportColumnsExpr, doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeParse, "project report columns")
	}
	list, ok := projected.([]any)
	if !ok {
		return nil, apperrors.Parsef("report response has no columns")
	}
	columns := make([]model.ReportColumn, 0, len(list))
	for _, raw := range list {
		m, _ := raw.(map[string]any)
		col := model.ReportColumn{}
		col.Key, _ = m["key"].(string)
		col.Label, _ = m["label"].(string)
		if col.Label == "" {
			col.Label = col.Key
		}
		columns = append(columns, col)
	}
	return columns, nil
}

// orderedValues decodes a JSON object into its values in document order.
func orderedValues(raw json.RawMessage) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, apperrors.Parsef("row is not an object")
	}

	var values []any
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return values, nil
}

// FetchView downloads every entity of an asset view.
func (c *Client) FetchView(ctx context.Context, handle model.ViewHandle) (model.RawDataset, error) {
	q := url.Values{}
	q.Set("viewId", handle.Definition.ID)
	q.Set("limit", assetPageLimit)

	body, err := c.do(ctx, http.MethodGet, assetsPath, q, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, apperrors.Parsef("view %q response has no data", handle.Definition.Name)
	}

	var entities []map[string]any
	if err := decodeJSON(envelope.Data, &entities); err != nil {
		return nil, err
	}

	return &model.ViewResult{View: handle.Definition, Entities: entities, Raw: envelope.Data}, nil
}

// FetchQuestion returns the most recent result set of a saved question.
func (c *Client) FetchQuestion(ctx context.Context, id int64) (model.RawDataset, error) {
	q := url.Values{}
	q.Set("most_recent_flag", "1")
	path := questionResultPath + strconv.FormatInt(id, 10)

	body, err := c.do(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := decodeJSON(body, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, apperrors.Parsef("saved question %d response has no data", id)
	}

	var doc any
	if err := decodeJSON(envelope.Data, &doc); err != nil {
		return nil, err
	}

	columns, err := questionColumns(doc)
	if err != nil {
		return nil, err
	}
	rows, err := questionRows(doc)
	if err != nil {
		return nil, err
	}

	return &model.QuestionResult{Columns: columns, Rows: rows, Raw: envelope.Data}, nil
}

func questionColumns(doc any) ([]string, error) {
	projected, err := jmespath.Search(questionColumnsExpr, doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeParse, "project question columns")
	}
	list, ok := projected.([]any)
	if !ok {
		return nil, apperrors.Parsef("saved question result has no columns")
	}
	columns := make([]string, len(list))
	for i, raw := range list {
		name, ok := raw.(string)
		if !ok {
			return nil, apperrors.Parsef("column %d has no name", i)
		}
		columns[i] = name
	}
	return columns, nil
}

// questionRows extracts the first text value of every cell.
func questionRows(doc any) ([][]any, error) {
	projected, err := jmespath.Search(questionRowsExpr, doc)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeParse, "project question rows")
	}
	if projected == nil {
		return nil, nil
	}
	list, ok := projected.([]any)
	if !ok {
		return nil, apperrors.Parsef("saved question rows are not a list")
	}

	rows := make([][]any, 0, len(list))
	for i, raw := range list {
		cells, ok := raw.([]any)
		if !ok {
			return nil, apperrors.Parsef("row %d has no data", i)
		}
		row := make([]any, len(cells))
		for j, cell := range cells {
			row[j] = cellText(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellText(cell any) any {
	values, ok := cell.([]any)
	if !ok || len(values) == 0 {
		return nil
	}
	first, ok := values[0].(map[string]any)
	if !ok {
		return nil
	}
	return first["text"]
}
