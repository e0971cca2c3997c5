package model

import (
	"encoding/json"

	apperrors "github.com/target/repeater/internal/errors"
)

// RawDataset is a dataset as returned by the inventory platform.
// It is one of ReportResult, ViewResult or QuestionResult.
type RawDataset interface {
	// Kind returns the source kind that produced the dataset.
	Kind() SourceKind
	// Body returns the unshaped response payload.
	Body() json.RawMessage
	rawDataset()
}

// ReportColumn describes one declared report column.
type ReportColumn struct {
	Key   string
	Label string
}

// ReportResult is the result of querying an asset report.
// Each row holds its values in the order the platform returned them.
type ReportResult struct {
	Columns []ReportColumn
	Rows    [][]any
	Raw     json.RawMessage
}

// ViewAttribute describes one attribute of an asset view definition.
type ViewAttribute struct {
	TableName   string
	FieldName   string
	DisplayName string
}

// ViewDefinition describes an asset view.
type ViewDefinition struct {
	ID         string
	Name       string
	Attributes []ViewAttribute
}

// ViewResult is the set of entities returned for an asset view.
// An entity maps a primary-table field name to a scalar, or a joined table name to a list of records.
type ViewResult struct {
	View     ViewDefinition
	Entities []map[string]any
	Raw      json.RawMessage
}

// QuestionResult is the most recent result set of a saved question.
type QuestionResult struct {
	Columns []string
	Rows    [][]any
	Raw     json.RawMessage
}

// Kind implements RawDataset.
func (*ReportResult) Kind() SourceKind { return SourceReport }

// Kind implements RawDataset.
func (*ViewResult) Kind() SourceKind { return SourceView }

// Kind implements RawDataset.
func (*QuestionResult) Kind() SourceKind { return SourceQuestion }

// Body implements RawDataset.
func (r *ReportResult) Body() json.RawMessage { return r.Raw }

// Body implements RawDataset.
func (r *ViewResult) Body() json.RawMessage { return r.Raw }

// Body implements RawDataset.
func (r *QuestionResult) Body() json.RawMessage { return r.Raw }

func (*ReportResult) rawDataset()   {}
func (*ViewResult) rawDataset()     {}
func (*QuestionResult) rawDataset() {}

// ReportHandle identifies a report resolved by name.
type ReportHandle struct {
	ID   string
	Name string
}

// ViewHandle identifies a view resolved by name, including its definition.
type ViewHandle struct {
	Definition ViewDefinition
}

// Row is one tabular row keyed by column name.
type Row map[string]string

// Get returns the value for a column, or empty when unset.
func (r Row) Get(column string) string {
	return r[column]
}

// TabularResult is the normalized output consumed by exporters.
type TabularResult struct {
	Columns []string
	Rows    []Row
}

// NewTabularResult creates an empty result with the given columns.
// Column names must be unique.
func NewTabularResult(columns []string) (*TabularResult, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return nil, apperrors.Parsef("duplicate column %q", c)
		}
		seen[c] = struct{}{}
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &TabularResult{Columns: cols}, nil
}

// NewRow returns a row with every column set to empty.
func (t *TabularResult) NewRow() Row {
	row := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		row[c] = ""
	}
	return row
}

// Append adds rows in order.
func (t *TabularResult) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Values returns a row's values in column order.
func (t *TabularResult) Values(row Row) []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = row.Get(c)
	}
	return out
}
