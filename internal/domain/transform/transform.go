// Package transform reshapes raw inventory datasets into flat tabular results.
package transform

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// DefaultPrimaryTable is the asset table whose attributes are scalar per entity.
const DefaultPrimaryTable = "ci_item"

// Options configures a Transformer.
type Options struct {
	// PrimaryTable names the entity's own table. Attributes from any other table are joined
	// one-to-many tables. Defaults to DefaultPrimaryTable.
	PrimaryTable string
}

// Transformer converts raw datasets into tabular results.
type Transformer struct {
	primaryTable string
}

// New creates a Transformer.
func New(opts Options) *Transformer {
	primary := opts.PrimaryTable
	if primary == "" {
		primary = DefaultPrimaryTable
	}
	return &Transformer{primaryTable: primary}
}

// Transform normalizes ds for job. Shape violations fail the whole dataset with a parse error.
func (t *Transformer) Transform(job *model.JobSpec, ds model.RawDataset) (*model.TabularResult, error) {
	if job == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "transform: job is required")
	}
	if ds == nil {
		return nil, apperrors.Parsef("transform: no dataset for job %q", job.Name)
	}
	if ds.Kind() != job.Source {
		return nil, apperrors.Parsef("transform: job %q expects %s data, got %s", job.Name, job.Source, ds.Kind())
	}

	switch d := ds.(type) {
	case *model.ReportResult:
		if job.Flatten {
			return nil, apperrors.Unsupportedf("flatten is not supported for report %q", job.ComponentName)
		}
		return projectReport(d)
	case *model.QuestionResult:
		// Question results are already flat; the flatten flag has no effect.
		return projectQuestion(d)
	case *model.ViewResult:
		if job.Flatten {
			return t.flattenView(d)
		}
		return t.projectView(d)
	default:
		return nil, apperrors.Unsupportedf("transform: unsupported dataset %T", ds)
	}
}

func projectReport(d *model.ReportResult) (*model.TabularResult, error) {
	labels := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		labels[i] = c.Label
	}
	return project(labels, d.Rows, "report")
}

func projectQuestion(d *model.QuestionResult) (*model.TabularResult, error) {
	return project(d.Columns, d.Rows, "question")
}

// project maps row value i to column i. Rows must match the column count exactly.
func project(columns []string, rows [][]any, kind string) (*model.TabularResult, error) {
	tab, err := model.NewTabularResult(columns)
	if err != nil {
		return nil, err
	}
	for i, values := range rows {
		if len(values) != len(columns) {
			return nil, apperrors.Parsef("%s row %d has %d values, want %d", kind, i, len(values), len(columns))
		}
		row := tab.NewRow()
		for j, v := range values {
			s, err := RenderScalar(v)
			if err != nil {
				return nil, err
			}
			row[columns[j]] = s
		}
		tab.Append(row)
	}
	return tab, nil
}

func (t *Transformer) isPrimary(attr model.ViewAttribute) bool {
	return attr.TableName == "" || attr.TableName == t.primaryTable
}

// flattenColumn names a column "field" for primary attributes and "table field" for joined ones.
func (t *Transformer) flattenColumn(attr model.ViewAttribute) string {
	if t.isPrimary(attr) {
		return attr.FieldName
	}
	return attr.TableName + " " + attr.FieldName
}

func (t *Transformer) projectColumn(attr model.ViewAttribute) string {
	if attr.DisplayName != "" {
		return attr.DisplayName
	}
	return t.flattenColumn(attr)
}

// projectView emits one row per entity and requires every attribute to be single-valued.
func (t *Transformer) projectView(d *model.ViewResult) (*model.TabularResult, error) {
	attrs := d.View.Attributes
	columns := make([]string, len(attrs))
	for i, a := range attrs {
		columns[i] = t.projectColumn(a)
	}
	tab, err := model.NewTabularResult(columns)
	if err != nil {
		return nil, err
	}

	for n, entity := range d.Entities {
		row := tab.NewRow()
		for i, attr := range attrs {
			v, err := t.singleValue(entity, attr)
			if err != nil {
				return nil, fmt.Errorf("entity %d: %w", n, err)
			}
			s, err := RenderScalar(v)
			if err != nil {
				return nil, err
			}
			row[columns[i]] = s
		}
		tab.Append(row)
	}
	return tab, nil
}

func (t *Transformer) singleValue(entity map[string]any, attr model.ViewAttribute) (any, error) {
	if t.isPrimary(attr) {
		v := entity[attr.FieldName]
		if _, isList := v.([]any); isList {
			return nil, apperrors.Parsef("attribute %q is one-to-many and requires flatten", attr.FieldName)
		}
		return v, nil
	}

	switch joined := entity[attr.TableName].(type) {
	case nil:
		return nil, nil
	case []any:
		return nil, apperrors.Parsef("table %q is one-to-many and requires flatten", attr.TableName)
	case map[string]any:
		return joined[attr.FieldName], nil
	default:
		return joined, nil
	}
}

// flattenView expands joined one-to-many tables into one row per list index.
//
// An entity declares a one-to-many table when it carries a list (possibly empty) or a single
// record for it. Entities declaring none yield exactly one row; otherwise they yield as many
// rows as their longest list, so an entity whose declared lists are all empty yields none.
// Primary values are broadcast to every row of their entity.
func (t *Transformer) flattenView(d *model.ViewResult) (*model.TabularResult, error) {
	attrs := d.View.Attributes
	columns := make([]string, len(attrs))
	for i, a := range attrs {
		columns[i] = t.flattenColumn(a)
	}
	tab, err := model.NewTabularResult(columns)
	if err != nil {
		return nil, err
	}

	for n, entity := range d.Entities {
		rows, err := t.flattenEntity(tab, attrs, columns, entity)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", n, err)
		}
		tab.Append(rows...)
	}
	return tab, nil
}

func (t *Transformer) flattenEntity(
	tab *model.TabularResult,
	attrs []model.ViewAttribute,
	columns []string,
	entity map[string]any,
) ([]model.Row, error) {
	lists := make(map[string][]any)
	declared := false
	maxLen := 0
	for _, attr := range attrs {
		if t.isPrimary(attr) {
			continue
		}
		if _, seen := lists[attr.TableName]; seen {
			continue
		}
		list, ok, err := joinedList(entity, attr.TableName)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		declared = true
		lists[attr.TableName] = list
		maxLen = max(maxLen, len(list))
	}

	count := 1
	if declared {
		count = maxLen
	}
	rows := make([]model.Row, count)
	for i := range rows {
		rows[i] = tab.NewRow()
	}

	for i, attr := range attrs {
		col := columns[i]
		if t.isPrimary(attr) {
			v := entity[attr.FieldName]
			if _, isList := v.([]any); isList {
				return nil, apperrors.Parsef("primary attribute %q holds a list", attr.FieldName)
			}
			s, err := RenderScalar(v)
			if err != nil {
				return nil, err
			}
			for _, row := range rows {
				row[col] = s
			}
			continue
		}

		for idx, elem := range lists[attr.TableName] {
			record, ok := elem.(map[string]any)
			if !ok {
				return nil, apperrors.Parsef("table %q element %d is not a record", attr.TableName, idx)
			}
			s, err := RenderScalar(record[attr.FieldName])
			if err != nil {
				return nil, err
			}
			rows[idx][col] = s
		}
	}
	return rows, nil
}

// joinedList returns the entity's records for a joined table. ok is false when the table is absent.
func joinedList(entity map[string]any, table string) (list []any, ok bool, err error) {
	switch v := entity[table].(type) {
	case nil:
		return nil, false, nil
	case []any:
		return v, true, nil
	case map[string]any:
		return []any{v}, true, nil
	default:
		return nil, false, apperrors.Parsef("table %q holds %T, want a list of records", table, v)
	}
}

// RenderScalar renders a decoded JSON value as a cell.
// Nested objects and arrays are rendered as compact JSON.
func RenderScalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", apperrors.Wrap(err, apperrors.ErrCodeParse, "render nested value")
		}
		return string(b), nil
	default:
		return fmt.Sprint(x), nil
	}
}
