package tanium

import (
	"context"
	"strconv"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/target/repeater/internal/core"
	"github.com/target/repeater/internal/domain/model"
	apperrors "github.com/target/repeater/internal/errors"
)

// Projections applied to catalog listings. Name matching happens in Go so names are never
// interpolated into expressions.
const (
	reportCatalogExpr   = "data[].{id: id, name: reportName}"
	viewCatalogExpr     = "data[].{id: id, name: viewName, attributes: definition.attributes}"
	questionCatalogExpr = "data[].{id: id, name: name}"
)

// catalogEntry is one projected listing entry.
type catalogEntry map[string]any

func (e catalogEntry) name() string {
	s, _ := e["name"].(string)
	return s
}

// findByName returns the single catalog entry named name. A cached listing that does not
// name the entry or no longer decodes is dropped and listed again once.
func (c *Client) findByName(
	ctx context.Context,
	kind core.CatalogKind,
	path, expr, label, name string,
) (catalogEntry, error) {
	body, cached, err := c.listCatalog(ctx, kind, path)
	if err != nil {
		return nil, err
	}

	entry, err := matchByName(body, expr, label, name)
	if !cached || !(apperrors.IsLookupNotFound(err) || apperrors.IsParse(err)) {
		return entry, err
	}

	c.logger.DebugContext(ctx, "cached catalog is stale, listing again", "catalog", string(kind), "error", err)
	if _, invErr := c.catalog.Invalidate(ctx, kind); invErr != nil {
		c.logger.WarnContext(ctx, "catalog cache invalidate failed", "catalog", string(kind), "error", invErr)
	}
	body, err = c.fetchCatalog(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	return matchByName(body, expr, label, name)
}

// matchByName projects a catalog listing with expr and picks the entry named name.
func matchByName(body []byte, expr, label, name string) (catalogEntry, error) {
	var doc any
	if err := decodeJSON(body, &doc); err != nil {
		return nil, err
	}

	projected, err := jmespath.Search(expr, doc)
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.ErrCodeParse, "project %s catalog", label)
	}
	entries, ok := projected.([]any)
	if !ok {
		return nil, apperrors.Parsef("%s catalog has no data list", label)
	}

	var matches []catalogEntry
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if catalogEntry(entry).name() == name {
			matches = append(matches, entry)
		}
	}

	switch len(matches) {
	case 0:
		return nil, notFound(label, name)
	case 1:
		return matches[0], nil
	default:
		return nil, ambiguous(label, name, len(matches))
	}
}

// FindReportByName resolves an asset report by its report name.
func (c *Client) FindReportByName(ctx context.Context, name string) (model.ReportHandle, error) {
	entry, err := c.findByName(ctx, core.CatalogReports, reportsPath, reportCatalogExpr, "report", name)
	if err != nil {
		return model.ReportHandle{}, err
	}
	id, err := idString(entry["id"])
	if err != nil {
		return model.ReportHandle{}, apperrors.Wrapf(err, apperrors.ErrCodeParse, "report %q", name)
	}
	return model.ReportHandle{ID: id, Name: name}, nil
}

// FindViewByName resolves an asset view by its view name, including its attribute definition.
func (c *Client) FindViewByName(ctx context.Context, name string) (model.ViewHandle, error) {
	entry, err := c.findByName(ctx, core.CatalogViews, viewsPath, viewCatalogExpr, "view", name)
	if err != nil {
		return model.ViewHandle{}, err
	}
	id, err := idString(entry["id"])
	if err != nil {
		return model.ViewHandle{}, apperrors.Wrapf(err, apperrors.ErrCodeParse, "view %q", name)
	}
	attrs, err := viewAttributes(entry["attributes"])
	if err != nil {
		return model.ViewHandle{}, apperrors.Wrapf(err, apperrors.ErrCodeParse, "view %q", name)
	}
	return model.ViewHandle{Definition: model.ViewDefinition{ID: id, Name: name, Attributes: attrs}}, nil
}

// FindQuestionIDByName resolves a saved question by name.
func (c *Client) FindQuestionIDByName(ctx context.Context, name string) (int64, error) {
	entry, err := c.findByName(ctx, core.CatalogQuestions, savedQuestionsPath, questionCatalogExpr, "saved question", name)
	if err != nil {
		return 0, err
	}
	raw, err := idString(entry["id"])
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeParse, "saved question %q", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeParse, "saved question %q has non-integer id %q", name, raw)
	}
	return id, nil
}

func viewAttributes(v any) ([]model.ViewAttribute, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, apperrors.Parsef("view definition has no attributes")
	}
	attrs := make([]model.ViewAttribute, 0, len(list))
	for i, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apperrors.Parsef("attribute %d is not an object", i)
		}
		attr := model.ViewAttribute{}
		attr.TableName, _ = m["tableName"].(string)
		attr.FieldName, _ = m["fieldName"].(string)
		attr.DisplayName, _ = m["displayName"].(string)
		if attr.FieldName == "" {
			return nil, apperrors.Parsef("attribute %d has no field name", i)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}
