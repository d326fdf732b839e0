package catalog

import (
	"strconv"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
)

const idColumn = "id"

// recordsFromRows turns a header-first grid into records. Header cells are matched
// case-insensitively, rows without a name are skipped, and rows without an id column get
// their sheet row number ("row-2" for the first data row).
func recordsFromRows(rows [][]any) []domain.Record {
	if len(rows) == 0 {
		return nil
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cellText(cell)))
	}

	var records []domain.Record
	for n, row := range rows[1:] {
		fields := make(map[string]any, len(header))
		for i, cell := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			if s, ok := cell.(string); ok && s == "" {
				continue
			}
			fields[header[i]] = cell
		}

		if cellText(fields[domain.FieldName]) == "" {
			continue
		}
		if img, ok := fields[domain.FieldImage].(string); ok {
			fields[domain.FieldImage] = splitImages(img)
		}

		id := cellText(fields[idColumn])
		if id == "" {
			id = "row-" + strconv.Itoa(n+2)
		}
		delete(fields, idColumn)

		records = append(records, domain.Record{ID: id, Fields: fields})
	}
	return records
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = make([]any, len(row))
		for j, cell := range row {
			out[i][j] = cell
		}
	}
	return out
}

// splitImages reads a cell holding one or more comma separated image URLs.
func splitImages(cell string) []any {
	var urls []any
	for _, part := range strings.Split(cell, ",") {
		if u := strings.TrimSpace(part); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

func cellText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// fieldsFromColumns drops NULL columns so the loader applies its defaults.
func fieldsFromColumns(cols map[string]*string) map[string]any {
	fields := make(map[string]any, len(cols))
	for name, v := range cols {
		if v != nil {
			fields[name] = *v
		}
	}
	if img, ok := fields[domain.FieldImage].(string); ok {
		fields[domain.FieldImage] = splitImages(img)
	}
	return fields
}
