package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/rl1809/storefront/internal/core/domain"
)

// XLSXSource reads the catalog from a workbook on disk. The file is reopened on every fetch
// so edits show up on the next catalog refresh.
type XLSXSource struct {
	path  string
	sheet string
}

// NewXLSXSource reads the first sheet when sheet is empty.
func NewXLSXSource(path, sheet string) *XLSXSource {
	return &XLSXSource{path: path, sheet: sheet}
}

func (x *XLSXSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	f, err := excelize.OpenFile(x.path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", x.path)
	}
	defer f.Close()

	sheet := x.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheet)
	}

	return recordsFromRows(stringRows(rows)), nil
}
