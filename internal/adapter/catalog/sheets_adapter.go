package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rl1809/storefront/internal/core/domain"
)

type SheetsConfig struct {
	SpreadsheetID string
	// Range in A1 notation; the first row must hold the column names.
	Range           string
	CredentialsFile string
}

// SheetsSource reads the catalog from a Google Sheets range.
type SheetsSource struct {
	cfg     SheetsConfig
	service *sheets.Service
}

func NewSheetsSource(ctx context.Context, cfg SheetsConfig, opts ...option.ClientOption) (*SheetsSource, error) {
	if cfg.Range == "" {
		cfg.Range = DefaultAirtableTable
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create sheets service")
	}

	return &SheetsSource{cfg: cfg, service: svc}, nil
}

func (s *SheetsSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, s.cfg.Range).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "get range %q", s.cfg.Range)
	}

	return recordsFromRows(resp.Values), nil
}
