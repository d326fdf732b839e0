package catalog

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/mehanizm/airtable"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	DefaultAirtableURL     = "https://api.airtable.com"
	DefaultAirtableTable   = "Vêtements"
	DefaultAirtableView    = "Grid view"
	DefaultAirtableFormula = "{Nom} != ''"
)

type AirtableConfig struct {
	// BaseURL is the API host; the /v0 prefix is appended.
	BaseURL string
	APIKey  string
	BaseID  string
	Table   string
	View    string
	Formula string
	// PageSize is sent only when positive; Airtable caps pages at 100 records.
	PageSize int
}

// AirtableSource lists every record of one table view, following offset tokens until the
// last page.
type AirtableSource struct {
	cfg   AirtableConfig
	table *airtable.Table
}

// NewAirtableSource uses client for every request when it is not nil, so its timeout bounds
// each page.
func NewAirtableSource(cfg AirtableConfig, client *http.Client) (*AirtableSource, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAirtableURL
	}
	if cfg.Table == "" {
		cfg.Table = DefaultAirtableTable
	}
	if cfg.Formula == "" {
		cfg.Formula = DefaultAirtableFormula
	}

	at := airtable.NewClient(cfg.APIKey)
	if err := at.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/v0"); err != nil {
		return nil, errors.Wrap(err, "airtable base url")
	}
	if client != nil {
		at.SetCustomClient(client)
	}

	return &AirtableSource{cfg: cfg, table: at.GetTable(cfg.BaseID, cfg.Table)}, nil
}

func (a *AirtableSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	offset := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "list airtable records")
		}

		page, err := a.query(offset).Do()
		if err != nil {
			return nil, errors.Wrap(err, "list airtable records")
		}

		for _, r := range page.Records {
			if r == nil {
				continue
			}
			records = append(records, domain.Record{ID: r.ID, Fields: r.Fields})
		}

		offset = page.Offset
		if offset == "" {
			break
		}
	}

	return records, nil
}

func (a *AirtableSource) query(offset string) *airtable.GetRecordsConfig {
	q := a.table.GetRecords().WithFilterFormula(a.cfg.Formula)
	if a.cfg.View != "" {
		q = q.FromView(a.cfg.View)
	}
	if a.cfg.PageSize > 0 {
		q = q.PageSize(a.cfg.PageSize)
	}
	if offset != "" {
		q = q.WithOffset(offset)
	}
	return q
}
