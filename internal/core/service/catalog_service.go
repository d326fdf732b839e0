package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

var ErrProductNotFound = errors.New("product not found")

const DefaultFetchTimeout = 30 * time.Second

type CatalogOptions struct {
	// RefreshInterval is how long a successful load is reused. Zero fetches on every call.
	RefreshInterval time.Duration
	// FetchTimeout bounds a single source fetch. The fetch is shared by every caller
	// waiting on it, so it does not inherit any one caller's cancellation.
	FetchTimeout        time.Duration
	DefaultAvailability string
	DefaultCategory     string
}

type CatalogService struct {
	source port.CatalogSource
	opts   CatalogOptions
	logger *zap.Logger
	now    func() time.Time

	group    singleflight.Group
	mu       sync.RWMutex
	products []domain.Product
	loadedAt time.Time
}

func NewCatalogService(source port.CatalogSource, opts CatalogOptions, logger *zap.Logger) *CatalogService {
	if opts.DefaultAvailability == "" {
		opts.DefaultAvailability = domain.DefaultAvailability
	}
	if opts.DefaultCategory == "" {
		opts.DefaultCategory = domain.DefaultCategory
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CatalogService{
		source: source,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// LoadProducts never fails: a source error is logged and yields an empty catalog.
// A caller whose ctx ends while a shared fetch is running gets the last loaded catalog.
func (s *CatalogService) LoadProducts(ctx context.Context) []domain.Product {
	if products, ok := s.fresh(); ok {
		return products
	}

	ch := s.group.DoChan("products", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.FetchTimeout)
		defer cancel()

		records, err := s.source.FetchRecords(fctx)
		if err != nil {
			s.logger.Warn("fetch catalog", zap.Error(err))
			return []domain.Product{}, nil
		}

		products := make([]domain.Product, 0, len(records))
		for _, r := range records {
			products = append(products, s.productFromRecord(r))
		}

		s.mu.Lock()
		s.products = products
		s.loadedAt = s.now()
		s.mu.Unlock()

		s.logger.Debug("catalog loaded", zap.Int("products", len(products)))
		return products, nil
	})

	select {
	case res := <-ch:
		return res.Val.([]domain.Product)
	case <-ctx.Done():
		return s.last()
	}
}

func (s *CatalogService) last() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.products == nil {
		return []domain.Product{}
	}
	return s.products
}

func (s *CatalogService) fresh() ([]domain.Product, bool) {
	if s.opts.RefreshInterval <= 0 {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.products == nil || s.now().Sub(s.loadedAt) >= s.opts.RefreshInterval {
		return nil, false
	}
	return s.products, true
}

// Invalidate marks the reused catalog stale so the next load hits the source.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.loadedAt = time.Time{}
	s.mu.Unlock()
}

func (s *CatalogService) Categories(ctx context.Context) []string {
	return domain.AvailableCategories(s.LoadProducts(ctx))
}

func (s *CatalogService) Visible(ctx context.Context, category string) []domain.Product {
	return domain.VisibleProducts(s.LoadProducts(ctx), category)
}

func (s *CatalogService) Product(ctx context.Context, id string) (domain.Product, error) {
	for _, p := range s.LoadProducts(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, errors.Wrapf(ErrProductNotFound, "id %q", id)
}

func (s *CatalogService) productFromRecord(r domain.Record) domain.Product {
	f := r.Fields
	return domain.Product{
		ID:           r.ID,
		Name:         textField(f[domain.FieldName]),
		Price:        priceField(f[domain.FieldPrice]),
		ImageURL:     imageField(f[domain.FieldImage]),
		Availability: orDefault(textField(f[domain.FieldAvailability]), s.opts.DefaultAvailability),
		Category:     orDefault(textField(f[domain.FieldCategory]), s.opts.DefaultCategory),
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func textField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func priceField(v any) decimal.Decimal {
	switch t := v.(type) {
	case decimal.Decimal:
		return t
	case json.Number:
		return parseDecimal(t.String())
	case string:
		return parseDecimal(t)
	case float64:
		return decimal.NewFromFloat(t)
	case int:
		return decimal.NewFromInt(int64(t))
	case int64:
		return decimal.NewFromInt(t)
	default:
		return decimal.Zero
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// imageField accepts an attachment list ([{url: ...}, ...]) or a bare URL cell.
func imageField(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) == 0 {
			return ""
		}
		return imageField(t[0])
	case []map[string]any:
		if len(t) == 0 {
			return ""
		}
		return imageField(t[0])
	case map[string]any:
		url, _ := t["url"].(string)
		return url
	default:
		return ""
	}
}
