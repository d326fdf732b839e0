package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogSource interface {
	// FetchRecords returns every row whose name field is non-empty, in source order.
	FetchRecords(ctx context.Context) ([]domain.Record, error)
}
