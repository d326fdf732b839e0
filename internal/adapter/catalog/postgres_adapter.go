package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rl1809/storefront/internal/core/domain"
)

// PostgresSource reads the catalog from the catalog_products table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (p *PostgresSource) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_products (
			id            TEXT          PRIMARY KEY,
			nom           TEXT          NOT NULL DEFAULT '',
			prix          NUMERIC(12,2),
			image         TEXT,
			disponibilite TEXT,
			categorie     TEXT,
			position      INTEGER       NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return errors.Wrap(err, "create catalog_products")
	}
	return nil
}

func (p *PostgresSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, nom, prix::text, image, disponibilite, categorie
		FROM catalog_products
		WHERE nom <> ''
		ORDER BY position, id`)
	if err != nil {
		return nil, errors.Wrap(err, "query catalog_products")
	}
	defer rows.Close()

	var records []domain.Record
	for rows.Next() {
		var (
			id                                  string
			name, price, image, avail, category *string
		)
		if err := rows.Scan(&id, &name, &price, &image, &avail, &category); err != nil {
			return nil, errors.Wrap(err, "scan catalog_products")
		}

		records = append(records, domain.Record{
			ID: id,
			Fields: fieldsFromColumns(map[string]*string{
				domain.FieldName:         name,
				domain.FieldPrice:        price,
				domain.FieldImage:        image,
				domain.FieldAvailability: avail,
				domain.FieldCategory:     category,
			}),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate catalog_products")
	}

	return records, nil
}
