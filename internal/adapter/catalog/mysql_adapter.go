package catalog

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MySQLSource reads the catalog from the catalog_products table.
type MySQLSource struct {
	db *sql.DB
}

func NewMySQLSource(db *sql.DB) *MySQLSource {
	return &MySQLSource{db: db}
}

func (m *MySQLSource) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_products (
			id            VARCHAR(64)    NOT NULL PRIMARY KEY,
			nom           VARCHAR(255)   NOT NULL DEFAULT '',
			prix          DECIMAL(12, 2) NULL,
			image         TEXT           NULL,
			disponibilite VARCHAR(64)    NULL,
			categorie     VARCHAR(128)   NULL,
			position      INT            NOT NULL DEFAULT 0
		)`)
	if err != nil {
		return errors.Wrap(err, "create catalog_products")
	}
	return nil
}

func (m *MySQLSource) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, nom, CAST(prix AS CHAR), image, disponibilite, categorie
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
			name, price, image, avail, category sql.NullString
		)
		if err := rows.Scan(&id, &name, &price, &image, &avail, &category); err != nil {
			return nil, errors.Wrap(err, "scan catalog_products")
		}

		records = append(records, domain.Record{
			ID: id,
			Fields: fieldsFromColumns(map[string]*string{
				domain.FieldName:         nullable(name),
				domain.FieldPrice:        nullable(price),
				domain.FieldImage:        nullable(image),
				domain.FieldAvailability: nullable(avail),
				domain.FieldCategory:     nullable(category),
			}),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate catalog_products")
	}

	return records, nil
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}
