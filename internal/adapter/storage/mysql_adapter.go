package storage

import (
	"context"
	"database/sql"

	"github.com/go-faster/errors"
)

// MySQLAdapter keeps carts in a single key-value table.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cart_storage (
			storage_key VARCHAR(255) NOT NULL PRIMARY KEY,
			value       MEDIUMTEXT   NOT NULL,
			updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return errors.Wrap(err, "create cart_storage")
	}
	return nil
}

func (m *MySQLAdapter) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := m.db.QueryRowContext(ctx, `
		SELECT value FROM cart_storage WHERE storage_key = ?`, key,
	).Scan(&value)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, "query cart_storage")
	}

	return value, true, nil
}

func (m *MySQLAdapter) Write(ctx context.Context, key, value string) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_storage (storage_key, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		key, value,
	)
	if err != nil {
		return errors.Wrap(err, "upsert cart_storage")
	}
	return nil
}
