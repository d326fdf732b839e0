package main

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var nopCloser = closerFunc(func() error { return nil })

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open mysql")
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping mysql")
	}
	return db, nil
}

func newCatalogSource(ctx context.Context, cfg *config.Config) (port.CatalogSource, io.Closer, error) {
	c := cfg.Catalog
	switch c.Source {
	case "airtable":
		client := &http.Client{Timeout: config.Duration(c.Airtable.Timeout)}
		source, err := catalog.NewAirtableSource(catalog.AirtableConfig{
			BaseURL:  c.Airtable.BaseURL,
			APIKey:   c.Airtable.APIKey,
			BaseID:   c.Airtable.BaseID,
			Table:    c.Airtable.Table,
			View:     c.Airtable.View,
			Formula:  c.Airtable.Formula,
			PageSize: c.Airtable.PageSize,
		}, client)
		if err != nil {
			return nil, nil, err
		}
		return source, nopCloser, nil

	case "sheets":
		source, err := catalog.NewSheetsSource(ctx, catalog.SheetsConfig{
			SpreadsheetID:   c.Sheets.SpreadsheetID,
			Range:           c.Sheets.Range,
			CredentialsFile: c.Sheets.CredentialsFile,
		})
		if err != nil {
			return nil, nil, err
		}
		return source, nopCloser, nil

	case "xlsx":
		return catalog.NewXLSXSource(c.XLSX.Path, c.XLSX.Sheet), nopCloser, nil

	case "mysql":
		db, err := openMySQL(ctx, cfg.Database.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		source := catalog.NewMySQLSource(db)
		if err := source.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return source, db, nil

	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.Database.PostgresURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "open postgres")
		}
		source := catalog.NewPostgresSource(pool)
		if err := source.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return source, closerFunc(func() error { pool.Close(); return nil }), nil
	}

	return nil, nil, errors.Wrapf(config.ErrUnknownSource, "%q", c.Source)
}

func newCartStorage(ctx context.Context, cfg *config.Config) (port.CartStorage, io.Closer, error) {
	s := cfg.Storage
	switch s.Driver {
	case "memory":
		return storage.NewMemoryAdapter(), nopCloser, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		return storage.NewRedisAdapter(rdb, config.Duration(s.RedisTTL)), rdb, nil

	case "mysql":
		db, err := openMySQL(ctx, cfg.Database.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		adapter := storage.NewMySQLAdapter(db)
		if err := adapter.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return adapter, db, nil

	case "sqlite":
		adapter, err := storage.NewSQLiteAdapter(ctx, s.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return adapter, adapter, nil
	}

	return nil, nil, errors.Wrapf(config.ErrUnknownStorage, "%q", s.Driver)
}

// app holds the wired core for one command invocation.
type app struct {
	catalog  *service.CatalogService
	sessions *service.SessionRegistry
	checkout *service.CheckoutBuilder
	closers  []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	source, sourceCloser, err := newCatalogSource(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "catalog source")
	}

	carts, storageCloser, err := newCartStorage(ctx, cfg)
	if err != nil {
		sourceCloser.Close()
		return nil, errors.Wrap(err, "cart storage")
	}

	return &app{
		catalog: service.NewCatalogService(source, service.CatalogOptions{
			RefreshInterval:     config.Duration(cfg.Catalog.Revalidate),
			DefaultAvailability: cfg.Catalog.DefaultAvailability,
			DefaultCategory:     cfg.Catalog.DefaultCategory,
		}, logger.Named("catalog")),
		sessions: service.NewSessionRegistry(carts, cfg.Storage.CartKey, logger.Named("cart")),
		checkout: service.NewCheckoutBuilder(cfg.Checkout.BaseURL, cfg.Checkout.Phone, cfg.Checkout.Template),
		closers:  []io.Closer{storageCloser, sourceCloser},
	}, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Warn("close resource", zap.Error(err))
		}
	}
}
