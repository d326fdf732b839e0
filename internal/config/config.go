package config

import (
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rl1809/storefront/internal/core/service"
)

var (
	ErrUnknownSource  = errors.New("unknown catalog source")
	ErrUnknownStorage = errors.New("unknown storage driver")
)

var (
	ValidSources        = []string{"airtable", "sheets", "xlsx", "mysql", "postgres"}
	ValidStorageDrivers = []string{"memory", "redis", "mysql", "sqlite"}
)

// Config is the storefront configuration. Durations are Go duration strings.
type Config struct {
	Env      string         `yaml:"env"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Session  SessionConfig  `yaml:"session"`
	Checkout CheckoutConfig `yaml:"checkout"`
	Log      LogConfig      `yaml:"log"`
}

type CatalogConfig struct {
	Source              string         `yaml:"source"`
	Revalidate          string         `yaml:"revalidate"`
	DefaultAvailability string         `yaml:"default_availability"`
	DefaultCategory     string         `yaml:"default_category"`
	Airtable            AirtableConfig `yaml:"airtable"`
	Sheets              SheetsConfig   `yaml:"sheets"`
	XLSX                XLSXConfig     `yaml:"xlsx"`
}

type AirtableConfig struct {
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	BaseID   string `yaml:"base_id"`
	Table    string `yaml:"table"`
	View     string `yaml:"view"`
	Formula  string `yaml:"formula"`
	PageSize int    `yaml:"page_size"`
	Timeout  string `yaml:"timeout"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Range           string `yaml:"range"`
	CredentialsFile string `yaml:"credentials_file"`
}

type XLSXConfig struct {
	Path  string `yaml:"path"`
	Sheet string `yaml:"sheet"`
}

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	CartKey string `yaml:"cart_key"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	// RedisTTL expires idle carts; empty keeps them forever.
	RedisTTL string `yaml:"redis_ttl"`

	SQLitePath string `yaml:"sqlite_path"`
}

// DatabaseConfig is shared by the SQL catalog sources and the MySQL cart storage.
type DatabaseConfig struct {
	MySQLDSN    string `yaml:"mysql_dsn"`
	PostgresURL string `yaml:"postgres_url"`
}

type ServerConfig struct {
	HTTPPort        string `yaml:"http_port"`
	GRPCPort        string `yaml:"grpc_port"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
	SecureCookies   bool   `yaml:"secure_cookies"`
}

type SessionConfig struct {
	// CookieMaxAge is the visitor cookie lifetime, renewed on every request. It outlives
	// IdleTimeout, which only drops the in-memory store; the persisted cart stays reachable.
	CookieMaxAge  string `yaml:"cookie_max_age"`
	IdleTimeout   string `yaml:"idle_timeout"`
	SweepInterval string `yaml:"sweep_interval"`
}

type CheckoutConfig struct {
	BaseURL  string                   `yaml:"base_url"`
	Phone    string                   `yaml:"phone"`
	Template service.CheckoutTemplate `yaml:"template"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Env: "development",
		Catalog: CatalogConfig{
			Source:              "airtable",
			Revalidate:          "60s",
			DefaultAvailability: "Disponible",
			DefaultCategory:     "Autre",
			Airtable: AirtableConfig{
				BaseURL: "https://api.airtable.com",
				Table:   "Vêtements",
				View:    "Grid view",
				Formula: "{Nom} != ''",
				Timeout: "30s",
			},
			Sheets: SheetsConfig{Range: "Vêtements"},
		},
		Storage: StorageConfig{
			Driver:     "memory",
			CartKey:    service.DefaultCartKey,
			RedisAddr:  "localhost:6379",
			SQLitePath: "data/storefront.db",
		},
		Server: ServerConfig{
			HTTPPort:        "8080",
			GRPCPort:        "50051",
			ShutdownTimeout: "10s",
		},
		Session: SessionConfig{
			CookieMaxAge:  "8760h",
			IdleTimeout:   "24h",
			SweepInterval: "10m",
		},
		Checkout: CheckoutConfig{
			BaseURL:  "https://wa.me",
			Phone:    "212696044246",
			Template: service.DefaultCheckoutTemplate(),
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path (defaults when empty or missing), then .env outside
// production, then environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, errors.Wrap(err, "read config")
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrap(err, "parse config")
			}
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv() error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&c.Env, "APP_ENV")

	setString(&c.Catalog.Source, "CATALOG_SOURCE")
	setString(&c.Catalog.Revalidate, "CATALOG_REVALIDATE")
	setString(&c.Catalog.Airtable.APIKey, "AIRTABLE_API_KEY")
	setString(&c.Catalog.Airtable.BaseID, "AIRTABLE_BASE_ID")
	setString(&c.Catalog.Airtable.Table, "AIRTABLE_TABLE")
	setString(&c.Catalog.Airtable.View, "AIRTABLE_VIEW")
	setString(&c.Catalog.Sheets.SpreadsheetID, "GOOGLE_SHEETS_ID")
	setString(&c.Catalog.Sheets.CredentialsFile, "GOOGLE_APPLICATION_CREDENTIALS")
	setString(&c.Catalog.XLSX.Path, "CATALOG_XLSX_PATH")

	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.RedisAddr, "REDIS_ADDR")
	setString(&c.Storage.RedisPassword, "REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.Storage.RedisDB = db
		}
	}
	setString(&c.Storage.SQLitePath, "SQLITE_PATH")

	setString(&c.Database.MySQLDSN, "MYSQL_DSN")
	setString(&c.Database.PostgresURL, "DATABASE_URL")

	setString(&c.Server.HTTPPort, "HTTP_PORT")
	setString(&c.Server.GRPCPort, "GRPC_PORT")

	setString(&c.Session.CookieMaxAge, "SESSION_COOKIE_MAX_AGE")

	setString(&c.Checkout.Phone, "WHATSAPP_PHONE")

	setString(&c.Log.Level, "LOG_LEVEL")
}

func (c *Config) Validate() error {
	if !contains(ValidSources, c.Catalog.Source) {
		return errors.Wrapf(ErrUnknownSource, "%q (valid: %v)", c.Catalog.Source, ValidSources)
	}
	if !contains(ValidStorageDrivers, c.Storage.Driver) {
		return errors.Wrapf(ErrUnknownStorage, "%q (valid: %v)", c.Storage.Driver, ValidStorageDrivers)
	}

	var required [][2]string
	switch c.Catalog.Source {
	case "airtable":
		required = append(required,
			[2]string{"catalog.airtable.api_key", c.Catalog.Airtable.APIKey},
			[2]string{"catalog.airtable.base_id", c.Catalog.Airtable.BaseID})
	case "sheets":
		required = append(required, [2]string{"catalog.sheets.spreadsheet_id", c.Catalog.Sheets.SpreadsheetID})
	case "xlsx":
		required = append(required, [2]string{"catalog.xlsx.path", c.Catalog.XLSX.Path})
	case "mysql":
		required = append(required, [2]string{"database.mysql_dsn", c.Database.MySQLDSN})
	case "postgres":
		required = append(required, [2]string{"database.postgres_url", c.Database.PostgresURL})
	}
	switch c.Storage.Driver {
	case "redis":
		required = append(required, [2]string{"storage.redis_addr", c.Storage.RedisAddr})
	case "mysql":
		required = append(required, [2]string{"database.mysql_dsn", c.Database.MySQLDSN})
	case "sqlite":
		required = append(required, [2]string{"storage.sqlite_path", c.Storage.SQLitePath})
	}
	for _, r := range required {
		if r[1] == "" {
			return errors.Errorf("%s must be set for catalog source %q and storage driver %q",
				r[0], c.Catalog.Source, c.Storage.Driver)
		}
	}

	durations := map[string]string{
		"catalog.revalidate":       c.Catalog.Revalidate,
		"catalog.airtable.timeout": c.Catalog.Airtable.Timeout,
		"storage.redis_ttl":        c.Storage.RedisTTL,
		"server.shutdown_timeout":  c.Server.ShutdownTimeout,
		"session.cookie_max_age":   c.Session.CookieMaxAge,
		"session.idle_timeout":     c.Session.IdleTimeout,
		"session.sweep_interval":   c.Session.SweepInterval,
	}
	for name, v := range durations {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return errors.Wrapf(err, "invalid %s", name)
		}
	}

	if c.Checkout.Phone == "" {
		return errors.New("checkout.phone must be set")
	}
	return nil
}

// Duration parses a validated duration string, returning zero for an empty one.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
