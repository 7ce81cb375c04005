package db

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/acgn-assistant/acgn-assistant/pkg/model"
)

// Config holds database connection configuration
type Config struct {
	// URL is the database connection URL (defaults to DATABASE_URL env var)
	URL string
}

// Connect establishes a database connection.
// If no URL is provided, it reads from DATABASE_URL environment variable.
// postgres:// and postgresql:// URLs use the postgres driver; sqlite:// URLs
// open a local file (or :memory:).
func Connect(cfg Config) (*gorm.DB, error) {
	dbURL := cfg.URL
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	dialector, err := Dialector(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if IsSQLite(dbURL) {
		// SQLite allows a single writer at a time.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// GormConfig returns the shared GORM settings: UTC timestamps, translated
// driver errors and a logger that is silent unless ACGN_LOG_LEVEL=debug is set.
func GormConfig() *gorm.Config {
	logMode := logger.Silent
	if os.Getenv("ACGN_LOG_LEVEL") == "debug" {
		logMode = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(logMode),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	}
}

// Dialector picks the GORM dialector matching the URL scheme
func Dialector(dbURL string) (gorm.Dialector, error) {
	switch {
	case IsPostgres(dbURL):
		return postgres.New(postgres.Config{
			DSN:                  dbURL,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), nil
	case IsSQLite(dbURL):
		return sqlite.Open(SQLiteDSN(dbURL)), nil
	default:
		return nil, fmt.Errorf("unsupported database URL scheme: %s", scheme(dbURL))
	}
}

// SQLiteDSN converts sqlite://path (or sqlite:///abs/path) to a driver DSN
// with foreign keys enabled.
func SQLiteDSN(dbURL string) string {
	path := strings.TrimPrefix(dbURL, "sqlite://")
	if path == "" {
		path = ":memory:"
	}
	query := ""
	if i := strings.Index(path, "?"); i >= 0 {
		path, query = path[:i], path[i+1:]
	}
	values, _ := url.ParseQuery(query)
	values.Add("_pragma", "foreign_keys(1)")
	values.Add("_pragma", "busy_timeout(5000)")
	return path + "?" + values.Encode()
}

// AutoMigrate creates or updates every table from the model definitions. It is
// used for SQLite; Postgres schemas are managed by SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Ping checks that the database answers
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Kind reports "sqlite" for SQLite URLs and "other" for anything else
func Kind(dbURL string) string {
	if IsSQLite(dbURL) {
		return "sqlite"
	}
	return "other"
}

// IsSQLite reports whether the URL selects SQLite
func IsSQLite(dbURL string) bool {
	return strings.HasPrefix(dbURL, "sqlite:")
}

// IsPostgres reports whether the URL selects Postgres
func IsPostgres(dbURL string) bool {
	s := scheme(dbURL)
	return s == "postgres" || s == "postgresql"
}

func scheme(dbURL string) string {
	if i := strings.Index(dbURL, "://"); i >= 0 {
		return strings.ToLower(dbURL[:i])
	}
	return ""
}

// URL returns the database URL from environment.
// Returns empty string if DATABASE_URL is not set.
func URL() string {
	return os.Getenv("DATABASE_URL")
}
