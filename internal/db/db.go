// Package db provides the job ledger database connection
package db

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/avast/retry-go"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/celestiaorg/peakinvestigator/internal/db/models"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Database configuration constants
const (
	// DefaultDriver keeps the ledger in a local file
	DefaultDriver = DriverSQLite
	// DefaultPath is the default sqlite ledger file
	DefaultPath = "peakinvestigator.db"
	// DefaultHost is the default database host
	DefaultHost = "localhost"
	// DefaultPort is the default database port
	DefaultPort = 5432
	// DefaultUser is the default database user
	DefaultUser = "postgres"
	// DefaultPassword is the default database password
	DefaultPassword = "postgres"
	// DefaultDBName is the default database name
	DefaultDBName     = "postgres"
	DefaultSSLEnabled = false
	// DefaultConnectAttempts bounds the postgres connection retries
	DefaultConnectAttempts = 3
)

// Options represents database connection configuration options
type Options struct {
	Driver     string
	Path       string
	Host       string
	User       string
	Password   string
	DBName     string
	Port       int
	SSLEnabled *bool
	LogLevel   logger.LogLevel
	// ConnectAttempts applies to postgres only
	ConnectAttempts uint
}

// New opens the ledger with the given options and migrates its schema
func New(opts Options) (*gorm.DB, error) {
	opts = setDefaults(opts)

	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	// Configure custom logger to ignore record not found errors
	newLogger := logger.New(
		log.New(os.Stderr, "\r\n", log.LstdFlags), // io writer
		logger.Config{
			LogLevel:                  opts.LogLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	var db *gorm.DB
	err = retry.Do(
		func() error {
			var openErr error
			db, openErr = gorm.Open(dialector, &gorm.Config{Logger: newLogger})
			return openErr
		},
		retry.Attempts(opts.ConnectAttempts),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ledger: %w", opts.Driver, err)
	}
	if err := migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case DriverSQLite:
		return sqlite.Open(opts.Path), nil
	case DriverPostgres:
		return postgres.Open(DSN(opts)), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
}

// DSN renders the postgres connection string for opts
func DSN(opts Options) string {
	opts = setDefaults(opts)
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		opts.Host, opts.User, opts.Password, opts.DBName, opts.Port, sslMode(opts))
}

// URL returns the postgres connection URL used by schema migrations
func URL(opts Options) string {
	opts = setDefaults(opts)
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(opts.User, opts.Password),
		Host:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Path:     "/" + opts.DBName,
		RawQuery: "sslmode=" + sslMode(opts),
	}
	return u.String()
}

func sslMode(opts Options) string {
	if opts.SSLEnabled != nil && *opts.SSLEnabled {
		return "require"
	}
	return "disable"
}

// IsDuplicateKeyError checks if the given error is a PostgreSQL duplicate key error
func IsDuplicateKeyError(err error) bool {
	return errors.Is(postgres.Dialector{}.Translate(err), gorm.ErrDuplicatedKey)
}

func setDefaults(opts Options) Options {
	if opts.Driver == "" {
		opts.Driver = DefaultDriver
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Host == "" {
		opts.Host = DefaultHost
	}
	if opts.User == "" {
		opts.User = DefaultUser
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.DBName == "" {
		opts.DBName = DefaultDBName
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.SSLEnabled == nil {
		sslMode := DefaultSSLEnabled
		opts.SSLEnabled = &sslMode
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}
	if opts.ConnectAttempts == 0 {
		opts.ConnectAttempts = DefaultConnectAttempts
		if opts.Driver == DriverSQLite {
			opts.ConnectAttempts = 1
		}
	}
	return opts
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Job{},
	)
}
