// Package config reads the client configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/celestiaorg/peakinvestigator/internal/constants"
	"github.com/celestiaorg/peakinvestigator/internal/db"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvDuration parses a duration variable, falling back when unset
func GetEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

// GetEnvInt parses an integer variable, falling back when unset
func GetEnvInt(key string, fallback int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// LoadDotEnv loads a .env file if one exists. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("error loading %s: %w", p, err)
		}
	}
	return nil
}

// Config is the effective client configuration
type Config struct {
	Account      types.Account
	RTO          string
	PIVersion    string
	HostKey      string
	PrepInterval time.Duration
	PrepTimeout  time.Duration
	TempDir      string
}

// Load builds a Config from the environment
func Load() (*Config, error) {
	interval, err := GetEnvDuration(constants.EnvPrepInterval, constants.DefaultPrepInterval)
	if err != nil {
		return nil, err
	}
	timeout, err := GetEnvDuration(constants.EnvPrepTimeout, constants.DefaultPrepTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Account: types.Account{
			Server:   GetEnv(constants.EnvServer, constants.DefaultServer),
			Username: GetEnv(constants.EnvUsername, ""),
			Secret:   GetEnv(constants.EnvPassword, ""),
			ID:       GetEnv(constants.EnvAccount, constants.DefaultAccount),
		},
		RTO:          GetEnv(constants.EnvRTO, constants.DefaultRTO),
		PIVersion:    GetEnv(constants.EnvPIVersion, constants.DefaultPIVersion),
		HostKey:      GetEnv(constants.EnvSFTPHostKey, ""),
		PrepInterval: interval,
		PrepTimeout:  timeout,
		TempDir:      GetEnv(constants.EnvTempDir, os.TempDir()),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the polling settings. Account fields are checked when a
// command needs them.
func (c *Config) Validate() error {
	if c.PrepInterval <= 0 {
		return fmt.Errorf("%s must be positive", constants.EnvPrepInterval)
	}
	if c.PrepTimeout < c.PrepInterval {
		return fmt.Errorf("%s must be at least %s", constants.EnvPrepTimeout, constants.EnvPrepInterval)
	}
	return nil
}

// LedgerOptions reads the job ledger connection settings from DB_* variables
func LedgerOptions() (db.Options, error) {
	port, err := GetEnvInt(constants.EnvDBPort, db.DefaultPort)
	if err != nil {
		return db.Options{}, err
	}
	sslEnabled := GetEnv(constants.EnvDBSSLMode, "disable") == "require"
	return db.Options{
		Driver:     GetEnv(constants.EnvDBDriver, db.DefaultDriver),
		Path:       GetEnv(constants.EnvDBPath, db.DefaultPath),
		Host:       GetEnv(constants.EnvDBHost, db.DefaultHost),
		User:       GetEnv(constants.EnvDBUser, db.DefaultUser),
		Password:   GetEnv(constants.EnvDBPassword, db.DefaultPassword),
		DBName:     GetEnv(constants.EnvDBName, db.DefaultDBName),
		Port:       port,
		SSLEnabled: &sslEnabled,
	}, nil
}
