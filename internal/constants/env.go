// Package constants provides centralized definitions of constants used throughout the application
package constants

import "time"

// Environment variable names
const (
	// EnvServer is the PeakInvestigator server address, without scheme
	EnvServer = "PI_SERVER"
	// EnvUsername is the account login
	EnvUsername = "PI_USERNAME"
	// EnvPassword is the account password sent as the Code field
	EnvPassword = "PI_PASSWORD"
	// EnvAccount is the numeric account identifier
	EnvAccount = "PI_ACCOUNT"
	// EnvRTO is the response time objective used for unattended submissions
	EnvRTO = "PI_RTO"
	// EnvPIVersion is the PeakInvestigator version used for unattended submissions
	EnvPIVersion = "PI_VERSION"
	// EnvSFTPHostKey pins the SFTP server host key (SHA256 fingerprint)
	EnvSFTPHostKey = "PI_SFTP_HOST_KEY"
	// EnvPrepInterval is the wait between PREP polls
	EnvPrepInterval = "PI_PREP_INTERVAL"
	// EnvPrepTimeout is the total PREP polling budget
	EnvPrepTimeout = "PI_PREP_TIMEOUT"
	// EnvTempDir is where archives are staged
	EnvTempDir = "PI_TEMP_DIR"

	// EnvDBDriver selects the ledger driver: sqlite or postgres
	EnvDBDriver = "DB_DRIVER"
	// EnvDBPath is the sqlite ledger file
	EnvDBPath = "DB_PATH"
	// EnvDBHost is the postgres host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the postgres port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the postgres user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the postgres password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the postgres database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLMode is the postgres sslmode; "require" enables TLS
	EnvDBSSLMode = "DB_SSL_MODE"
)

// Defaults
const (
	DefaultServer    = "peakinvestigator.veritomyx.com"
	DefaultRTO       = "RTO-24"
	DefaultPIVersion = "1.0.1"
	DefaultAccount   = "0"

	DefaultPrepInterval = 2 * time.Minute
	DefaultPrepTimeout  = 20 * time.Minute
)

// Experiment metadata keys written on SUBMIT and read back by CHECK/FETCH
const (
	MetaServer    = "veritomyx:server"
	MetaUsername  = "veritomyx:username"
	MetaAccount   = "veritomyx:account"
	MetaJob       = "veritomyx:job"
	MetaRTO       = "veritomyx:RTO"
	MetaPIVersion = "veritomyx:PIVersion"
)

// SoftwareName is recorded in the processing provenance of fetched spectra
const SoftwareName = "PeakInvestigator"
