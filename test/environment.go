package test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/db"
	"github.com/celestiaorg/peakinvestigator/internal/db/repos"
	"github.com/celestiaorg/peakinvestigator/internal/services"
	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// testClientTimeout is the timeout for test API client requests
const testClientTimeout = 5 * time.Second

// TestEnvironment encapsulates all components needed for integration testing.
// It provides a complete test setup with:
//   - Fake control plane behind a real HTTP server
//   - Real SFTP drop on a loopback port
//   - Real API client and SFTP dialer
//   - File-backed sqlite job ledger
type TestEnvironment struct {
	t *testing.T // The testing.T instance for this environment

	// Remote components
	Service     *FakeService
	Server      *httptest.Server
	Drop        types.TransferCredentials
	Fingerprint string

	// Client components
	Account   types.Account
	APIClient client.Client
	Dialer    *transfer.SFTPDialer

	// Database components
	DB      *gorm.DB
	JobRepo *repos.JobRepository

	// TempDir stages archives for sessions
	TempDir string

	prepTimeout time.Duration

	// Context management
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Cleanup function
	cleanup func()
}

// NewTestEnvironment creates a new test environment with the given options.
// The environment must be cleaned up after use by calling Cleanup.
func NewTestEnvironment(t *testing.T, opts ...Option) *TestEnvironment {
	t.Helper()

	// Create environment with default timeout
	ctx, cancel := context.WithTimeout(context.Background(), DefaultTestTimeout)

	env := &TestEnvironment{
		t:           t,
		ctx:         ctx,
		cancelFunc:  cancel,
		TempDir:     t.TempDir(),
		prepTimeout: time.Second,
	}

	// Initialize cleanup function
	env.cleanup = func() {
		if env.Server != nil {
			env.Server.Close()
		}
		if env.cancelFunc != nil {
			env.cancelFunc()
		}
		// Close database if it exists
		if env.DB != nil {
			sqlDB, err := env.DB.DB()
			if err == nil && sqlDB != nil {
				_ = sqlDB.Close()
			}
		}
	}

	env.Drop, env.Fingerprint = StartSFTPServer(t, "pi-drop", "drop-secret")
	env.setupServer()
	env.setupDB()

	// Apply additional options
	for _, opt := range opts {
		opt(env)
	}

	return env
}

func (e *TestEnvironment) setupServer() {
	e.Account = types.Account{Username: "alice", Secret: "s3cret", ID: "42"}
	e.Service = NewFakeService(e.Account, e.Drop)

	// Create test server using adaptor to convert Fiber app to http.Handler
	e.Server = httptest.NewServer(adaptor.FiberApp(e.Service.App()))
	e.Account.Server = e.Server.URL

	apiClient, err := client.NewClient(&client.ClientOptions{Timeout: testClientTimeout})
	require.NoError(e.t, err, "Failed to create API client")
	e.APIClient = apiClient
	e.Dialer = transfer.NewSFTPDialer(e.Fingerprint)
}

func (e *TestEnvironment) setupDB() {
	conn, err := db.New(db.Options{
		Driver:   db.DriverSQLite,
		Path:     filepath.Join(e.t.TempDir(), "ledger.db"),
		LogLevel: gormlogger.Silent,
	})
	require.NoError(e.t, err, "Failed to open job ledger")
	e.DB = conn
	e.JobRepo = repos.NewJobRepository(conn)
}

// NewSession builds a session wired to the environment's real components.
// Each call returns an independent session, as separate CLI runs would.
func (e *TestEnvironment) NewSession() *services.Session {
	e.t.Helper()
	session, err := services.NewSession(services.SessionOptions{
		Account:      e.Account,
		Client:       e.APIClient,
		Dialer:       e.Dialer,
		Selector:     services.ConfiguredSelector{Tier: "RTO-24", Version: "1.0.1"},
		Store:        e.JobRepo,
		TempDir:      e.TempDir,
		PrepInterval: DefaultPrepInterval,
		PrepTimeout:  e.prepTimeout,
	})
	require.NoError(e.t, err, "Failed to create session")
	return session
}

// Context returns the environment's context, which is automatically
// canceled when the environment is cleaned up.
func (e *TestEnvironment) Context() context.Context {
	return e.ctx
}

// Cleanup tears down the test environment, releasing all resources.
// This should be deferred immediately after creating the environment.
func (e *TestEnvironment) Cleanup() {
	if e.cleanup != nil {
		e.cleanup()
	}
}

// Require returns a require.Assertions instance for this environment.
// This is a convenience method to avoid passing t around.
func (e *TestEnvironment) Require() *require.Assertions {
	return require.New(e.t)
}

// T returns the testing.T instance for this environment.
func (e *TestEnvironment) T() *testing.T {
	return e.t
}
