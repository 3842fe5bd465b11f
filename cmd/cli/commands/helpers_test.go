package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client/mock"
	"github.com/celestiaorg/peakinvestigator/internal/constants"
	"github.com/celestiaorg/peakinvestigator/internal/db"
	"github.com/celestiaorg/peakinvestigator/internal/db/repos"
	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	transfermock "github.com/celestiaorg/peakinvestigator/internal/transfer/mock"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

type testEnv struct {
	t      *testing.T
	dir    string
	client *mock.MockClient
	dialer *transfermock.Dialer
	ledger *repos.JobRepository
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// setupTestEnv points the commands at mocks and a throwaway ledger
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(constants.EnvServer, "pi.example.com")
	t.Setenv(constants.EnvUsername, "alice")
	t.Setenv(constants.EnvPassword, "s3cret")
	t.Setenv(constants.EnvAccount, "42")
	t.Setenv(constants.EnvTempDir, dir)
	t.Setenv(constants.EnvDBDriver, db.DriverSQLite)
	t.Setenv(constants.EnvDBPath, filepath.Join(dir, "ledger.db"))

	conn, err := db.New(db.Options{Driver: db.DriverSQLite, Path: filepath.Join(dir, "ledger.db"), LogLevel: logger.Silent})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)

	env := &testEnv{
		t:   t,
		dir: dir,
		client: &mock.MockClient{
			CallFn: func(_ context.Context, _ types.Account, action types.Action, _ url.Values) (*client.Response, error) {
				return &client.Response{Action: action, Fields: map[string]interface{}{
					"Host": "sftp.example.com", "Port": "22", "Directory": "/files", "Login": "V42", "Password": "transient",
				}}, nil
			},
		},
		dialer: transfermock.NewDialer(),
		ledger: repos.NewJobRepository(conn),
	}

	origClient, origDialer, origLedger := clientInstance, dialerInstance, ledgerInstance
	clientInstance, dialerInstance, ledgerInstance = env.client, env.dialer, env.ledger
	t.Cleanup(func() {
		clientInstance, dialerInstance, ledgerInstance = origClient, origDialer, origLedger
		resetFlags(RootCmd)
		_ = sqlDB.Close()
	})
	resetFlags(RootCmd)
	return env
}

// run executes the root command with args and returns stdout
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	out := &bytes.Buffer{}
	RootCmd.SetOut(out)
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs(args)
	err := RootCmd.ExecuteContext(context.Background())
	resetFlags(RootCmd)
	return out.String(), err
}

func (e *testEnv) writeExperiment(name string, exp *experiment.Experiment) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, experiment.SaveFile(path, exp))
	return path
}

func (e *testEnv) readExperiment(path string) *experiment.Experiment {
	e.t.Helper()
	exp, err := experiment.LoadFile(path)
	require.NoError(e.t, err)
	return exp
}

func decodeOutput(t *testing.T, out string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(out), v))
}

func profileExperiment() *experiment.Experiment {
	return &experiment.Experiment{Spectra: []experiment.Spectrum{
		{Index: 0, Type: experiment.SpectrumTypeProfile, Peaks: []experiment.Peak{{MZ: 100, Intensity: 1}, {MZ: 150, Intensity: 2}}},
		{Index: 1, Type: experiment.SpectrumTypeProfile, Peaks: []experiment.Peak{{MZ: 120, Intensity: 3}, {MZ: 900, Intensity: 4}}},
	}}
}

func submitted() *experiment.Experiment {
	exp := profileExperiment()
	exp.ClearPeaks()
	exp.SetMetaValue(constants.MetaServer, "pi.example.com")
	exp.SetMetaValue(constants.MetaJob, "J123")
	exp.SetMetaValue(constants.MetaAccount, "42")
	return exp
}
