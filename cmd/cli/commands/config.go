package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/config"
	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/db"
	"github.com/celestiaorg/peakinvestigator/internal/db/models"
	"github.com/celestiaorg/peakinvestigator/internal/db/repos"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/services"
	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// jobLedger is the part of the job repository the commands use
type jobLedger interface {
	services.JobStore
	GetByJobID(ctx context.Context, jobID string) (*models.Job, error)
	List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error)
}

var (
	// clientInstance is a singleton instance of the API client
	clientInstance client.Client
	// dialerInstance opens transfer connections; nil means SFTP
	dialerInstance transfer.Dialer
	// ledgerInstance records jobs; opened lazily from DB_* settings
	ledgerInstance jobLedger
)

// getAPIClient returns the API client instance, creating it if necessary
func getAPIClient() (client.Client, error) {
	if clientInstance != nil {
		return clientInstance, nil
	}
	c, err := client.NewClient(client.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("error creating API client: %w", err)
	}
	clientInstance = c
	return clientInstance, nil
}

func getDialer() transfer.Dialer {
	if dialerInstance != nil {
		return dialerInstance
	}
	return transfer.NewSFTPDialer(cfg.HostKey)
}

// getLedger opens the job ledger on first use
func getLedger() (jobLedger, error) {
	if ledgerInstance != nil {
		return ledgerInstance, nil
	}
	opts, err := config.LedgerOptions()
	if err != nil {
		return nil, err
	}
	conn, err := db.New(opts)
	if err != nil {
		return nil, err
	}
	ledgerInstance = repos.NewJobRepository(conn)
	return ledgerInstance, nil
}

// newSession assembles a session from the resolved configuration
func newSession(cmd *cobra.Command) (*services.Session, error) {
	apiClient, err := getAPIClient()
	if err != nil {
		return nil, err
	}

	opts := services.SessionOptions{
		Account:      cfg.Account,
		Client:       apiClient,
		Dialer:       getDialer(),
		Selector:     services.ConfiguredSelector{Tier: cfg.RTO, Version: cfg.PIVersion},
		TempDir:      cfg.TempDir,
		PrepInterval: cfg.PrepInterval,
		PrepTimeout:  cfg.PrepTimeout,
	}
	if noLedger, _ := cmd.Flags().GetBool(flagNoLedger); !noLedger {
		ledger, err := getLedger()
		if err != nil {
			// The ledger is bookkeeping only
			logger.Warnf("Job ledger unavailable, continuing without it: %v", err)
		} else {
			opts.Store = ledger
		}
	}
	return services.NewSession(opts)
}

// configOutput is the effective configuration with the secret redacted
type configOutput struct {
	Server       string `json:"server"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	Account      string `json:"account"`
	RTO          string `json:"rto"`
	PIVersion    string `json:"pi_version"`
	HostKey      string `json:"sftp_host_key,omitempty"`
	PrepInterval string `json:"prep_interval"`
	PrepTimeout  string `json:"prep_timeout"`
	TempDir      string `json:"temp_dir"`
	LedgerDriver string `json:"ledger_driver"`
	Endpoint     string `json:"endpoint"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ledger, err := config.LedgerOptions()
		if err != nil {
			return err
		}
		out := configOutput{
			Server:       cfg.Account.Server,
			Username:     cfg.Account.Username,
			Password:     logger.Redact(cfg.Account.Secret),
			Account:      cfg.Account.ID,
			RTO:          cfg.RTO,
			PIVersion:    cfg.PIVersion,
			HostKey:      cfg.HostKey,
			PrepInterval: cfg.PrepInterval.String(),
			PrepTimeout:  cfg.PrepTimeout.String(),
			TempDir:      cfg.TempDir,
			LedgerDriver: ledger.Driver,
			Endpoint:     client.EndpointURL(cfg.Account.Server),
		}
		return printJSON(cmd, out)
	},
}

// GetConfigCmd returns the config command
func GetConfigCmd() *cobra.Command {
	return configCmd
}

// printJSON pretty prints v to the command's output
func printJSON(cmd *cobra.Command, v interface{}) error {
	prettyJSON, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("error formatting response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(prettyJSON))
	return err
}

// resultOutput represents the filtered output of a session run
type resultOutput struct {
	Mode        types.Mode      `json:"mode"`
	Outcome     string          `json:"outcome"`
	JobID       string          `json:"job_id"`
	Server      string          `json:"server"`
	Status      types.JobStatus `json:"status,omitempty"`
	RTO         string          `json:"rto,omitempty"`
	PIVersion   string          `json:"pi_version,omitempty"`
	Funds       string          `json:"funds,omitempty"`
	ActualCost  string          `json:"actual_cost,omitempty"`
	ResultsFile string          `json:"results_file,omitempty"`
	ScanCount   int             `json:"scan_count,omitempty"`
	Ack         json.RawMessage `json:"ack,omitempty"`
	Warnings    []string        `json:"warnings,omitempty"`
}

func newResultOutput(res *services.Result) resultOutput {
	out := resultOutput{
		Mode:        res.Mode,
		Outcome:     string(res.Outcome),
		JobID:       res.Job.JobID,
		Server:      res.Job.Server,
		Status:      res.Job.Status,
		RTO:         res.Job.Tier,
		PIVersion:   res.Job.Version,
		Funds:       res.Job.Funds,
		ActualCost:  res.Job.ActualCost,
		ResultsFile: res.Job.ResultsFile,
		Warnings:    res.Warnings,
	}
	if res.Prep != nil {
		out.ScanCount = res.Prep.ScanCount
	}
	if res.Ack != "" && json.Valid([]byte(res.Ack)) {
		out.Ack = json.RawMessage(res.Ack)
	}
	return out
}
