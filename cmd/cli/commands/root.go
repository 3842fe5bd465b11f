package commands

import (
	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/config"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
)

// flag names
const (
	flagServer    = "server"
	flagUsername  = "username"
	flagAccount   = "account"
	flagRTO       = "rto"
	flagPIVersion = "pi-version"
	flagHostKey   = "host-key"
	flagNoLedger  = "no-ledger"
	flagLogLevel  = "log-level"

	flagInput   = "input"
	flagOutput  = "output"
	flagMinMass = "min-mass"
	flagMaxMass = "max-mass"
	flagJob     = "job"
)

// cfg is the effective configuration, resolved before every command runs
var cfg *config.Config

func init() {
	RootCmd.PersistentFlags().StringP(flagServer, "s", "", "PeakInvestigator server address (env: PI_SERVER)")
	RootCmd.PersistentFlags().StringP(flagUsername, "u", "", "Account login (env: PI_USERNAME)")
	RootCmd.PersistentFlags().StringP(flagAccount, "a", "", "Account number (env: PI_ACCOUNT)")
	RootCmd.PersistentFlags().String(flagRTO, "", "Response time objective for new jobs (env: PI_RTO)")
	RootCmd.PersistentFlags().String(flagPIVersion, "", "PeakInvestigator version for new jobs (env: PI_VERSION)")
	RootCmd.PersistentFlags().String(flagHostKey, "", "Expected SFTP host key SHA256 fingerprint (env: PI_SFTP_HOST_KEY)")
	RootCmd.PersistentFlags().Bool(flagNoLedger, false, "Do not record jobs in the local ledger")
	RootCmd.PersistentFlags().String(flagLogLevel, "", "Log level (env: LOG_LEVEL)")

	RootCmd.AddCommand(GetSubmitCmd())
	RootCmd.AddCommand(GetCheckCmd())
	RootCmd.AddCommand(GetFetchCmd())
	RootCmd.AddCommand(GetDeleteCmd())
	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetConfigCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "peakinvestigator",
	Short: "PeakInvestigator CLI - outsource peak picking of mass spectra",
	Long: `PeakInvestigator CLI submits profile mass spectra to the PeakInvestigator
service, checks on running jobs and fetches the picked peaks back into the
experiment file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if level, _ := cmd.Flags().GetString(flagLogLevel); level != "" {
			logger.SetLevel(level)
		}
		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
}

// loadConfig resolves the configuration with precedence flag > env > default
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	c, err := config.Load()
	if err != nil {
		return nil, err
	}

	override := func(name string, dst *string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	override(flagServer, &c.Account.Server)
	override(flagUsername, &c.Account.Username)
	override(flagAccount, &c.Account.ID)
	override(flagRTO, &c.RTO)
	override(flagPIVersion, &c.PIVersion)
	override(flagHostKey, &c.HostKey)
	return c, nil
}
