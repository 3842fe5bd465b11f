package commands

import (
	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/services"
)

func init() {
	checkCmd.Flags().StringP(flagInput, "i", "", "Experiment file written by submit")
	_ = checkCmd.MarkFlagRequired(flagInput)

	fetchCmd.Flags().StringP(flagInput, "i", "", "Experiment file written by submit")
	fetchCmd.Flags().StringP(flagOutput, "o", "", "Where to write the picked experiment (default: overwrite input)")
	_ = fetchCmd.MarkFlagRequired(flagInput)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a submitted job has finished",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString(flagInput)
		exp, err := experiment.LoadFile(input)
		if err != nil {
			return err
		}

		session, err := newSession(cmd)
		if err != nil {
			return err
		}
		res, err := session.Run(cmd.Context(), services.CheckCommand{Experiment: exp})
		if err != nil {
			return err
		}
		return printJSON(cmd, newResultOutput(res))
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download picked peaks of a finished job and release it",
	Long: `Fetch checks the job first. A job that is still running is left alone;
a finished job's results replace the experiment's spectra and the job is
deleted on the service.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString(flagInput)
		output := outputPath(cmd, input)
		exp, err := experiment.LoadFile(input)
		if err != nil {
			return err
		}

		session, err := newSession(cmd)
		if err != nil {
			return err
		}
		res, err := session.Run(cmd.Context(), services.FetchCommand{Experiment: exp})
		if err != nil {
			return err
		}
		if res.Outcome == services.OutcomeFetched {
			if err := experiment.SaveFile(output, exp); err != nil {
				return err
			}
		}
		return printJSON(cmd, newResultOutput(res))
	},
}

// GetCheckCmd returns the check command
func GetCheckCmd() *cobra.Command {
	return checkCmd
}

// GetFetchCmd returns the fetch command
func GetFetchCmd() *cobra.Command {
	return fetchCmd
}
