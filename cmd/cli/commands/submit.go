package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/services"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func init() {
	submitCmd.Flags().StringP(flagInput, "i", "", "Experiment file (JSON) holding profile spectra")
	submitCmd.Flags().StringP(flagOutput, "o", "", "Where to write the submitted experiment (default: overwrite input)")
	submitCmd.Flags().Float64(flagMinMass, 0, "Lower m/z bound (default: derived from the data)")
	submitCmd.Flags().Float64(flagMaxMass, 0, "Upper m/z bound (default: derived from the data)")
	_ = submitCmd.MarkFlagRequired(flagInput)
	submitCmd.MarkFlagsRequiredTogether(flagMinMass, flagMaxMass)
}

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit profile spectra for peak picking",
	Long: `Submit uploads the experiment's spectra and starts a PeakInvestigator job.
The experiment is written back without its bulk data and with the job recorded
in its metadata, ready for check and fetch.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString(flagInput)
		output := outputPath(cmd, input)

		exp, err := experiment.LoadFile(input)
		if err != nil {
			return err
		}

		submit := services.SubmitCommand{Experiment: exp}
		if cmd.Flags().Changed(flagMinMass) {
			minMass, _ := cmd.Flags().GetFloat64(flagMinMass)
			maxMass, _ := cmd.Flags().GetFloat64(flagMaxMass)
			submit.Bounds = &types.MassBounds{Min: minMass, Max: maxMass}
		}

		session, err := newSession(cmd)
		if err != nil {
			return err
		}
		res, runErr := session.Run(cmd.Context(), submit)
		if res == nil {
			return runErr
		}

		// The job exists remotely even when PREP did not confirm it
		if err := experiment.SaveFile(output, exp); err != nil {
			return fmt.Errorf("job %s submitted but the experiment could not be saved: %w", res.Job.JobID, err)
		}
		if err := printJSON(cmd, newResultOutput(res)); err != nil {
			return err
		}
		return runErr
	},
}

// GetSubmitCmd returns the submit command
func GetSubmitCmd() *cobra.Command {
	return submitCmd
}

func outputPath(cmd *cobra.Command, input string) string {
	if output, _ := cmd.Flags().GetString(flagOutput); output != "" {
		return output
	}
	return input
}
