package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/services"
)

func init() {
	deleteCmd.Flags().StringP(flagInput, "i", "", "Experiment file written by submit")
	deleteCmd.Flags().StringP(flagJob, "j", "", "Job id to delete")
	deleteCmd.MarkFlagsOneRequired(flagInput, flagJob)
	deleteCmd.MarkFlagsMutuallyExclusive(flagInput, flagJob)
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a job on the service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		input, _ := cmd.Flags().GetString(flagInput)
		jobID, _ := cmd.Flags().GetString(flagJob)

		del := services.DeleteCommand{JobID: jobID}
		if jobID != "" {
			del.Server = cfg.Account.Server
		} else {
			exp, err := experiment.LoadFile(input)
			if err != nil {
				return err
			}
			del.Experiment = exp
			if cmd.Flags().Changed(flagServer) {
				del.Server = cfg.Account.Server
			}
		}

		session, err := newSession(cmd)
		if err != nil {
			return err
		}
		res, err := session.Run(cmd.Context(), del)
		if err != nil {
			return fmt.Errorf("error deleting job: %w", err)
		}
		return printJSON(cmd, newResultOutput(res))
	},
}

// GetDeleteCmd returns the delete command
func GetDeleteCmd() *cobra.Command {
	return deleteCmd
}
