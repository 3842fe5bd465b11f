package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/peakinvestigator/internal/db/models"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// jobOutput represents the filtered output for a ledger row
type jobOutput struct {
	JobID      string          `json:"job_id"`
	Server     string          `json:"server"`
	Account    string          `json:"account"`
	Status     types.JobStatus `json:"status"`
	RTO        string          `json:"rto,omitempty"`
	PIVersion  string          `json:"pi_version,omitempty"`
	ActualCost string          `json:"actual_cost,omitempty"`
	Retired    bool            `json:"retired"`
	CreatedAt  time.Time       `json:"created_at"`
}

// jobListOutput represents the filtered output for a list of jobs
type jobListOutput struct {
	Jobs []jobOutput `json:"jobs"`
}

func newJobOutput(j models.Job) jobOutput {
	return jobOutput{
		JobID:      j.JobID,
		Server:     j.Server,
		Account:    j.AccountID,
		Status:     j.Status,
		RTO:        j.RTO,
		PIVersion:  j.PIVersion,
		ActualCost: j.ActualCost,
		Retired:    j.Retired,
		CreatedAt:  j.CreatedAt,
	}
}

func init() {
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(getJobCmd)

	// Add flags
	listJobsCmd.Flags().IntP("limit", "l", 0, "Limit the number of jobs returned")
	listJobsCmd.Flags().String("status", "", "Filter jobs by last reported status (Running, Done)")
	listJobsCmd.Flags().Bool("all", false, "Include jobs already deleted on the service")

	getJobCmd.Flags().StringP(flagJob, "j", "", "Job ID to fetch")
	_ = getJobCmd.MarkFlagRequired(flagJob)
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect the local job ledger",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		all, _ := cmd.Flags().GetBool("all")

		// Create list options
		opts := &models.ListOptions{Limit: limit, IncludeRetired: all}
		if status != "" {
			jobStatus, err := types.ParseJobStatus(status)
			if err != nil {
				return err
			}
			opts.Status = &jobStatus
		}

		ledger, err := getLedger()
		if err != nil {
			return fmt.Errorf("error opening job ledger: %w", err)
		}
		jobs, err := ledger.List(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("error fetching jobs: %w", err)
		}

		output := jobListOutput{Jobs: make([]jobOutput, len(jobs))}
		for i, job := range jobs {
			output.Jobs[i] = newJobOutput(job)
		}
		return printJSON(cmd, output)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one recorded job",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString(flagJob)

		ledger, err := getLedger()
		if err != nil {
			return fmt.Errorf("error opening job ledger: %w", err)
		}
		job, err := ledger.GetByJobID(cmd.Context(), jobID)
		if err != nil {
			return fmt.Errorf("error fetching job: %w", err)
		}
		return printJSON(cmd, newJobOutput(*job))
	},
}

// GetJobsCmd returns the jobs command
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}
