package services

import (
	"context"

	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func (s *Session) remove(ctx context.Context, cmd DeleteCommand) (*Result, error) {
	const mode = types.ModeDelete

	switch {
	case cmd.JobID != "":
		server := cmd.Server
		if server == "" {
			server = s.account.Server
		}
		if s.job == nil || s.job.JobID != cmd.JobID || s.job.Server != server {
			s.job = &types.Job{
				JobID:     cmd.JobID,
				AccountID: s.account.ID,
				Server:    server,
				Username:  s.account.Username,
			}
		}
	default:
		exp := cmd.Experiment
		if exp == nil {
			exp = &experiment.Experiment{}
		}
		if err := s.loadJob(types.ActionDelete, exp); err != nil {
			s.job = nil
			return nil, s.fail(mode, StepMetadata, err)
		}
		if cmd.Server != "" {
			s.job.Server = cmd.Server
		}
	}
	job := s.job

	ack, err := s.client.Delete(ctx, s.jobAccount(), job.JobID)
	if err != nil {
		return nil, s.fail(mode, StepDelete, err)
	}
	job.Retire()
	s.save(ctx)
	logger.InfoWithFields("job deleted", map[string]interface{}{
		"job_id": job.JobID,
		"server": job.Server,
	})

	return &Result{Mode: mode, Outcome: OutcomeDeleted, Job: *job, Ack: ackText(ack)}, nil
}
