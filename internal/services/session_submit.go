package services

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/constants"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func (s *Session) submit(ctx context.Context, cmd SubmitCommand) (*Result, error) {
	const mode = types.ModeSubmit
	exp := cmd.Experiment
	s.job = nil

	if err := exp.Validate(); err != nil {
		return nil, s.fail(mode, StepValidate, err)
	}
	var bounds types.MassBounds
	if cmd.Bounds != nil {
		bounds = *cmd.Bounds
		if err := bounds.Validate(); err != nil {
			return nil, s.fail(mode, StepValidate, err)
		}
	} else {
		b, err := exp.MassBounds()
		if err != nil {
			return nil, s.fail(mode, StepValidate, err)
		}
		bounds = b
	}

	opened, err := s.client.Init(ctx, s.account, client.InitRequest{
		ScanCount: len(exp.Spectra),
		Bounds:    bounds,
	})
	if err != nil {
		return nil, s.fail(mode, StepInit, err)
	}
	s.job = &types.Job{
		JobID:     opened.JobID,
		AccountID: s.account.ID,
		Server:    s.account.Server,
		Username:  s.account.Username,
		Funds:     opened.Funds,
		Bounds:    bounds,
		ScanCount: len(exp.Spectra),
	}
	job := s.job
	logger.InfoWithFields("job initialized", map[string]interface{}{
		"job_id":     job.JobID,
		"funds":      job.Funds,
		"scan_count": job.ScanCount,
		"min_mass":   bounds.Min,
		"max_mass":   bounds.Max,
	})
	s.save(ctx)

	// A previous submission's choices win over the configured selector
	selector := s.selector
	if rto, version := exp.MetaValue(constants.MetaRTO), exp.MetaValue(constants.MetaPIVersion); rto != "" && version != "" {
		selector = ConfiguredSelector{Tier: rto, Version: version}
	}
	if job.Tier, job.Version, err = selector.Choose(opened.Tiers, opened.Versions, opened.Funds); err != nil {
		return nil, s.fail(mode, StepSelect, err)
	}

	local := filepath.Join(s.tempDir, job.InputFile())
	defer removeLocal(local)
	if err := s.codec.Store(local, exp); err != nil {
		return nil, s.fail(mode, StepArchive, err)
	}
	exp.ClearPeaks()

	if step, err := s.withTransfer(ctx, StepUpload, func(c transfer.Client, creds *types.TransferCredentials) error {
		return c.Upload(ctx, local, transfer.RemotePath(creds.Directory, job.InputFile()))
	}); err != nil {
		return nil, s.fail(mode, step, err)
	}

	if _, err := s.client.Run(ctx, s.account, client.RunRequest{
		JobID:     job.JobID,
		InputFile: job.InputFile(),
		Tier:      job.Tier,
		Version:   job.Version,
	}); err != nil {
		return nil, s.fail(mode, StepRun, err)
	}
	stampJob(exp, job)
	s.save(ctx)
	logger.InfoWithFields("job submitted", map[string]interface{}{
		"job_id":     job.JobID,
		"rto":        job.Tier,
		"pi_version": job.Version,
	})

	prep, err := s.poller.WaitForPrep(ctx, s.account, job.InputFile(), job.ScanCount)
	if err != nil {
		var timeout *TimeoutError
		if errors.As(err, &timeout) {
			logger.Warnf("Job %s was submitted but PREP did not confirm the upload; check it again later", job.JobID)
		}
		res := &Result{Mode: mode, Outcome: OutcomeSubmittedButUnconfirmed, Job: *job}
		return res, s.fail(mode, StepPrep, err)
	}

	return &Result{
		Mode:     mode,
		Outcome:  OutcomeSubmitted,
		Job:      *job,
		Prep:     prep,
		Warnings: prep.Warnings,
	}, nil
}
