package services

import (
	"context"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/constants"
	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// loadJob rebuilds the job from the experiment metadata written by SUBMIT.
// A job already held by the session keeps its recorded status.
func (s *Session) loadJob(action types.Action, exp *experiment.Experiment) error {
	if exp == nil {
		return &client.ProtocolError{Action: action, Reason: client.ReasonNoJobMetadata}
	}
	jobID := exp.MetaValue(constants.MetaJob)
	server := exp.MetaValue(constants.MetaServer)
	if jobID == "" || server == "" {
		return &client.ProtocolError{Action: action, Reason: client.ReasonNoJobMetadata}
	}
	if s.job != nil && s.job.JobID == jobID && s.job.Server == server {
		return nil
	}

	account := exp.MetaValue(constants.MetaAccount)
	if account == "" {
		account = s.account.ID
	}
	username := exp.MetaValue(constants.MetaUsername)
	if username == "" {
		username = s.account.Username
	}
	s.job = &types.Job{
		JobID:     jobID,
		AccountID: account,
		Server:    server,
		Username:  username,
		Tier:      exp.MetaValue(constants.MetaRTO),
		Version:   exp.MetaValue(constants.MetaPIVersion),
		ScanCount: len(exp.Spectra),
	}
	return nil
}

func (s *Session) check(ctx context.Context, mode types.Mode, exp *experiment.Experiment) (*Result, error) {
	if err := s.loadJob(types.ActionStatus, exp); err != nil {
		s.job = nil
		return nil, s.fail(mode, StepMetadata, err)
	}
	job := s.job

	status, err := s.client.Status(ctx, s.jobAccount(), job.JobID)
	if err != nil {
		return nil, s.fail(mode, StepStatus, err)
	}

	at := status.UpdatedAt
	if at.IsZero() {
		at = s.now()
	}
	if status.Status == types.JobStatusDone {
		err = job.Complete(status.ResultsFile, status.LogFile, status.ActualCost, at)
	} else {
		err = job.SetStatus(status.Status, at)
	}
	if err != nil {
		return nil, s.fail(mode, StepStatus, err)
	}
	s.save(ctx)

	res := &Result{Mode: mode, Outcome: OutcomeRunning, Job: *job}
	if job.Done() {
		res.Outcome = OutcomeDone
		logger.InfoWithFields("job done", map[string]interface{}{
			"job_id":       job.JobID,
			"results_file": job.ResultsFile,
			"actual_cost":  job.ActualCost,
		})
	} else {
		logger.InfoWithFields("job still running", map[string]interface{}{
			"job_id":     job.JobID,
			"updated_at": status.Datetime,
		})
	}
	return res, nil
}

func (s *Session) fetch(ctx context.Context, exp *experiment.Experiment) (*Result, error) {
	const mode = types.ModeFetch

	res, err := s.check(ctx, mode, exp)
	if err != nil {
		return nil, err
	}
	res.Mode = mode
	if !res.Done() {
		return res, nil
	}
	job := s.job

	local := filepath.Join(s.tempDir, uuid.NewString()+"-"+path.Base(job.ResultsFile))
	defer removeLocal(local)
	if step, err := s.withTransfer(ctx, StepDownload, func(c transfer.Client, creds *types.TransferCredentials) error {
		return c.Download(ctx, transfer.RemotePath(creds.Directory, job.AccountID, job.ResultsFile), local)
	}); err != nil {
		return nil, s.fail(mode, step, err)
	}

	spectra, err := s.codec.Load(local)
	if err != nil {
		return nil, s.fail(mode, StepDecode, err)
	}
	mergeResults(exp, spectra, job, s.now())

	ack, err := s.client.Delete(ctx, s.jobAccount(), job.JobID)
	if err != nil {
		return nil, s.fail(mode, StepDelete, err)
	}
	job.Retire()
	s.save(ctx)
	logger.InfoWithFields("results fetched", map[string]interface{}{
		"job_id":  job.JobID,
		"spectra": len(spectra),
	})

	res.Outcome = OutcomeFetched
	res.Job = *job
	res.Ack = ackText(ack)
	return res, nil
}

// mergeResults replaces the peaks of each matching spectrum with the picked
// peaks and stamps the processing provenance
func mergeResults(exp *experiment.Experiment, picked []experiment.Spectrum, job *types.Job, at time.Time) {
	provenance := experiment.DataProcessing{
		Software:       constants.SoftwareName,
		Actions:        []experiment.ProcessingAction{experiment.ProcessingPeakPicking},
		CompletionTime: at,
		Meta: map[string]string{
			constants.MetaServer:    job.Server,
			constants.MetaAccount:   job.AccountID,
			constants.MetaUsername:  job.Username,
			constants.MetaJob:       job.JobID,
			constants.MetaRTO:       job.Tier,
			constants.MetaPIVersion: job.Version,
		},
	}

	merged := make([]experiment.Spectrum, 0, len(picked))
	for _, p := range picked {
		spectrum := p
		if p.Index >= 0 && p.Index < len(exp.Spectra) {
			spectrum = exp.Spectra[p.Index]
			spectrum.Index = p.Index
			spectrum.Peaks = p.Peaks
		}
		spectrum.Type = experiment.SpectrumTypePeaks
		spectrum.DataProcessing = append(append([]experiment.DataProcessing(nil), spectrum.DataProcessing...), provenance)
		merged = append(merged, spectrum)
	}
	exp.Spectra = merged
}
