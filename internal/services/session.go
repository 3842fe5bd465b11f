// Package services drives remote PeakInvestigator jobs on behalf of an account
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/archive"
	"github.com/celestiaorg/peakinvestigator/internal/constants"
	"github.com/celestiaorg/peakinvestigator/internal/experiment"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Command is one of SubmitCommand, CheckCommand, FetchCommand or DeleteCommand
type Command interface {
	Mode() types.Mode
}

// SubmitCommand sends the experiment's profile data for peak picking.
// Bounds overrides the mass range derived from the data.
type SubmitCommand struct {
	Experiment *experiment.Experiment
	Bounds     *types.MassBounds
}

// CheckCommand asks whether the job recorded in the experiment has finished
type CheckCommand struct {
	Experiment *experiment.Experiment
}

// FetchCommand downloads finished results into the experiment and releases the job
type FetchCommand struct {
	Experiment *experiment.Experiment
}

// DeleteCommand releases a job. JobID and Server override the experiment metadata.
type DeleteCommand struct {
	Experiment *experiment.Experiment
	JobID      string
	Server     string
}

// Mode implements Command
func (SubmitCommand) Mode() types.Mode { return types.ModeSubmit }

// Mode implements Command
func (CheckCommand) Mode() types.Mode { return types.ModeCheck }

// Mode implements Command
func (FetchCommand) Mode() types.Mode { return types.ModeFetch }

// Mode implements Command
func (DeleteCommand) Mode() types.Mode { return types.ModeDelete }

// Outcome summarizes how a session run ended
type Outcome string

// Session outcomes
const (
	OutcomeSubmitted Outcome = "submitted"
	// OutcomeSubmittedButUnconfirmed means RUN was accepted but PREP never
	// confirmed the upload. The job may still complete remotely.
	OutcomeSubmittedButUnconfirmed Outcome = "submitted_unconfirmed"
	OutcomeRunning                 Outcome = "running"
	OutcomeDone                    Outcome = "done"
	OutcomeFetched                 Outcome = "fetched"
	OutcomeDeleted                 Outcome = "deleted"
)

// Result reports what a session run achieved
type Result struct {
	Mode     types.Mode
	Outcome  Outcome
	Job      types.Job
	Prep     *types.PrepOutcome
	Ack      string
	Warnings []string
}

// Done reports whether the job has finished on the service
func (r *Result) Done() bool {
	return r.Outcome == OutcomeDone || r.Outcome == OutcomeFetched
}

// JobStore records jobs the session touches
type JobStore interface {
	Save(ctx context.Context, job *types.Job) error
}

// SessionOptions wires a Session's collaborators
type SessionOptions struct {
	Account  types.Account
	Client   client.Client
	Dialer   transfer.Dialer
	Codec    archive.Codec
	Selector TierSelector
	// Store is optional
	Store JobStore
	// TempDir stages archives; defaults to os.TempDir()
	TempDir      string
	PrepInterval time.Duration
	PrepTimeout  time.Duration
}

// Session runs one command at a time against the service. It owns the Job
// it creates or loads; transfer credentials live only for a single run.
type Session struct {
	account    types.Account
	client     client.Client
	negotiator *CredentialNegotiator
	poller     *PrepPoller
	dialer     transfer.Dialer
	codec      archive.Codec
	selector   TierSelector
	store      JobStore
	tempDir    string
	now        func() time.Time

	job *types.Job
}

// NewSession validates the options and builds a session
func NewSession(opts SessionOptions) (*Session, error) {
	if err := opts.Account.Validate(); err != nil {
		return nil, err
	}
	if opts.Client == nil {
		return nil, errors.New("client is required")
	}
	if opts.Dialer == nil {
		return nil, errors.New("transfer dialer is required")
	}
	if opts.Codec == nil {
		opts.Codec = archive.NewTarCodec()
	}
	if opts.Selector == nil {
		opts.Selector = ConfiguredSelector{Tier: constants.DefaultRTO, Version: constants.DefaultPIVersion}
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.PrepInterval <= 0 {
		opts.PrepInterval = constants.DefaultPrepInterval
	}
	if opts.PrepTimeout <= 0 {
		opts.PrepTimeout = constants.DefaultPrepTimeout
	}

	return &Session{
		account:    opts.Account,
		client:     opts.Client,
		negotiator: NewCredentialNegotiator(opts.Client),
		poller:     NewPrepPoller(opts.Client, opts.PrepInterval, opts.PrepTimeout),
		dialer:     opts.Dialer,
		codec:      opts.Codec,
		selector:   opts.Selector,
		store:      opts.Store,
		tempDir:    opts.TempDir,
		now:        time.Now,
	}, nil
}

// Job returns a copy of the job the session last worked on
func (s *Session) Job() (types.Job, bool) {
	if s.job == nil {
		return types.Job{}, false
	}
	return *s.job, true
}

// Run executes a single command. The first failing step aborts the run and
// is returned as a *SessionError.
func (s *Session) Run(ctx context.Context, cmd Command) (*Result, error) {
	switch c := cmd.(type) {
	case SubmitCommand:
		return s.submit(ctx, c)
	case *SubmitCommand:
		return s.submit(ctx, *c)
	case CheckCommand:
		return s.check(ctx, types.ModeCheck, c.Experiment)
	case *CheckCommand:
		return s.check(ctx, types.ModeCheck, c.Experiment)
	case FetchCommand:
		return s.fetch(ctx, c.Experiment)
	case *FetchCommand:
		return s.fetch(ctx, c.Experiment)
	case DeleteCommand:
		return s.remove(ctx, c)
	case *DeleteCommand:
		return s.remove(ctx, *c)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
}

// fail logs the failing step and wraps err
func (s *Session) fail(mode types.Mode, step string, err error) error {
	jobID := ""
	if s.job != nil {
		jobID = s.job.JobID
	}
	logger.ErrorWithFields("session step failed", map[string]interface{}{
		"mode":   mode,
		"step":   step,
		"job_id": jobID,
		"error":  err.Error(),
	})
	return &SessionError{Mode: mode, Step: step, JobID: jobID, Err: err}
}

// save writes the job to the ledger. Ledger failures are logged, never fatal.
func (s *Session) save(ctx context.Context) {
	if s.store == nil || s.job == nil {
		return
	}
	if err := s.store.Save(ctx, s.job); err != nil {
		logger.Warnf("Failed to record job %s in the ledger: %v", s.job.JobID, err)
	}
}

// jobAccount returns the account aimed at the job's server
func (s *Session) jobAccount() types.Account {
	if s.job == nil {
		return s.account
	}
	return s.account.WithServer(s.job.Server)
}

// withTransfer negotiates fresh credentials, dials and runs fn on the
// connection. It returns the step that failed.
func (s *Session) withTransfer(ctx context.Context, step string, fn func(c transfer.Client, creds *types.TransferCredentials) error) (string, error) {
	creds, err := s.negotiator.Negotiate(ctx, s.jobAccount())
	if err != nil {
		return StepCredentials, err
	}
	conn, err := s.dialer.Dial(ctx, *creds)
	if err != nil {
		return step, err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Warnf("Failed to close transfer connection: %v", cerr)
		}
	}()
	if err := fn(conn, creds); err != nil {
		return step, err
	}
	return "", nil
}

func removeLocal(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to remove %s: %v", path, err)
	}
}

// ackText is the raw acknowledgement of a reply, empty when there is none
func ackText(resp *client.Response) string {
	if resp == nil {
		return ""
	}
	return string(resp.Raw)
}

// stampJob records the job in the experiment so later runs can find it
func stampJob(exp *experiment.Experiment, job *types.Job) {
	exp.SetMetaValue(constants.MetaServer, job.Server)
	exp.SetMetaValue(constants.MetaUsername, job.Username)
	exp.SetMetaValue(constants.MetaAccount, job.AccountID)
	exp.SetMetaValue(constants.MetaJob, job.JobID)
	exp.SetMetaValue(constants.MetaRTO, job.Tier)
	exp.SetMetaValue(constants.MetaPIVersion, job.Version)
}
