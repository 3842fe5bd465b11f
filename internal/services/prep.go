package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// PrepPoller waits for server-side validation of an uploaded archive
type PrepPoller struct {
	client   client.Client
	interval time.Duration
	timeout  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewPrepPoller creates a poller that re-polls every interval until timeout
func NewPrepPoller(c client.Client, interval, timeout time.Duration) *PrepPoller {
	return &PrepPoller{
		client:   c,
		interval: interval,
		timeout:  timeout,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WaitForPrep polls PREP until the file is Ready, fails, or the budget is
// spent. It issues at most ceil(timeout/interval) polls and never sleeps
// after a Ready reply.
func (p *PrepPoller) WaitForPrep(ctx context.Context, acct types.Account, remoteFile string, expectedScans int) (*types.PrepOutcome, error) {
	if p.interval <= 0 {
		return nil, errors.New("prep check interval must be positive")
	}

	remaining := p.timeout
	for polls := 1; ; polls++ {
		resp, err := p.client.Prep(ctx, acct, remoteFile)
		if err != nil {
			return nil, err
		}

		switch resp.Status {
		case types.PrepReady:
			outcome := &types.PrepOutcome{
				Status:    types.PrepReady,
				ScanCount: resp.ScanCount,
				MSType:    resp.MSType,
				Polls:     polls,
			}
			if resp.ScanCount != expectedScans {
				msg := fmt.Sprintf("PREP reported %d scans but %d were submitted", resp.ScanCount, expectedScans)
				logger.Warn(msg)
				outcome.Warnings = append(outcome.Warnings, msg)
			}
			logger.InfoWithFields("PREP analysis complete", map[string]interface{}{
				"file":       remoteFile,
				"scan_count": resp.ScanCount,
				"ms_type":    resp.MSType,
			})
			return outcome, nil

		case types.PrepAnalyzing:
			remaining -= p.interval
			if remaining <= 0 {
				return nil, &TimeoutError{File: remoteFile, Timeout: p.timeout, Polls: polls}
			}
			logger.Infof("Waiting for PREP analysis of %s to complete, next check in %s", remoteFile, p.interval)
			if err := p.sleep(ctx, p.interval); err != nil {
				return nil, err
			}

		default:
			logger.ErrorWithFields("PREP analysis failed", map[string]interface{}{
				"file":   remoteFile,
				"status": resp.Reported,
			})
			return nil, &client.ProtocolError{Action: types.ActionPrep, Reason: client.ReasonPrepFailed}
		}
	}
}
