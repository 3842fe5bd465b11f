package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client/mock"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// prepSequence replies with the given statuses in order, repeating the last one
func prepSequence(scanCount int, statuses ...types.PrepStatus) func(context.Context, types.Account, string) (*client.PrepResponse, error) {
	i := 0
	return func(context.Context, types.Account, string) (*client.PrepResponse, error) {
		status := statuses[len(statuses)-1]
		if i < len(statuses) {
			status = statuses[i]
		}
		i++
		resp := &client.PrepResponse{Status: status, Reported: string(status)}
		if status == types.PrepReady {
			resp.ScanCount = scanCount
			resp.MSType = "TOF"
		}
		return resp, nil
	}
}

func newTestPoller(c client.Client, interval, timeout time.Duration) (*PrepPoller, *[]time.Duration) {
	p := NewPrepPoller(c, interval, timeout)
	var slept []time.Duration
	p.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return p, &slept
}

func TestPrepPoller_ReadyFirstPoll(t *testing.T) {
	mockClient := &mock.MockClient{PrepFn: prepSequence(10, types.PrepReady)}
	p, slept := newTestPoller(mockClient, 2*time.Minute, 20*time.Minute)

	outcome, err := p.WaitForPrep(context.Background(), types.Account{ID: "42"}, "J123.scans.tar", 10)
	require.NoError(t, err)
	assert.Equal(t, types.PrepReady, outcome.Status)
	assert.Equal(t, 10, outcome.ScanCount)
	assert.Equal(t, "TOF", outcome.MSType)
	assert.Equal(t, 1, outcome.Polls)
	assert.Empty(t, outcome.Warnings)
	assert.Empty(t, *slept)
	require.Len(t, mockClient.PrepCalls, 1)
	assert.Equal(t, "J123.scans.tar", mockClient.PrepCalls[0].File)
}

func TestPrepPoller_AnalyzingThenReady(t *testing.T) {
	mockClient := &mock.MockClient{PrepFn: prepSequence(10, types.PrepAnalyzing, types.PrepAnalyzing, types.PrepReady)}
	p, slept := newTestPoller(mockClient, 2*time.Minute, 20*time.Minute)

	outcome, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Polls)
	assert.Equal(t, []time.Duration{2 * time.Minute, 2 * time.Minute}, *slept)
}

func TestPrepPoller_Timeout(t *testing.T) {
	tests := []struct {
		name      string
		interval  time.Duration
		timeout   time.Duration
		wantPolls int
	}{
		{name: "defaults", interval: 2 * time.Minute, timeout: 20 * time.Minute, wantPolls: 10},
		{name: "uneven budget", interval: 2 * time.Minute, timeout: 5 * time.Minute, wantPolls: 3},
		{name: "budget below interval", interval: time.Minute, timeout: 30 * time.Second, wantPolls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockClient := &mock.MockClient{PrepFn: prepSequence(0, types.PrepAnalyzing)}
			p, slept := newTestPoller(mockClient, tt.interval, tt.timeout)

			outcome, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
			assert.Nil(t, outcome)
			var timeout *TimeoutError
			require.True(t, errors.As(err, &timeout))
			assert.Equal(t, tt.wantPolls, timeout.Polls)
			assert.Len(t, mockClient.PrepCalls, tt.wantPolls)
			assert.Len(t, *slept, tt.wantPolls-1)
		})
	}
}

func TestPrepPoller_Error(t *testing.T) {
	mockClient := &mock.MockClient{PrepFn: prepSequence(0, types.PrepAnalyzing, types.PrepError)}
	p, _ := newTestPoller(mockClient, time.Minute, 10*time.Minute)

	_, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
	assert.True(t, client.HasReason(err, client.ReasonPrepFailed))
	assert.Len(t, mockClient.PrepCalls, 2)
}

func TestPrepPoller_ScanCountMismatch(t *testing.T) {
	mockClient := &mock.MockClient{PrepFn: prepSequence(8, types.PrepReady)}
	p, _ := newTestPoller(mockClient, time.Minute, 10*time.Minute)

	outcome, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
	require.NoError(t, err)
	require.Len(t, outcome.Warnings, 1)
	assert.Contains(t, outcome.Warnings[0], "8 scans")
}

func TestPrepPoller_ClientErrorStopsPolling(t *testing.T) {
	mockClient := &mock.MockClient{
		PrepFn: func(context.Context, types.Account, string) (*client.PrepResponse, error) {
			return nil, &client.TransportError{Action: types.ActionPrep, Err: errors.New("connection reset")}
		},
	}
	p, _ := newTestPoller(mockClient, time.Minute, 10*time.Minute)

	_, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
	var transport *client.TransportError
	assert.True(t, errors.As(err, &transport))
	assert.Len(t, mockClient.PrepCalls, 1)
}

func TestPrepPoller_CanceledWhileWaiting(t *testing.T) {
	mockClient := &mock.MockClient{PrepFn: prepSequence(0, types.PrepAnalyzing)}
	p := NewPrepPoller(mockClient, time.Hour, 10*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.WaitForPrep(ctx, types.Account{}, "J123.scans.tar", 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, mockClient.PrepCalls, 1)
}

func TestPrepPoller_RejectsZeroInterval(t *testing.T) {
	mockClient := &mock.MockClient{}
	p := NewPrepPoller(mockClient, 0, time.Minute)

	_, err := p.WaitForPrep(context.Background(), types.Account{}, "J123.scans.tar", 10)
	assert.Error(t, err)
	assert.Empty(t, mockClient.PrepCalls)
}
