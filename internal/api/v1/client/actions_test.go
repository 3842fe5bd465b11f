package client

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func TestAPIClient_Init(t *testing.T) {
	svc, acct, c := setupTestServer(t, map[types.Action]string{
		types.ActionInit: `{"Job":"J123","Funds":"42.50"}`,
	})

	resp, err := c.Init(context.Background(), acct, InitRequest{
		ScanCount: 10,
		Bounds:    types.MassBounds{Min: 100, Max: 2000},
	})
	require.NoError(t, err)
	assert.Equal(t, "J123", resp.JobID)
	assert.Equal(t, "42.50", resp.Funds)
	assert.Empty(t, resp.Tiers)

	form := svc.last()
	assert.Equal(t, "INIT", form.Get("Action"))
	assert.Equal(t, "42", form.Get("ID"))
	assert.Equal(t, "10", form.Get("ScanCount"))
	assert.Equal(t, "100", form.Get("MinMass"))
	assert.Equal(t, "2000", form.Get("MaxMass"))
}

func TestAPIClient_InitOptions(t *testing.T) {
	_, acct, c := setupTestServer(t, map[types.Action]string{
		types.ActionInit: `{"Job":"J9","Funds":12.5,"PI_Versions":["1.2","1.0.1"],"RTOs":[{"RTO":"RTO-24","EstCost":"1.00"},{"RTO":"RTO-0","EstCost":"4.00"},{"EstCost":"9"}]}`,
	})

	resp, err := c.Init(context.Background(), acct, InitRequest{ScanCount: 1, Bounds: types.MassBounds{Min: 1, Max: 2}})
	require.NoError(t, err)
	assert.Equal(t, "12.5", resp.Funds)
	assert.Equal(t, []string{"1.2", "1.0.1"}, resp.Versions)
	assert.Equal(t, []types.TierOption{{Name: "RTO-24", EstimatedCost: "1.00"}, {Name: "RTO-0", EstimatedCost: "4.00"}}, resp.Tiers)
}

func TestAPIClient_InitFailures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, err error)
	}{
		{
			name: "rejected never yields a job",
			body: `{"Job":"J123","Error":"Insufficient funds"}`,
			check: func(t *testing.T, err error) {
				var rejected *RejectedError
				assert.True(t, errors.As(err, &rejected))
			},
		},
		{
			name: "missing job",
			body: `{"Funds":"1.00"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, HasReason(err, "missing field Job"))
			},
		},
		{
			name: "empty job",
			body: `{"Job":"","Funds":"1.00"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, HasReason(err, "invalid field Job"))
			},
		},
		{
			name: "missing funds",
			body: `{"Job":"J1"}`,
			check: func(t *testing.T, err error) {
				assert.True(t, HasReason(err, "missing field Funds"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, acct, c := setupTestServer(t, map[types.Action]string{types.ActionInit: tt.body})
			resp, err := c.Init(context.Background(), acct, InitRequest{ScanCount: 1, Bounds: types.MassBounds{Max: 1}})
			require.Error(t, err)
			assert.Nil(t, resp)
			tt.check(t, err)
		})
	}
}

func TestAPIClient_InitRejectsBadBounds(t *testing.T) {
	svc, acct, c := setupTestServer(t, nil)
	_, err := c.Init(context.Background(), acct, InitRequest{ScanCount: 1, Bounds: types.MassBounds{Min: 10, Max: 1}})
	assert.ErrorContains(t, err, "invalid mass bounds")
	assert.Empty(t, svc.requests)
}

func TestAPIClient_Run(t *testing.T) {
	svc, acct, c := setupTestServer(t, map[types.Action]string{
		types.ActionRun: `{"Job":"J123","Status":"Accepted"}`,
	})

	_, err := c.Run(context.Background(), acct, RunRequest{JobID: "J123", InputFile: "J123.scans.tar", Tier: "RTO-24", Version: "1.0.1"})
	require.NoError(t, err)

	form := svc.last()
	assert.Equal(t, "RUN", form.Get("Action"))
	assert.Equal(t, "J123", form.Get("Job"))
	assert.Equal(t, "J123.scans.tar", form.Get("InputFile"))
	assert.Equal(t, "RTO-24", form.Get("RTO"))
	assert.Equal(t, "1.0.1", form.Get("PIVersion"))
}

func TestAPIClient_Status(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		svc, acct, c := setupTestServer(t, map[types.Action]string{
			types.ActionStatus: `{"Status":"Done","ResultsFile":"J123.results.tar","ActualCost":"3.10","Datetime":"2024-03-01 10:00:00"}`,
		})
		resp, err := c.Status(context.Background(), acct, "J123")
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusDone, resp.Status)
		assert.Equal(t, "J123.results.tar", resp.ResultsFile)
		assert.Equal(t, "3.10", resp.ActualCost)
		assert.Equal(t, 2024, resp.UpdatedAt.Year())
		assert.Equal(t, "J123", svc.last().Get("Job"))
	})

	t.Run("running", func(t *testing.T) {
		_, acct, c := setupTestServer(t, map[types.Action]string{
			types.ActionStatus: `{"Status":"Running","Datetime":"soon"}`,
		})
		resp, err := c.Status(context.Background(), acct, "J123")
		require.NoError(t, err)
		assert.Equal(t, types.JobStatusRunning, resp.Status)
		assert.True(t, resp.UpdatedAt.IsZero())
		assert.Empty(t, resp.ResultsFile)
	})

	t.Run("done without results file", func(t *testing.T) {
		_, acct, c := setupTestServer(t, map[types.Action]string{
			types.ActionStatus: `{"Status":"Done"}`,
		})
		_, err := c.Status(context.Background(), acct, "J123")
		assert.True(t, HasReason(err, "missing field ResultsFile"))
	})

	t.Run("unknown status", func(t *testing.T) {
		_, acct, c := setupTestServer(t, map[types.Action]string{
			types.ActionStatus: `{"Status":"Paused"}`,
		})
		_, err := c.Status(context.Background(), acct, "J123")
		assert.True(t, HasReason(err, "invalid field Status"))
	})
}

func TestAPIClient_Prep(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      types.PrepStatus
		wantCount int
		wantErr   string
	}{
		{name: "ready", body: `{"Status":"Ready","ScanCount":"10","MSType":"TOF"}`, want: types.PrepReady, wantCount: 10},
		{name: "ready numeric count", body: `{"Status":"Ready","ScanCount":3}`, want: types.PrepReady, wantCount: 3},
		{name: "analyzing", body: `{"Status":"Analyzing"}`, want: types.PrepAnalyzing},
		{name: "other", body: `{"Status":"Corrupt"}`, want: types.PrepError},
		{name: "ready without count", body: `{"Status":"Ready"}`, wantErr: "missing field ScanCount"},
		{name: "ready with bad count", body: `{"Status":"Ready","ScanCount":"many"}`, wantErr: "invalid field ScanCount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, acct, c := setupTestServer(t, map[types.Action]string{types.ActionPrep: tt.body})
			resp, err := c.Prep(context.Background(), acct, "J1.scans.tar")
			if tt.wantErr != "" {
				assert.True(t, HasReason(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, tt.wantCount, resp.ScanCount)
			assert.Equal(t, "J1.scans.tar", svc.last().Get("File"))
			assert.Equal(t, "42", svc.last().Get("ID"))
		})
	}
}

func TestAPIClient_Delete(t *testing.T) {
	svc, acct, c := setupTestServer(t, map[types.Action]string{
		types.ActionDelete: `{"Job":"J123","Datetime":"2024-03-01 10:00:00"}`,
	})

	resp, err := c.Delete(context.Background(), acct, "J123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"Job":"J123","Datetime":"2024-03-01 10:00:00"}`, string(resp.Raw))
	assert.Equal(t, "DELETE", svc.last().Get("Action"))
	assert.Equal(t, "J123", svc.last().Get("Job"))
}
