// Package mock provides a scriptable Client for tests
package mock

import (
	"context"
	"net/url"
	"sync"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// MockClient implements the Client interface for testing
type MockClient struct {
	mu sync.Mutex

	// Function fields that can be set to mock behavior
	CallFn   func(ctx context.Context, acct types.Account, action types.Action, params url.Values) (*client.Response, error)
	InitFn   func(ctx context.Context, acct types.Account, req client.InitRequest) (*client.InitResponse, error)
	RunFn    func(ctx context.Context, acct types.Account, req client.RunRequest) (*client.Response, error)
	StatusFn func(ctx context.Context, acct types.Account, jobID string) (*client.StatusResponse, error)
	PrepFn   func(ctx context.Context, acct types.Account, file string) (*client.PrepResponse, error)
	DeleteFn func(ctx context.Context, acct types.Account, jobID string) (*client.Response, error)

	// Call tracking for verification
	CallCalls []struct {
		Account types.Account
		Action  types.Action
		Params  url.Values
	}
	InitCalls []struct {
		Account types.Account
		Req     client.InitRequest
	}
	RunCalls []struct {
		Account types.Account
		Req     client.RunRequest
	}
	StatusCalls []struct {
		Account types.Account
		JobID   string
	}
	PrepCalls []struct {
		Account types.Account
		File    string
	}
	DeleteCalls []struct {
		Account types.Account
		JobID   string
	}

	// Actions records every action in the order it was issued
	Actions []types.Action
}

// Ensure MockClient implements Client interface
var _ client.Client = (*MockClient)(nil)

// Call mocks the Call method
func (m *MockClient) Call(ctx context.Context, acct types.Account, action types.Action, params url.Values) (*client.Response, error) {
	m.mu.Lock()
	m.CallCalls = append(m.CallCalls, struct {
		Account types.Account
		Action  types.Action
		Params  url.Values
	}{Account: acct, Action: action, Params: params})
	m.Actions = append(m.Actions, action)
	m.mu.Unlock()

	if m.CallFn != nil {
		return m.CallFn(ctx, acct, action, params)
	}
	return &client.Response{Action: action, Fields: map[string]interface{}{}, Raw: []byte("{}")}, nil
}

// Init mocks the Init method
func (m *MockClient) Init(ctx context.Context, acct types.Account, req client.InitRequest) (*client.InitResponse, error) {
	m.mu.Lock()
	m.InitCalls = append(m.InitCalls, struct {
		Account types.Account
		Req     client.InitRequest
	}{Account: acct, Req: req})
	m.Actions = append(m.Actions, types.ActionInit)
	m.mu.Unlock()

	if m.InitFn != nil {
		return m.InitFn(ctx, acct, req)
	}
	return &client.InitResponse{JobID: "J123", Funds: "100.00"}, nil
}

// Run mocks the Run method
func (m *MockClient) Run(ctx context.Context, acct types.Account, req client.RunRequest) (*client.Response, error) {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, struct {
		Account types.Account
		Req     client.RunRequest
	}{Account: acct, Req: req})
	m.Actions = append(m.Actions, types.ActionRun)
	m.mu.Unlock()

	if m.RunFn != nil {
		return m.RunFn(ctx, acct, req)
	}
	return &client.Response{Action: types.ActionRun, Fields: map[string]interface{}{"Job": req.JobID}}, nil
}

// Status mocks the Status method
func (m *MockClient) Status(ctx context.Context, acct types.Account, jobID string) (*client.StatusResponse, error) {
	m.mu.Lock()
	m.StatusCalls = append(m.StatusCalls, struct {
		Account types.Account
		JobID   string
	}{Account: acct, JobID: jobID})
	m.Actions = append(m.Actions, types.ActionStatus)
	m.mu.Unlock()

	if m.StatusFn != nil {
		return m.StatusFn(ctx, acct, jobID)
	}
	return &client.StatusResponse{Status: types.JobStatusRunning}, nil
}

// Prep mocks the Prep method
func (m *MockClient) Prep(ctx context.Context, acct types.Account, file string) (*client.PrepResponse, error) {
	m.mu.Lock()
	m.PrepCalls = append(m.PrepCalls, struct {
		Account types.Account
		File    string
	}{Account: acct, File: file})
	m.Actions = append(m.Actions, types.ActionPrep)
	m.mu.Unlock()

	if m.PrepFn != nil {
		return m.PrepFn(ctx, acct, file)
	}
	return &client.PrepResponse{Status: types.PrepReady, Reported: "Ready"}, nil
}

// Delete mocks the Delete method
func (m *MockClient) Delete(ctx context.Context, acct types.Account, jobID string) (*client.Response, error) {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, struct {
		Account types.Account
		JobID   string
	}{Account: acct, JobID: jobID})
	m.Actions = append(m.Actions, types.ActionDelete)
	m.mu.Unlock()

	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, acct, jobID)
	}
	raw := []byte(`{"Job":"` + jobID + `"}`)
	return &client.Response{Action: types.ActionDelete, Fields: map[string]interface{}{"Job": jobID}, Raw: raw}, nil
}
