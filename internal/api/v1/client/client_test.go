package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// fakeService answers every action with a canned body and records requests
type fakeService struct {
	mu       sync.Mutex
	replies  map[types.Action]string
	status   int
	requests []url.Values
	methods  []string
	paths    []string
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, r.PostForm)
	f.methods = append(f.methods, r.Method)
	f.paths = append(f.paths, r.URL.Path)
	body := f.replies[types.Action(r.PostForm.Get("Action"))]
	status := f.status
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeService) setStatus(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

func (f *fakeService) last() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func setupTestServer(t *testing.T, replies map[types.Action]string) (*fakeService, types.Account, Client) {
	t.Helper()
	svc := &fakeService{replies: replies}
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)

	c, err := NewClient(&ClientOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)

	acct := types.Account{Server: server.URL, Username: "alice", Secret: "s3cret", ID: "42"}
	return svc, acct, c
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		opts    *ClientOptions
		wantErr bool
	}{
		{name: "nil options", opts: nil},
		{name: "valid options", opts: &ClientOptions{Timeout: 10 * time.Second}},
		{name: "zero timeout uses default", opts: &ClientOptions{}},
		{name: "negative timeout", opts: &ClientOptions{Timeout: -time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.opts)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, c)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "https://peakinvestigator.veritomyx.com/api/", EndpointURL("peakinvestigator.veritomyx.com"))
	assert.Equal(t, "http://127.0.0.1:8080/api/", EndpointURL("http://127.0.0.1:8080/"))
}

func TestAPIClient_CallSignsRequest(t *testing.T) {
	svc, acct, c := setupTestServer(t, map[types.Action]string{
		types.ActionSFTP: `{"Host":"sftp.example.com"}`,
	})

	resp, err := c.Call(context.Background(), acct, types.ActionSFTP, url.Values{"ID": {"42"}})
	require.NoError(t, err)
	assert.Equal(t, "sftp.example.com", resp.OptionalString("Host"))

	form := svc.last()
	assert.Equal(t, ProtocolVersion, form.Get("Version"))
	assert.Equal(t, "alice", form.Get("User"))
	assert.Equal(t, "s3cret", form.Get("Code"))
	assert.Equal(t, "SFTP", form.Get("Action"))
	assert.Equal(t, "42", form.Get("ID"))
	assert.Equal(t, http.MethodPut, svc.methods[0])
	assert.Equal(t, APISuffix, svc.paths[0])
}

func TestAPIClient_CallClassifiesReplies(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name: "service error field",
			body: `{"Error":"Invalid username or password"}`,
			check: func(t *testing.T, err error) {
				var rejected *RejectedError
				require.True(t, errors.As(err, &rejected))
				assert.Equal(t, "Invalid username or password", rejected.Message)
				assert.True(t, IsServiceError(err))
			},
		},
		{
			name: "html page",
			body: `<html><head><title>Not here</title></head></html>`,
			check: func(t *testing.T, err error) {
				var misconfigured *MisconfiguredError
				require.True(t, errors.As(err, &misconfigured))
				assert.True(t, IsServiceError(err))
			},
		},
		{
			name:   "html page with error status",
			body:   "\n<!DOCTYPE html><html><body>404</body></html>",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				var misconfigured *MisconfiguredError
				assert.True(t, errors.As(err, &misconfigured))
			},
		},
		{
			name: "malformed json",
			body: `{invalid json`,
			check: func(t *testing.T, err error) {
				assert.True(t, HasReason(err, ReasonMalformedResponse))
				assert.False(t, IsServiceError(err))
			},
		},
		{
			name: "json that is not an object",
			body: `["Job"]`,
			check: func(t *testing.T, err error) {
				assert.True(t, HasReason(err, ReasonMalformedResponse))
			},
		},
		{
			name:   "server error without body",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var transport *TransportError
				require.True(t, errors.As(err, &transport))
				assert.Contains(t, err.Error(), "502")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, acct, c := setupTestServer(t, map[types.Action]string{types.ActionInit: tt.body})
			svc.setStatus(tt.status)

			_, err := c.Call(context.Background(), acct, types.ActionInit, nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAPIClient_HTMLMisconfiguredForEveryAction(t *testing.T) {
	html := `<html><head></head><body>Default page</body></html>`
	replies := map[types.Action]string{}
	for _, a := range []types.Action{types.ActionInit, types.ActionRun, types.ActionStatus, types.ActionPrep, types.ActionSFTP, types.ActionDelete} {
		replies[a] = html
	}
	_, acct, c := setupTestServer(t, replies)
	ctx := context.Background()

	var misconfigured *MisconfiguredError
	_, err := c.Init(ctx, acct, InitRequest{ScanCount: 1, Bounds: types.MassBounds{Min: 1, Max: 2}})
	assert.True(t, errors.As(err, &misconfigured))
	_, err = c.Run(ctx, acct, RunRequest{JobID: "J1"})
	assert.True(t, errors.As(err, &misconfigured))
	_, err = c.Status(ctx, acct, "J1")
	assert.True(t, errors.As(err, &misconfigured))
	_, err = c.Prep(ctx, acct, "J1.scans.tar")
	assert.True(t, errors.As(err, &misconfigured))
	_, err = c.Call(ctx, acct, types.ActionSFTP, nil)
	assert.True(t, errors.As(err, &misconfigured))
	_, err = c.Delete(ctx, acct, "J1")
	assert.True(t, errors.As(err, &misconfigured))
}

func TestAPIClient_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(&ClientOptions{Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Call(context.Background(), types.Account{Server: addr}, types.ActionStatus, nil)
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.Equal(t, types.ActionStatus, transport.Action)
}

func TestAPIClient_CanceledContext(t *testing.T) {
	_, acct, c := setupTestServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Call(ctx, acct, types.ActionStatus, nil)
	var transport *TransportError
	require.True(t, errors.As(err, &transport))
	assert.ErrorIs(t, err, context.Canceled)
}
