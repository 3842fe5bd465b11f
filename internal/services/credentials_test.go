package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client/mock"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func sftpReply(fields map[string]interface{}) func(context.Context, types.Account, types.Action, url.Values) (*client.Response, error) {
	return func(_ context.Context, _ types.Account, action types.Action, _ url.Values) (*client.Response, error) {
		return &client.Response{Action: action, Fields: fields}, nil
	}
}

func validGrant() map[string]interface{} {
	return map[string]interface{}{
		"Host":      "sftp.example.com",
		"Port":      json.Number("22022"),
		"Directory": "/files",
		"Login":     "V42",
		"Password":  "transient",
	}
}

func TestCredentialNegotiator_Negotiate(t *testing.T) {
	mockClient := &mock.MockClient{CallFn: sftpReply(validGrant())}
	acct := types.Account{Server: "pi.example.com", Username: "alice", Secret: "s3cret", ID: "42"}

	creds, err := NewCredentialNegotiator(mockClient).Negotiate(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, types.TransferCredentials{
		Host:      "sftp.example.com",
		Port:      22022,
		Directory: "/files",
		Login:     "V42",
		Secret:    "transient",
	}, *creds)

	require.Len(t, mockClient.CallCalls, 1)
	assert.Equal(t, types.ActionSFTP, mockClient.CallCalls[0].Action)
	assert.Equal(t, "42", mockClient.CallCalls[0].Params.Get("ID"))
}

func TestCredentialNegotiator_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m map[string]interface{})
		reason string
	}{
		{name: "missing host", mutate: func(m map[string]interface{}) { delete(m, "Host") }, reason: "missing field Host"},
		{name: "missing port", mutate: func(m map[string]interface{}) { delete(m, "Port") }, reason: "missing field Port"},
		{name: "missing directory", mutate: func(m map[string]interface{}) { delete(m, "Directory") }, reason: "missing field Directory"},
		{name: "missing login", mutate: func(m map[string]interface{}) { delete(m, "Login") }, reason: "missing field Login"},
		{name: "missing password", mutate: func(m map[string]interface{}) { delete(m, "Password") }, reason: "missing field Password"},
		{name: "port not a number", mutate: func(m map[string]interface{}) { m["Port"] = "ssh" }, reason: "invalid field Port"},
		{name: "port zero", mutate: func(m map[string]interface{}) { m["Port"] = json.Number("0") }, reason: "invalid field Port"},
		{name: "negative port", mutate: func(m map[string]interface{}) { m["Port"] = "-22" }, reason: "invalid field Port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant := validGrant()
			tt.mutate(grant)
			mockClient := &mock.MockClient{CallFn: sftpReply(grant)}

			creds, err := NewCredentialNegotiator(mockClient).Negotiate(context.Background(), types.Account{ID: "42"})
			assert.Nil(t, creds)
			assert.True(t, client.HasReason(err, tt.reason), "got %v", err)
		})
	}
}

func TestCredentialNegotiator_Rejected(t *testing.T) {
	mockClient := &mock.MockClient{
		CallFn: func(_ context.Context, _ types.Account, action types.Action, _ url.Values) (*client.Response, error) {
			return nil, &client.RejectedError{Action: action, Message: "SFTP disabled"}
		},
	}

	_, err := NewCredentialNegotiator(mockClient).Negotiate(context.Background(), types.Account{ID: "42"})
	var rejected *client.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "SFTP disabled", rejected.Message)
}
