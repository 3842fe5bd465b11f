package services

import (
	"context"
	"net/url"

	"github.com/celestiaorg/peakinvestigator/internal/api/v1/client"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// CredentialNegotiator fetches transient SFTP credentials for an account
type CredentialNegotiator struct {
	client client.Client
}

// NewCredentialNegotiator creates a negotiator over the given API client
func NewCredentialNegotiator(c client.Client) *CredentialNegotiator {
	return &CredentialNegotiator{client: c}
}

// Negotiate issues one SFTP action and extracts the transfer grant
func (n *CredentialNegotiator) Negotiate(ctx context.Context, acct types.Account) (*types.TransferCredentials, error) {
	params := url.Values{}
	params.Set("ID", acct.ID)

	resp, err := n.client.Call(ctx, acct, types.ActionSFTP, params)
	if err != nil {
		return nil, err
	}

	creds := &types.TransferCredentials{}
	if creds.Host, err = resp.String("Host"); err != nil {
		return nil, err
	}
	if creds.Host == "" {
		return nil, client.InvalidField(types.ActionSFTP, "Host")
	}
	if creds.Port, err = resp.Int("Port"); err != nil {
		return nil, err
	}
	if creds.Port <= 0 {
		return nil, client.InvalidField(types.ActionSFTP, "Port")
	}
	if creds.Directory, err = resp.String("Directory"); err != nil {
		return nil, err
	}
	if creds.Login, err = resp.String("Login"); err != nil {
		return nil, err
	}
	if creds.Login == "" {
		return nil, client.InvalidField(types.ActionSFTP, "Login")
	}
	if creds.Secret, err = resp.String("Password"); err != nil {
		return nil, err
	}

	logger.InfoWithFields("negotiated transfer credentials", map[string]interface{}{
		"host":      creds.Host,
		"port":      creds.Port,
		"directory": creds.Directory,
		"login":     creds.Login,
	})
	return creds, nil
}
