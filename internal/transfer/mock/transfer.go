// Package mock provides in-memory transfer doubles for tests
package mock

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/celestiaorg/peakinvestigator/internal/transfer"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Dialer hands out a shared in-memory Client and records the credentials used
type Dialer struct {
	mu sync.Mutex

	DialFn func(ctx context.Context, creds types.TransferCredentials) (transfer.Client, error)
	Client *Client

	DialCalls []types.TransferCredentials
}

// Ensure Dialer implements transfer.Dialer
var _ transfer.Dialer = (*Dialer)(nil)

// NewDialer returns a dialer backed by an empty in-memory drop
func NewDialer() *Dialer {
	return &Dialer{Client: NewClient()}
}

// Dial mocks the Dial method
func (d *Dialer) Dial(ctx context.Context, creds types.TransferCredentials) (transfer.Client, error) {
	d.mu.Lock()
	d.DialCalls = append(d.DialCalls, creds)
	d.mu.Unlock()

	if d.DialFn != nil {
		return d.DialFn(ctx, creds)
	}
	return d.Client, nil
}

// Client stores remote files in memory
type Client struct {
	mu sync.Mutex

	Files map[string][]byte

	UploadErr   error
	DownloadErr error

	UploadCalls   []string
	DownloadCalls []string
	Closed        int
}

// Ensure Client implements transfer.Client
var _ transfer.Client = (*Client)(nil)

// NewClient returns an empty in-memory drop
func NewClient() *Client {
	return &Client{Files: make(map[string][]byte)}
}

// Upload copies a local file into the drop
func (c *Client) Upload(_ context.Context, localPath, remotePath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.UploadCalls = append(c.UploadCalls, remotePath)
	if c.UploadErr != nil {
		return c.UploadErr
	}
	data, err := os.ReadFile(localPath) // #nosec G304 -- test double
	if err != nil {
		return err
	}
	c.Files[remotePath] = data
	return nil
}

// Download writes a drop file to a local path
func (c *Client) Download(_ context.Context, remotePath, localPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.DownloadCalls = append(c.DownloadCalls, remotePath)
	if c.DownloadErr != nil {
		return c.DownloadErr
	}
	data, ok := c.Files[remotePath]
	if !ok {
		return fmt.Errorf("remote file %s does not exist", remotePath)
	}
	return os.WriteFile(localPath, data, 0o600)
}

// Close counts closes
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed++
	return nil
}
