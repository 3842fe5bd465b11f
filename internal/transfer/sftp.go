package transfer

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// DefaultDialTimeout bounds the TCP connect and SSH handshake
const DefaultDialTimeout = 30 * time.Second

// SFTPDialer opens password-authenticated SFTP sessions
type SFTPDialer struct {
	// HostKeyFingerprint pins the server key (ssh.FingerprintSHA256 form).
	// Empty accepts any key.
	HostKeyFingerprint string
	Timeout            time.Duration
}

// NewSFTPDialer creates a dialer pinned to the given host key fingerprint
func NewSFTPDialer(fingerprint string) *SFTPDialer {
	return &SFTPDialer{HostKeyFingerprint: fingerprint, Timeout: DefaultDialTimeout}
}

func (d *SFTPDialer) hostKeyCallback() ssh.HostKeyCallback {
	if d.HostKeyFingerprint == "" {
		logger.Warn("SFTP host key is not pinned, accepting any server key")
		return ssh.InsecureIgnoreHostKey() // #nosec G106 -- pinning is opt-in through PI_SFTP_HOST_KEY
	}
	return func(hostname string, _ net.Addr, key ssh.PublicKey) error {
		got := ssh.FingerprintSHA256(key)
		if got != d.HostKeyFingerprint {
			return fmt.Errorf("host key mismatch for %s: got %s", hostname, got)
		}
		return nil
	}
}

// Dial connects and starts the sftp subsystem
func (d *SFTPDialer) Dial(ctx context.Context, creds types.TransferCredentials) (Client, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	cfg := &ssh.ClientConfig{
		User:            creds.Login,
		Auth:            []ssh.AuthMethod{ssh.Password(creds.Secret)},
		HostKeyCallback: d.hostKeyCallback(),
		Timeout:         timeout,
	}

	addr := creds.Address()
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("error opening SSH session to %s: %w", addr, err)
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("error starting sftp on %s: %w", addr, err)
	}

	logger.Debugf("SFTP session opened to %s", creds)
	return &SFTPClient{ssh: sshClient, sftp: sftpClient}, nil
}

// SFTPClient is an open SFTP session
type SFTPClient struct {
	ssh  *ssh.Client
	sftp *sftp.Client
}

// Upload copies a local file to the remote path
func (c *SFTPClient) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(localPath) // #nosec G304 -- local archive created by this process
	if err != nil {
		return fmt.Errorf("error opening %s: %w", localPath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := c.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("error creating remote file %s: %w", remotePath, err)
	}
	n, err := dst.ReadFrom(src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("error uploading to %s: %w", remotePath, err)
	}
	logger.Infof("Uploaded %d bytes to %s", n, remotePath)
	return nil
}

// Download copies a remote file to the local path
func (c *SFTPClient) Download(ctx context.Context, remotePath, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := c.sftp.Open(remotePath)
	if err != nil {
		return fmt.Errorf("error opening remote file %s: %w", remotePath, err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(localPath) // #nosec G304 -- temp path built by the session
	if err != nil {
		return fmt.Errorf("error creating %s: %w", localPath, err)
	}
	n, err := src.WriteTo(dst)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("error downloading %s: %w", remotePath, err)
	}
	logger.Infof("Downloaded %d bytes from %s", n, remotePath)
	return nil
}

// Close ends the sftp subsystem and the SSH connection
func (c *SFTPClient) Close() error {
	var result *multierror.Error
	if err := c.sftp.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("error closing sftp session: %w", err))
	}
	if err := c.ssh.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("error closing ssh connection: %w", err))
	}
	return result.ErrorOrNil()
}
