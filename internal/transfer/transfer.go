// Package transfer moves job archives over the bulk file channel
package transfer

import (
	"context"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Client uploads and downloads named files on the remote drop
type Client interface {
	Upload(ctx context.Context, localPath, remotePath string) error
	Download(ctx context.Context, remotePath, localPath string) error
	Close() error
}

// Dialer opens a Client using credentials negotiated for one session
type Dialer interface {
	Dial(ctx context.Context, creds types.TransferCredentials) (Client, error)
}

// RemotePath joins remote path elements with forward slashes
func RemotePath(elem ...string) string {
	out := ""
	for _, e := range elem {
		if e == "" {
			continue
		}
		switch {
		case out == "":
			out = e
		case out[len(out)-1] == '/':
			out += trimLeadingSlash(e)
		default:
			out += "/" + trimLeadingSlash(e)
		}
	}
	return out
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}
