// Package client talks to the PeakInvestigator control-plane API
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/celestiaorg/peakinvestigator/internal/logger"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

const (
	// DefaultTimeout is the default timeout for API requests
	DefaultTimeout = 30 * time.Second
	// ProtocolVersion is the CLI interface version the service expects
	ProtocolVersion = "2.12"
	// APISuffix is appended to the server address
	APISuffix = "/api/"
)

// Client defines the interface for interacting with the PeakInvestigator API.
// Every method is a pure function of the account and the action inputs.
type Client interface {
	// Call sends one action and returns the decoded reply
	Call(ctx context.Context, acct types.Account, action types.Action, params url.Values) (*Response, error)

	Init(ctx context.Context, acct types.Account, req InitRequest) (*InitResponse, error)
	Run(ctx context.Context, acct types.Account, req RunRequest) (*Response, error)
	Status(ctx context.Context, acct types.Account, jobID string) (*StatusResponse, error)
	Prep(ctx context.Context, acct types.Account, file string) (*PrepResponse, error)
	Delete(ctx context.Context, acct types.Account, jobID string) (*Response, error)
}

// ClientOptions contains configuration options for the API client
type ClientOptions struct {
	// Timeout is the request timeout
	Timeout time.Duration
}

// DefaultOptions returns the default client options
func DefaultOptions() *ClientOptions {
	return &ClientOptions{
		Timeout: DefaultTimeout,
	}
}

// APIClient implements the Client interface
type APIClient struct {
	timeout time.Duration
}

// NewClient creates a new API client with the given options
func NewClient(opts *ClientOptions) (Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("invalid timeout: %s", opts.Timeout)
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &APIClient{timeout: timeout}, nil
}

// EndpointURL turns a server address into the API endpoint. Addresses
// without a scheme use https.
func EndpointURL(server string) string {
	server = strings.TrimRight(server, "/")
	if !strings.Contains(server, "://") {
		server = "https://" + server
	}
	return server + APISuffix
}

// buildForm assembles the request body shared by every action
func buildForm(acct types.Account, action types.Action, params url.Values) url.Values {
	form := url.Values{}
	form.Set("Version", ProtocolVersion)
	form.Set("User", acct.Username)
	form.Set("Code", acct.Secret)
	form.Set("Action", string(action))
	for k, vs := range params {
		for _, v := range vs {
			form.Add(k, v)
		}
	}
	return form
}

// createAgent creates a new Fiber Agent carrying the form-encoded action
func (c *APIClient) createAgent(ctx context.Context, endpoint string, form url.Values) *fiber.Agent {
	agent := fiber.Put(endpoint)

	if deadline, ok := ctx.Deadline(); ok {
		agent.Timeout(time.Until(deadline))
	} else {
		agent.Timeout(c.timeout)
	}
	agent.Set("Accept", "application/json")

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	for k, vs := range form {
		for _, v := range vs {
			args.Add(k, v)
		}
	}
	agent.Form(args)

	return agent
}

// Call sends one action synchronously and classifies the reply
func (c *APIClient) Call(ctx context.Context, acct types.Account, action types.Action, params url.Values) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransportError{Action: action, Err: err}
	}

	endpoint := EndpointURL(acct.Server)
	logger.DebugWithFields("sending request", map[string]interface{}{
		"action":   action,
		"endpoint": endpoint,
		"user":     acct.Username,
	})

	agent := c.createAgent(ctx, endpoint, buildForm(acct, action, params))
	statusCode, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return nil, &TransportError{Action: action, Err: errs[0]}
	}

	return decodeResponse(action, endpoint, statusCode, body)
}

// decodeResponse applies the service's error conventions to a raw reply
func decodeResponse(action types.Action, endpoint string, statusCode int, body []byte) (*Response, error) {
	if isHTML(body) {
		return nil, &MisconfiguredError{Action: action, Endpoint: endpoint}
	}

	fields, decodeErr := decodeObject(body)
	if statusCode < 200 || statusCode >= 300 {
		if decodeErr == nil {
			if msg, ok := fields["Error"]; ok {
				return nil, &RejectedError{Action: action, Message: fmt.Sprint(msg)}
			}
		}
		return nil, &TransportError{Action: action, Err: fmt.Errorf("unexpected HTTP status %d", statusCode)}
	}
	if decodeErr != nil {
		logger.DebugWithFields("undecodable reply", map[string]interface{}{"action": action, "error": decodeErr})
		return nil, &ProtocolError{Action: action, Reason: ReasonMalformedResponse}
	}
	if msg, ok := fields["Error"]; ok {
		return nil, &RejectedError{Action: action, Message: fmt.Sprint(msg)}
	}

	return &Response{Action: action, Fields: fields, Raw: body}, nil
}

func isHTML(body []byte) bool {
	trimmed := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(trimmed, []byte("<html")) || bytes.HasPrefix(trimmed, []byte("<!doctype html"))
}

func decodeObject(body []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var fields map[string]interface{}
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, fmt.Errorf("reply is not a JSON object")
	}
	return fields, nil
}
