package client

import (
	"errors"
	"fmt"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Protocol error reasons
const (
	ReasonMalformedResponse = "malformed response"
	ReasonPrepFailed        = "prep failed"
	ReasonNoJobMetadata     = "no job metadata"
)

// TransportError means the request never produced a usable HTTP reply
type TransportError struct {
	Action types.Action
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Action, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means the reply was malformed or lacked an expected field
type ProtocolError struct {
	Action types.Action
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: %s", e.Action, e.Reason)
}

// MissingField builds the ProtocolError for an absent reply field
func MissingField(action types.Action, field string) *ProtocolError {
	return &ProtocolError{Action: action, Reason: "missing field " + field}
}

// InvalidField builds the ProtocolError for a reply field of the wrong shape
func InvalidField(action types.Action, field string) *ProtocolError {
	return &ProtocolError{Action: action, Reason: "invalid field " + field}
}

// RejectedError carries the service's own Error message
type RejectedError struct {
	Action  types.Action
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: rejected by service: %s", e.Action, e.Message)
}

// MisconfiguredError means the endpoint answered with an HTML page, which is
// what the service does when the server address is wrong
type MisconfiguredError struct {
	Action   types.Action
	Endpoint string
}

func (e *MisconfiguredError) Error() string {
	return fmt.Sprintf("%s: there is a problem with the server address %s", e.Action, e.Endpoint)
}

// IsServiceError reports whether err is a rejection or misconfiguration
// signalled by the service itself
func IsServiceError(err error) bool {
	var rejected *RejectedError
	var misconfigured *MisconfiguredError
	return errors.As(err, &rejected) || errors.As(err, &misconfigured)
}

// HasReason reports whether err is a ProtocolError with the given reason
func HasReason(err error, reason string) bool {
	var perr *ProtocolError
	return errors.As(err, &perr) && perr.Reason == reason
}
