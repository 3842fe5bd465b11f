package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// Response is a decoded JSON reply. Callers pull only the fields they need.
type Response struct {
	Action types.Action
	Fields map[string]interface{}
	Raw    []byte
}

// Has reports whether the reply carries a field
func (r *Response) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// String returns a field as text; numbers are rendered as sent
func (r *Response) String(field string) (string, error) {
	v, ok := r.Fields[field]
	if !ok || v == nil {
		return "", MissingField(r.Action, field)
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	}
	return "", InvalidField(r.Action, field)
}

// OptionalString returns a field as text or "" when absent
func (r *Response) OptionalString(field string) string {
	s, err := r.String(field)
	if err != nil {
		return ""
	}
	return s
}

// Int returns a field as an integer, accepting numeric strings
func (r *Response) Int(field string) (int, error) {
	s, err := r.String(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, InvalidField(r.Action, field)
	}
	return n, nil
}

// List returns a JSON array field
func (r *Response) List(field string) []interface{} {
	list, _ := r.Fields[field].([]interface{})
	return list
}

// InitRequest holds the action fields of INIT
type InitRequest struct {
	ScanCount int
	Bounds    types.MassBounds
}

// InitResponse is what INIT hands back
type InitResponse struct {
	JobID    string
	Funds    string
	Tiers    []types.TierOption
	Versions []string
}

// RunRequest holds the action fields of RUN
type RunRequest struct {
	JobID     string
	InputFile string
	Tier      string
	Version   string
}

// StatusResponse is what STATUS hands back
type StatusResponse struct {
	Status      types.JobStatus
	Datetime    string
	UpdatedAt   time.Time
	ResultsFile string
	LogFile     string
	ActualCost  string
}

// PrepResponse is one PREP poll result
type PrepResponse struct {
	Status    types.PrepStatus
	Reported  string
	ScanCount int
	MSType    string
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDatetime(s string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}
