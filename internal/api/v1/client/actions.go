package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

func formatMass(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Init opens a job for the account
func (c *APIClient) Init(ctx context.Context, acct types.Account, req InitRequest) (*InitResponse, error) {
	if err := req.Bounds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mass bounds: %w", err)
	}
	params := url.Values{}
	params.Set("ID", acct.ID)
	params.Set("ScanCount", strconv.Itoa(req.ScanCount))
	params.Set("MinMass", formatMass(req.Bounds.Min))
	params.Set("MaxMass", formatMass(req.Bounds.Max))

	resp, err := c.Call(ctx, acct, types.ActionInit, params)
	if err != nil {
		return nil, err
	}
	return parseInit(resp)
}

func parseInit(resp *Response) (*InitResponse, error) {
	jobID, err := resp.String("Job")
	if err != nil {
		return nil, err
	}
	if jobID == "" {
		return nil, InvalidField(resp.Action, "Job")
	}
	funds, err := resp.String("Funds")
	if err != nil {
		return nil, err
	}

	out := &InitResponse{JobID: jobID, Funds: funds}
	for _, v := range resp.List("PI_Versions") {
		if s, ok := v.(string); ok && s != "" {
			out.Versions = append(out.Versions, s)
		}
	}
	for _, v := range resp.List("RTOs") {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		opt := &Response{Action: resp.Action, Fields: m}
		name := opt.OptionalString("RTO")
		if name == "" {
			continue
		}
		out.Tiers = append(out.Tiers, types.TierOption{Name: name, EstimatedCost: opt.OptionalString("EstCost")})
	}
	return out, nil
}

// Run starts processing of an uploaded input file
func (c *APIClient) Run(ctx context.Context, acct types.Account, req RunRequest) (*Response, error) {
	params := url.Values{}
	params.Set("Job", req.JobID)
	params.Set("InputFile", req.InputFile)
	params.Set("RTO", req.Tier)
	params.Set("PIVersion", req.Version)
	return c.Call(ctx, acct, types.ActionRun, params)
}

// Status asks whether a job has finished
func (c *APIClient) Status(ctx context.Context, acct types.Account, jobID string) (*StatusResponse, error) {
	params := url.Values{}
	params.Set("Job", jobID)

	resp, err := c.Call(ctx, acct, types.ActionStatus, params)
	if err != nil {
		return nil, err
	}
	return parseStatus(resp)
}

func parseStatus(resp *Response) (*StatusResponse, error) {
	raw, err := resp.String("Status")
	if err != nil {
		return nil, err
	}
	status, err := types.ParseJobStatus(raw)
	if err != nil {
		return nil, InvalidField(resp.Action, "Status")
	}

	out := &StatusResponse{
		Status:   status,
		Datetime: resp.OptionalString("Datetime"),
	}
	if out.Datetime != "" {
		if t, err := parseDatetime(out.Datetime); err == nil {
			out.UpdatedAt = t
		}
	}
	if status == types.JobStatusDone {
		if out.ResultsFile, err = resp.String("ResultsFile"); err != nil {
			return nil, err
		}
		out.LogFile = resp.OptionalString("JobLogFile")
		out.ActualCost = resp.OptionalString("ActualCost")
	}
	return out, nil
}

// Prep polls the validation state of an uploaded file
func (c *APIClient) Prep(ctx context.Context, acct types.Account, file string) (*PrepResponse, error) {
	params := url.Values{}
	params.Set("ID", acct.ID)
	params.Set("File", file)

	resp, err := c.Call(ctx, acct, types.ActionPrep, params)
	if err != nil {
		return nil, err
	}
	return parsePrep(resp)
}

func parsePrep(resp *Response) (*PrepResponse, error) {
	raw, err := resp.String("Status")
	if err != nil {
		return nil, err
	}
	out := &PrepResponse{Status: types.ParsePrepStatus(raw), Reported: raw}
	if out.Status == types.PrepReady {
		if out.ScanCount, err = resp.Int("ScanCount"); err != nil {
			return nil, err
		}
		out.MSType = resp.OptionalString("MSType")
	}
	return out, nil
}

// Delete releases a job on the service
func (c *APIClient) Delete(ctx context.Context, acct types.Account, jobID string) (*Response, error) {
	params := url.Values{}
	params.Set("Job", jobID)
	return c.Call(ctx, acct, types.ActionDelete, params)
}
