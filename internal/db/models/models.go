package models

import "github.com/celestiaorg/peakinvestigator/internal/types"

const (
	// DefaultLimit is the max number of rows that are retrieved from the DB per listing call
	DefaultLimit = 50
)

// ListOptions represents pagination and filtering options for list operations
type ListOptions struct {
	Limit          int              `json:"limit"`  // Number of items to return
	Offset         int              `json:"offset"` // Number of items to skip
	IncludeDeleted bool             `json:"include_deleted"`
	AccountID      string           `json:"account_id,omitempty"`
	Status         *types.JobStatus `json:"status,omitempty"` // Filter by last reported status
	// IncludeRetired lists jobs already released on the service
	IncludeRetired bool `json:"include_retired"`
}
