package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

const (
	// JobCreatedAtField is the database field name for the job creation timestamp
	JobCreatedAtField = "created_at"
	// JobIDField is the database field name for the service-issued job id
	JobIDField = "job_id"
	// JobServerField is the database field name for the job's server
	JobServerField = "server"
)

// Job is the ledger row for one remote job. Credentials are never stored.
type Job struct {
	gorm.Model
	JobID         string          `json:"job_id" gorm:"not null;uniqueIndex:idx_job_server"`
	Server        string          `json:"server" gorm:"not null;uniqueIndex:idx_job_server"`
	AccountID     string          `json:"account_id" gorm:"index"`
	Username      string          `json:"username"`
	RTO           string          `json:"rto"`
	PIVersion     string          `json:"pi_version"`
	Funds         string          `json:"funds,omitempty"`
	ActualCost    string          `json:"actual_cost,omitempty"`
	MinMass       float64         `json:"min_mass"`
	MaxMass       float64         `json:"max_mass"`
	ScanCount     int             `json:"scan_count"`
	Status        types.JobStatus `json:"status" gorm:"index"`
	StatusUpdated time.Time       `json:"status_updated"`
	ResultsFile   string          `json:"results_file,omitempty"`
	LogFile       string          `json:"log_file,omitempty"`
	Retired       bool            `json:"retired" gorm:"not null;default:false;index"`
}

// FromJob builds a ledger row from a session job
func FromJob(j *types.Job) *Job {
	return &Job{
		JobID:         j.JobID,
		Server:        j.Server,
		AccountID:     j.AccountID,
		Username:      j.Username,
		RTO:           j.Tier,
		PIVersion:     j.Version,
		Funds:         j.Funds,
		ActualCost:    j.ActualCost,
		MinMass:       j.Bounds.Min,
		MaxMass:       j.Bounds.Max,
		ScanCount:     j.ScanCount,
		Status:        j.Status,
		StatusUpdated: j.StatusUpdated,
		ResultsFile:   j.ResultsFile,
		LogFile:       j.LogFile,
		Retired:       j.Retired,
	}
}

// ToJob converts the row back into a session job
func (m *Job) ToJob() types.Job {
	return types.Job{
		JobID:         m.JobID,
		AccountID:     m.AccountID,
		Server:        m.Server,
		Username:      m.Username,
		Tier:          m.RTO,
		Version:       m.PIVersion,
		Funds:         m.Funds,
		ActualCost:    m.ActualCost,
		Bounds:        types.MassBounds{Min: m.MinMass, Max: m.MaxMass},
		ScanCount:     m.ScanCount,
		Status:        m.Status,
		StatusUpdated: m.StatusUpdated,
		ResultsFile:   m.ResultsFile,
		LogFile:       m.LogFile,
		Retired:       m.Retired,
	}
}
