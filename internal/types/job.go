package types

import (
	"fmt"
	"time"
)

// JobStatus is the last status the service reported for a job
type JobStatus string

// Job status values reported by the STATUS action
const (
	// JobStatusUnknown means no STATUS reply has been seen yet
	JobStatusUnknown JobStatus = ""
	// JobStatusRunning means the service is still processing the job
	JobStatusRunning JobStatus = "Running"
	// JobStatusDone means results are ready to be fetched
	JobStatusDone JobStatus = "Done"
)

// ParseJobStatus converts a STATUS reply value into a JobStatus
func ParseJobStatus(str string) (JobStatus, error) {
	switch JobStatus(str) {
	case JobStatusRunning, JobStatusDone:
		return JobStatus(str), nil
	}
	return JobStatusUnknown, fmt.Errorf("invalid job status: %q", str)
}

// Job holds the identity and negotiated terms of one remote computation.
// JobID stays empty until INIT succeeds.
type Job struct {
	JobID         string     `json:"job_id"`
	AccountID     string     `json:"account_id"`
	Server        string     `json:"server"`
	Username      string     `json:"username"`
	Tier          string     `json:"rto"`
	Version       string     `json:"pi_version"`
	Funds         string     `json:"funds,omitempty"`
	ActualCost    string     `json:"actual_cost,omitempty"`
	Bounds        MassBounds `json:"bounds"`
	ScanCount     int        `json:"scan_count"`
	Status        JobStatus  `json:"status"`
	StatusUpdated time.Time  `json:"status_updated"`
	ResultsFile   string     `json:"results_file,omitempty"`
	LogFile       string     `json:"log_file,omitempty"`
	Retired       bool       `json:"retired"`
}

// InputFile returns the archive name used for the job's uploaded scans
func (j *Job) InputFile() string {
	return j.JobID + ".scans.tar"
}

// SetStatus moves the job to the given status. Status only ever advances
// from Running to Done.
func (j *Job) SetStatus(status JobStatus, at time.Time) error {
	if j.Status == JobStatusDone && status != JobStatusDone {
		return fmt.Errorf("job %s: cannot move status from %s to %q", j.JobID, j.Status, status)
	}
	j.Status = status
	j.StatusUpdated = at
	return nil
}

// Complete records the terminal STATUS fields. Cost is only meaningful once Done.
func (j *Job) Complete(resultsFile, logFile, cost string, at time.Time) error {
	if err := j.SetStatus(JobStatusDone, at); err != nil {
		return err
	}
	j.ResultsFile = resultsFile
	j.LogFile = logFile
	j.ActualCost = cost
	return nil
}

// Done reports whether the service has reported the job as finished
func (j *Job) Done() bool {
	return j.Status == JobStatusDone
}

// Retire marks the job as released on the remote service
func (j *Job) Retire() {
	j.Retired = true
}
