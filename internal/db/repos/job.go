package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/celestiaorg/peakinvestigator/internal/db/models"
	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// ErrJobNotFound is returned when the ledger has no row for a job id
var ErrJobNotFound = errors.New("job not found")

// JobRepository provides access to the job ledger
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Save records the session job, inserting or updating the row for its job
// id and server
func (r *JobRepository) Save(ctx context.Context, job *types.Job) error {
	if job.JobID == "" {
		return errors.New("cannot record a job without a job id")
	}
	return r.Upsert(ctx, models.FromJob(job))
}

// Upsert inserts the row or updates the existing row with the same job id and server
func (r *JobRepository) Upsert(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Job
		err := tx.Where(&models.Job{JobID: job.JobID, Server: job.Server}).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(job).Error
		case err != nil:
			return fmt.Errorf("failed to look up job: %w", err)
		}
		job.ID = existing.ID
		job.CreatedAt = existing.CreatedAt
		return tx.Save(job).Error
	})
}

// GetByJobID retrieves the most recent row for a job id
func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).
		Where(&models.Job{JobID: jobID}).
		Order(models.JobCreatedAtField + " DESC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List returns ledger rows, newest first
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	if opts == nil {
		opts = &models.ListOptions{}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = models.DefaultLimit
	}

	db := r.db.WithContext(ctx)
	if opts.IncludeDeleted {
		db = db.Unscoped()
	}
	qry := &models.Job{AccountID: opts.AccountID}
	if opts.Status != nil {
		qry.Status = *opts.Status
	}
	db = db.Where(qry)
	if !opts.IncludeRetired {
		db = db.Where("retired = ?", false)
	}

	var jobs []models.Job
	err := db.Model(&models.Job{}).
		Order(models.JobCreatedAtField + " DESC").
		Limit(limit).
		Offset(opts.Offset).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}
