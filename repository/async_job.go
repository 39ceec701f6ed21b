package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// AsyncJobStatus is the lifecycle state of an async job
type AsyncJobStatus string

const (
	JobPending AsyncJobStatus = "PENDING"
	JobSuccess AsyncJobStatus = "SUCCESS"
	JobError   AsyncJobStatus = "ERROR"
	JobTimeout AsyncJobStatus = "TIMEOUT"
)

// AsyncJob tracks a long-running operation started against a source object
type AsyncJob struct {
	ID            string
	SourceID      string
	EnvironmentID string
	InitiatorID   string
	Type          string
	Status        AsyncJobStatus
	ErrorMessage  string
	DeadLine      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AsyncJobCriteria filters jobs; empty fields match everything
type AsyncJobCriteria struct {
	EnvironmentID string
	InitiatorID   string
	Type          string
	Status        AsyncJobStatus
	SourceID      string
}

// AsyncJobRepository stores async jobs
type AsyncJobRepository interface {
	FindByID(ctx context.Context, id string) (Optional[AsyncJob], error)
	Create(ctx context.Context, job *AsyncJob) (AsyncJob, error)
	Update(ctx context.Context, job *AsyncJob) (AsyncJob, error)
	Delete(ctx context.Context, id string) error
	FindPendingJobFor(ctx context.Context, sourceID string) (Optional[AsyncJob], error)
	Search(ctx context.Context, criteria *AsyncJobCriteria, pageable *Pageable) (Page[AsyncJob], error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

// GormAsyncJobRepository implements AsyncJobRepository using GORM
type GormAsyncJobRepository struct {
	entityStore[AsyncJob, models.AsyncJob]
}

// NewGormAsyncJobRepository creates a new GORM-backed async job repository
func NewGormAsyncJobRepository(db *gorm.DB) *GormAsyncJobRepository {
	return &GormAsyncJobRepository{entityStore[AsyncJob, models.AsyncJob]{
		gormStore: newGormStore[models.AsyncJob](db, "asyncJob"),
		toModel:   asyncJobToModel,
		fromModel: asyncJobFromModel,
		key:       func(m *models.AsyncJob) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormAsyncJobRepository) FindByID(ctx context.Context, id string) (Optional[AsyncJob], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormAsyncJobRepository) Create(ctx context.Context, job *AsyncJob) (AsyncJob, error) {
	return r.create(ctx, job)
}

func (r *GormAsyncJobRepository) Update(ctx context.Context, job *AsyncJob) (AsyncJob, error) {
	return r.update(ctx, job)
}

func (r *GormAsyncJobRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

// FindPendingJobFor returns the pending job of a source. Should several be
// pending, the most recent one wins.
func (r *GormAsyncJobRepository) FindPendingJobFor(ctx context.Context, sourceID string) (Optional[AsyncJob], error) {
	return r.findOne(ctx, "findPendingJobFor",
		where("source_id = ? AND status = ?", sourceID, string(JobPending)),
		orderBy("created_at DESC, id DESC"))
}

// Search lists matching jobs, newest first
func (r *GormAsyncJobRepository) Search(ctx context.Context, criteria *AsyncJobCriteria, pageable *Pageable) (Page[AsyncJob], error) {
	return r.search(ctx, "search", criteria.scope, "created_at DESC, id ASC", pageable)
}

func (r *GormAsyncJobRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func (c *AsyncJobCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.EnvironmentID != "" {
		db = db.Where("environment_id = ?", c.EnvironmentID)
	}
	if c.InitiatorID != "" {
		db = db.Where("initiator_id = ?", c.InitiatorID)
	}
	if c.Type != "" {
		db = db.Where("type = ?", c.Type)
	}
	if c.Status != "" {
		db = db.Where("status = ?", string(c.Status))
	}
	if c.SourceID != "" {
		db = db.Where("source_id = ?", c.SourceID)
	}
	return db
}

func asyncJobToModel(j *AsyncJob) *models.AsyncJob {
	return &models.AsyncJob{
		ID:            j.ID,
		SourceID:      j.SourceID,
		EnvironmentID: j.EnvironmentID,
		InitiatorID:   j.InitiatorID,
		Type:          j.Type,
		Status:        string(j.Status),
		ErrorMessage:  strPtr(j.ErrorMessage),
		DeadLine:      timePtr(j.DeadLine),
		CreatedAt:     timePtr(j.CreatedAt),
		UpdatedAt:     timePtr(j.UpdatedAt),
	}
}

func asyncJobFromModel(m *models.AsyncJob) AsyncJob {
	return AsyncJob{
		ID:            m.ID,
		SourceID:      m.SourceID,
		EnvironmentID: m.EnvironmentID,
		InitiatorID:   m.InitiatorID,
		Type:          m.Type,
		Status:        AsyncJobStatus(m.Status),
		ErrorMessage:  strValue(m.ErrorMessage),
		DeadLine:      timeValue(m.DeadLine),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
