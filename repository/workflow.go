package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Workflow records one review state transition of a referenced object
type Workflow struct {
	ID            string
	ReferenceType ReferenceType
	ReferenceID   string
	Type          string
	State         string
	Comment       string
	User          string
	CreatedAt     time.Time
}

// WorkflowRepository stores workflow transitions
type WorkflowRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Workflow], error)
	Create(ctx context.Context, workflow *Workflow) (Workflow, error)
	Update(ctx context.Context, workflow *Workflow) (Workflow, error)
	Delete(ctx context.Context, id string) error
	FindByReferenceAndType(ctx context.Context, referenceType ReferenceType, referenceID, workflowType string) ([]Workflow, error)
	FindByReferencesAndType(ctx context.Context, referenceType ReferenceType, referenceIDs []string, workflowType string) ([]Workflow, error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormWorkflowRepository implements WorkflowRepository using GORM
type GormWorkflowRepository struct {
	entityStore[Workflow, models.Workflow]
}

// NewGormWorkflowRepository creates a new GORM-backed workflow repository
func NewGormWorkflowRepository(db *gorm.DB) *GormWorkflowRepository {
	return &GormWorkflowRepository{entityStore[Workflow, models.Workflow]{
		gormStore: newGormStore[models.Workflow](db, "workflow"),
		toModel:   workflowToModel,
		fromModel: workflowFromModel,
		key:       func(m *models.Workflow) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(w *Workflow) error { return checkReferenceType(w.ReferenceType) },
	}}
}

func (r *GormWorkflowRepository) FindByID(ctx context.Context, id string) (Optional[Workflow], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormWorkflowRepository) Create(ctx context.Context, workflow *Workflow) (Workflow, error) {
	return r.create(ctx, workflow)
}

func (r *GormWorkflowRepository) Update(ctx context.Context, workflow *Workflow) (Workflow, error) {
	return r.update(ctx, workflow)
}

func (r *GormWorkflowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

// FindByReferenceAndType lists the transitions of one object, newest first
func (r *GormWorkflowRepository) FindByReferenceAndType(ctx context.Context, referenceType ReferenceType, referenceID, workflowType string) ([]Workflow, error) {
	return r.findMany(ctx, "findByReferenceAndType",
		byReference(referenceID, referenceType),
		where("type = ?", workflowType),
		orderBy("created_at DESC, id ASC"))
}

func (r *GormWorkflowRepository) FindByReferencesAndType(ctx context.Context, referenceType ReferenceType, referenceIDs []string, workflowType string) ([]Workflow, error) {
	if len(referenceIDs) == 0 {
		return []Workflow{}, nil
	}
	return r.findMany(ctx, "findByReferencesAndType",
		where("reference_type = ? AND reference_id IN ?", string(referenceType), referenceIDs),
		where("type = ?", workflowType),
		orderBy("created_at DESC, id ASC"))
}

func (r *GormWorkflowRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func workflowToModel(w *Workflow) *models.Workflow {
	return &models.Workflow{
		ID:            w.ID,
		ReferenceType: string(w.ReferenceType),
		ReferenceID:   w.ReferenceID,
		Type:          w.Type,
		State:         w.State,
		Comment:       w.Comment,
		User:          w.User,
		CreatedAt:     w.CreatedAt.UTC(),
	}
}

func workflowFromModel(m *models.Workflow) Workflow {
	return Workflow{
		ID:            m.ID,
		ReferenceType: ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Type:          m.Type,
		State:         m.State,
		Comment:       m.Comment,
		User:          m.User,
		CreatedAt:     m.CreatedAt.UTC(),
	}
}
