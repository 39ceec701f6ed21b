package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Flow is an ordered policy flow attached to a reference. Steps hold the
// serialized step definitions as stored.
type Flow struct {
	ID            string
	ReferenceType ReferenceType
	ReferenceID   string
	Name          string
	Path          string
	Condition     string
	Enabled       bool
	Order         int
	Steps         string
	Tags          []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FlowRepository stores flows
type FlowRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Flow], error)
	Create(ctx context.Context, flow *Flow) (Flow, error)
	Update(ctx context.Context, flow *Flow) (Flow, error)
	Delete(ctx context.Context, id string) error
	FindByReference(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Flow, error)
	DeleteAllByID(ctx context.Context, ids []string) error
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormFlowRepository implements FlowRepository using GORM
type GormFlowRepository struct {
	entityStore[Flow, models.Flow]
}

// NewGormFlowRepository creates a new GORM-backed flow repository
func NewGormFlowRepository(db *gorm.DB) *GormFlowRepository {
	return &GormFlowRepository{entityStore[Flow, models.Flow]{
		gormStore: newGormStore[models.Flow](db, "flow"),
		toModel:   flowToModel,
		fromModel: flowFromModel,
		key:       func(m *models.Flow) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(f *Flow) error { return checkReferenceType(f.ReferenceType) },
	}}
}

func (r *GormFlowRepository) FindByID(ctx context.Context, id string) (Optional[Flow], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormFlowRepository) Create(ctx context.Context, flow *Flow) (Flow, error) {
	return r.create(ctx, flow)
}

func (r *GormFlowRepository) Update(ctx context.Context, flow *Flow) (Flow, error) {
	return r.update(ctx, flow)
}

func (r *GormFlowRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

// FindByReference lists the flows of a reference in execution order
func (r *GormFlowRepository) FindByReference(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Flow, error) {
	return r.findMany(ctx, "findByReference", byReference(referenceID, referenceType), orderBy("position ASC, id ASC"))
}

func (r *GormFlowRepository) DeleteAllByID(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.remove(ctx, "deleteAllById", where("id IN ?", ids))
	return err
}

func (r *GormFlowRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func flowToModel(f *Flow) *models.Flow {
	return &models.Flow{
		ID:            f.ID,
		ReferenceType: string(f.ReferenceType),
		ReferenceID:   f.ReferenceID,
		Name:          f.Name,
		Path:          f.Path,
		Condition:     f.Condition,
		Enabled:       models.DBBool(f.Enabled),
		Position:      f.Order,
		Steps:         models.DBText(f.Steps),
		Tags:          models.StringArray(f.Tags),
		CreatedAt:     timePtr(f.CreatedAt),
		UpdatedAt:     timePtr(f.UpdatedAt),
	}
}

func flowFromModel(m *models.Flow) Flow {
	return Flow{
		ID:            m.ID,
		ReferenceType: ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Name:          m.Name,
		Path:          m.Path,
		Condition:     m.Condition,
		Enabled:       m.Enabled.Bool(),
		Order:         m.Position,
		Steps:         m.Steps.String(),
		Tags:          stringSlice(m.Tags),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
