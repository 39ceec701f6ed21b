package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Dashboard is an analytics dashboard definition
type Dashboard struct {
	ID            string
	ReferenceType ReferenceType
	ReferenceID   string
	Type          string
	Name          string
	QueryFilter   string
	Order         int
	Enabled       bool
	Definition    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// DashboardRepository stores dashboards
type DashboardRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Dashboard], error)
	Create(ctx context.Context, dashboard *Dashboard) (Dashboard, error)
	Update(ctx context.Context, dashboard *Dashboard) (Dashboard, error)
	Delete(ctx context.Context, id string) error
	FindByReference(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Dashboard, error)
	FindByReferenceAndType(ctx context.Context, referenceType ReferenceType, referenceID, dashboardType string) ([]Dashboard, error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormDashboardRepository implements DashboardRepository using GORM
type GormDashboardRepository struct {
	entityStore[Dashboard, models.Dashboard]
}

// NewGormDashboardRepository creates a new GORM-backed dashboard repository
func NewGormDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{entityStore[Dashboard, models.Dashboard]{
		gormStore: newGormStore[models.Dashboard](db, "dashboard"),
		toModel:   dashboardToModel,
		fromModel: dashboardFromModel,
		key:       func(m *models.Dashboard) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(d *Dashboard) error { return checkReferenceType(d.ReferenceType) },
	}}
}

func (r *GormDashboardRepository) FindByID(ctx context.Context, id string) (Optional[Dashboard], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormDashboardRepository) Create(ctx context.Context, dashboard *Dashboard) (Dashboard, error) {
	return r.create(ctx, dashboard)
}

func (r *GormDashboardRepository) Update(ctx context.Context, dashboard *Dashboard) (Dashboard, error) {
	return r.update(ctx, dashboard)
}

func (r *GormDashboardRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormDashboardRepository) FindByReference(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Dashboard, error) {
	return r.findMany(ctx, "findByReference", byReference(referenceID, referenceType), orderBy("position ASC, id ASC"))
}

func (r *GormDashboardRepository) FindByReferenceAndType(ctx context.Context, referenceType ReferenceType, referenceID, dashboardType string) ([]Dashboard, error) {
	return r.findMany(ctx, "findByReferenceAndType",
		byReference(referenceID, referenceType), where("type = ?", dashboardType), orderBy("position ASC, id ASC"))
}

func (r *GormDashboardRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func dashboardToModel(d *Dashboard) *models.Dashboard {
	return &models.Dashboard{
		ID:            d.ID,
		ReferenceType: string(d.ReferenceType),
		ReferenceID:   d.ReferenceID,
		Type:          d.Type,
		Name:          d.Name,
		QueryFilter:   d.QueryFilter,
		Position:      d.Order,
		Enabled:       models.DBBool(d.Enabled),
		Definition:    models.DBText(d.Definition),
		CreatedAt:     timePtr(d.CreatedAt),
		UpdatedAt:     timePtr(d.UpdatedAt),
	}
}

func dashboardFromModel(m *models.Dashboard) Dashboard {
	return Dashboard{
		ID:            m.ID,
		ReferenceType: ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Type:          m.Type,
		Name:          m.Name,
		QueryFilter:   m.QueryFilter,
		Order:         m.Position,
		Enabled:       m.Enabled.Bool(),
		Definition:    m.Definition.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
