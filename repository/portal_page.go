package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// PortalPage is a page of the developer portal
type PortalPage struct {
	ID            string
	EnvironmentID string
	Name          string
	Content       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PortalPageRepository stores portal pages. Unlike most repositories, deleting
// an unknown page fails with ErrNotFound.
type PortalPageRepository interface {
	FindByID(ctx context.Context, id string) (Optional[PortalPage], error)
	Create(ctx context.Context, page *PortalPage) (PortalPage, error)
	Update(ctx context.Context, page *PortalPage) (PortalPage, error)
	Delete(ctx context.Context, id string) error
	FindByIDs(ctx context.Context, ids []string) ([]PortalPage, error)
	FindByEnvironmentID(ctx context.Context, environmentID string) ([]PortalPage, error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

// GormPortalPageRepository implements PortalPageRepository using GORM
type GormPortalPageRepository struct {
	entityStore[PortalPage, models.PortalPage]
}

// NewGormPortalPageRepository creates a new GORM-backed portal page repository
func NewGormPortalPageRepository(db *gorm.DB) *GormPortalPageRepository {
	return &GormPortalPageRepository{entityStore[PortalPage, models.PortalPage]{
		gormStore: newGormStore[models.PortalPage](db, "portalPage"),
		toModel:   portalPageToModel,
		fromModel: portalPageFromModel,
		key:       func(m *models.PortalPage) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormPortalPageRepository) FindByID(ctx context.Context, id string) (Optional[PortalPage], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormPortalPageRepository) Create(ctx context.Context, page *PortalPage) (PortalPage, error) {
	return r.create(ctx, page)
}

func (r *GormPortalPageRepository) Update(ctx context.Context, page *PortalPage) (PortalPage, error) {
	return r.update(ctx, page)
}

// Delete removes the page and fails with ErrNotFound when there is none
func (r *GormPortalPageRepository) Delete(ctx context.Context, id string) error {
	n, err := r.remove(ctx, "delete", byID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(r.entity, id)
	}
	return nil
}

func (r *GormPortalPageRepository) FindByIDs(ctx context.Context, ids []string) ([]PortalPage, error) {
	if len(ids) == 0 {
		return []PortalPage{}, nil
	}
	return r.findMany(ctx, "findByIds", where("id IN ?", ids), orderBy("id ASC"))
}

func (r *GormPortalPageRepository) FindByEnvironmentID(ctx context.Context, environmentID string) ([]PortalPage, error) {
	return r.findMany(ctx, "findByEnvironmentId", byEnvironment(environmentID), orderBy("id ASC"))
}

func (r *GormPortalPageRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func portalPageToModel(p *PortalPage) *models.PortalPage {
	return &models.PortalPage{
		ID:            p.ID,
		EnvironmentID: p.EnvironmentID,
		Name:          p.Name,
		Content:       models.DBText(p.Content),
		CreatedAt:     timePtr(p.CreatedAt),
		UpdatedAt:     timePtr(p.UpdatedAt),
	}
}

func portalPageFromModel(m *models.PortalPage) PortalPage {
	return PortalPage{
		ID:            m.ID,
		EnvironmentID: m.EnvironmentID,
		Name:          m.Name,
		Content:       m.Content.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
