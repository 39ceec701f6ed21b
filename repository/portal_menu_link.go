package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// PortalMenuLinkVisibility controls who sees a menu link
type PortalMenuLinkVisibility string

const (
	MenuLinkPublic  PortalMenuLinkVisibility = "PUBLIC"
	MenuLinkPrivate PortalMenuLinkVisibility = "PRIVATE"
)

// PortalMenuLink is a custom link shown in the portal header
type PortalMenuLink struct {
	ID            string
	EnvironmentID string
	Name          string
	Type          string
	Target        string
	Visibility    PortalMenuLinkVisibility
	Order         int
}

// PortalMenuLinkRepository stores portal menu links
type PortalMenuLinkRepository interface {
	FindByID(ctx context.Context, id string) (Optional[PortalMenuLink], error)
	Create(ctx context.Context, link *PortalMenuLink) (PortalMenuLink, error)
	Update(ctx context.Context, link *PortalMenuLink) (PortalMenuLink, error)
	Delete(ctx context.Context, id string) error
	FindByIDAndEnvironmentID(ctx context.Context, id, environmentID string) (Optional[PortalMenuLink], error)
	FindByEnvironmentIDSortByOrder(ctx context.Context, environmentID string) ([]PortalMenuLink, error)
	FindByEnvironmentIDAndVisibilitySortByOrder(ctx context.Context, environmentID string, visibility PortalMenuLinkVisibility) ([]PortalMenuLink, error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

// GormPortalMenuLinkRepository implements PortalMenuLinkRepository using GORM
type GormPortalMenuLinkRepository struct {
	entityStore[PortalMenuLink, models.PortalMenuLink]
}

// NewGormPortalMenuLinkRepository creates a new GORM-backed portal menu link repository
func NewGormPortalMenuLinkRepository(db *gorm.DB) *GormPortalMenuLinkRepository {
	return &GormPortalMenuLinkRepository{entityStore[PortalMenuLink, models.PortalMenuLink]{
		gormStore: newGormStore[models.PortalMenuLink](db, "portalMenuLink"),
		toModel:   portalMenuLinkToModel,
		fromModel: portalMenuLinkFromModel,
		key:       func(m *models.PortalMenuLink) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormPortalMenuLinkRepository) FindByID(ctx context.Context, id string) (Optional[PortalMenuLink], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormPortalMenuLinkRepository) Create(ctx context.Context, link *PortalMenuLink) (PortalMenuLink, error) {
	return r.create(ctx, link)
}

func (r *GormPortalMenuLinkRepository) Update(ctx context.Context, link *PortalMenuLink) (PortalMenuLink, error) {
	return r.update(ctx, link)
}

func (r *GormPortalMenuLinkRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormPortalMenuLinkRepository) FindByIDAndEnvironmentID(ctx context.Context, id, environmentID string) (Optional[PortalMenuLink], error) {
	return r.findOne(ctx, "findByIdAndEnvironmentId", byID(id), byEnvironment(environmentID))
}

func (r *GormPortalMenuLinkRepository) FindByEnvironmentIDSortByOrder(ctx context.Context, environmentID string) ([]PortalMenuLink, error) {
	return r.findMany(ctx, "findByEnvironmentIdSortByOrder", byEnvironment(environmentID), orderBy("position ASC, id ASC"))
}

func (r *GormPortalMenuLinkRepository) FindByEnvironmentIDAndVisibilitySortByOrder(ctx context.Context, environmentID string, visibility PortalMenuLinkVisibility) ([]PortalMenuLink, error) {
	return r.findMany(ctx, "findByEnvironmentIdAndVisibilitySortByOrder",
		byEnvironment(environmentID),
		where("visibility = ?", string(visibility)),
		orderBy("position ASC, id ASC"))
}

func (r *GormPortalMenuLinkRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func portalMenuLinkToModel(l *PortalMenuLink) *models.PortalMenuLink {
	return &models.PortalMenuLink{
		ID:            l.ID,
		EnvironmentID: l.EnvironmentID,
		Name:          l.Name,
		Type:          l.Type,
		Target:        l.Target,
		Visibility:    string(l.Visibility),
		Position:      l.Order,
	}
}

func portalMenuLinkFromModel(m *models.PortalMenuLink) PortalMenuLink {
	return PortalMenuLink{
		ID:            m.ID,
		EnvironmentID: m.EnvironmentID,
		Name:          m.Name,
		Type:          m.Type,
		Target:        m.Target,
		Visibility:    PortalMenuLinkVisibility(m.Visibility),
		Order:         m.Position,
	}
}
