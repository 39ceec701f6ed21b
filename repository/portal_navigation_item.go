package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// NavigationItemType is the kind of navigation node
type NavigationItemType string

const (
	NavigationFolder NavigationItemType = "FOLDER"
	NavigationPage   NavigationItemType = "PAGE"
	NavigationLink   NavigationItemType = "LINK"
)

// NavigationArea is the portal area a navigation tree is rendered in
type NavigationArea string

const (
	AreaHomepage  NavigationArea = "HOMEPAGE"
	AreaTopNavbar NavigationArea = "TOP_NAVBAR"
)

// PortalNavigationItem is one node of a portal navigation tree. Roots have no parent.
type PortalNavigationItem struct {
	ID             string
	OrganizationID string
	EnvironmentID  string
	Title          string
	Type           NavigationItemType
	Area           NavigationArea
	ParentID       string
	Order          int
	Configuration  map[string]string
}

// PortalNavigationItemRepository stores navigation trees
type PortalNavigationItemRepository interface {
	FindByID(ctx context.Context, id string) (Optional[PortalNavigationItem], error)
	Create(ctx context.Context, item *PortalNavigationItem) (PortalNavigationItem, error)
	Update(ctx context.Context, item *PortalNavigationItem) (PortalNavigationItem, error)
	Delete(ctx context.Context, id string) error
	FindAllByOrganizationIDAndEnvironmentID(ctx context.Context, organizationID, environmentID string) ([]PortalNavigationItem, error)
	FindAllByAreaAndEnvironmentID(ctx context.Context, area NavigationArea, environmentID string) ([]PortalNavigationItem, error)
	FindAllByParentIDAndEnvironmentID(ctx context.Context, parentID, environmentID string) ([]PortalNavigationItem, error)
	FindRootsByAreaAndEnvironmentID(ctx context.Context, area NavigationArea, environmentID string) ([]PortalNavigationItem, error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
	DeleteByOrganizationID(ctx context.Context, organizationID string) ([]string, error)
}

// GormPortalNavigationItemRepository implements PortalNavigationItemRepository using GORM
type GormPortalNavigationItemRepository struct {
	entityStore[PortalNavigationItem, models.PortalNavigationItem]
}

// NewGormPortalNavigationItemRepository creates a new GORM-backed navigation item repository
func NewGormPortalNavigationItemRepository(db *gorm.DB) *GormPortalNavigationItemRepository {
	return &GormPortalNavigationItemRepository{entityStore[PortalNavigationItem, models.PortalNavigationItem]{
		gormStore: newGormStore[models.PortalNavigationItem](db, "portalNavigationItem"),
		toModel:   navigationItemToModel,
		fromModel: navigationItemFromModel,
		key:       func(m *models.PortalNavigationItem) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

const navigationOrder = "position ASC, id ASC"

func (r *GormPortalNavigationItemRepository) FindByID(ctx context.Context, id string) (Optional[PortalNavigationItem], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormPortalNavigationItemRepository) Create(ctx context.Context, item *PortalNavigationItem) (PortalNavigationItem, error) {
	return r.create(ctx, item)
}

func (r *GormPortalNavigationItemRepository) Update(ctx context.Context, item *PortalNavigationItem) (PortalNavigationItem, error) {
	return r.update(ctx, item)
}

func (r *GormPortalNavigationItemRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormPortalNavigationItemRepository) FindAllByOrganizationIDAndEnvironmentID(ctx context.Context, organizationID, environmentID string) ([]PortalNavigationItem, error) {
	return r.findMany(ctx, "findAllByOrganizationIdAndEnvironmentId",
		where("organization_id = ?", organizationID), byEnvironment(environmentID), orderBy(navigationOrder))
}

func (r *GormPortalNavigationItemRepository) FindAllByAreaAndEnvironmentID(ctx context.Context, area NavigationArea, environmentID string) ([]PortalNavigationItem, error) {
	return r.findMany(ctx, "findAllByAreaAndEnvironmentId",
		where("area = ?", string(area)), byEnvironment(environmentID), orderBy(navigationOrder))
}

func (r *GormPortalNavigationItemRepository) FindAllByParentIDAndEnvironmentID(ctx context.Context, parentID, environmentID string) ([]PortalNavigationItem, error) {
	return r.findMany(ctx, "findAllByParentIdAndEnvironmentId",
		where("parent_id = ?", parentID), byEnvironment(environmentID), orderBy(navigationOrder))
}

func (r *GormPortalNavigationItemRepository) FindRootsByAreaAndEnvironmentID(ctx context.Context, area NavigationArea, environmentID string) ([]PortalNavigationItem, error) {
	return r.findMany(ctx, "findRootsByAreaAndEnvironmentId",
		where("area = ? AND parent_id IS NULL", string(area)), byEnvironment(environmentID), orderBy(navigationOrder))
}

func (r *GormPortalNavigationItemRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func (r *GormPortalNavigationItemRepository) DeleteByOrganizationID(ctx context.Context, organizationID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByOrganizationId", "id", where("organization_id = ?", organizationID))
}

func navigationItemToModel(i *PortalNavigationItem) *models.PortalNavigationItem {
	return &models.PortalNavigationItem{
		ID:             i.ID,
		OrganizationID: i.OrganizationID,
		EnvironmentID:  i.EnvironmentID,
		Title:          i.Title,
		Type:           string(i.Type),
		Area:           string(i.Area),
		ParentID:       strPtr(i.ParentID),
		Position:       i.Order,
		Configuration:  models.StringMap(i.Configuration),
	}
}

func navigationItemFromModel(m *models.PortalNavigationItem) PortalNavigationItem {
	return PortalNavigationItem{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		EnvironmentID:  m.EnvironmentID,
		Title:          m.Title,
		Type:           NavigationItemType(m.Type),
		Area:           NavigationArea(m.Area),
		ParentID:       strValue(m.ParentID),
		Order:          m.Position,
		Configuration:  stringMap(m.Configuration),
	}
}
