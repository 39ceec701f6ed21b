package repository

import (
	"context"
	"slices"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Organization is the top-level tenant of the platform
type Organization struct {
	ID          string
	CockpitID   string
	Hrids       []string
	Name        string
	Description string
	FlowMode    string
}

// OrganizationRepository stores organizations
type OrganizationRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Organization], error)
	Create(ctx context.Context, org *Organization) (Organization, error)
	Update(ctx context.Context, org *Organization) (Organization, error)
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]Organization, error)
	FindByHrids(ctx context.Context, hrids []string) ([]Organization, error)
	FindByCockpitID(ctx context.Context, cockpitID string) (Optional[Organization], error)
	Count(ctx context.Context) (int64, error)
}

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	entityStore[Organization, models.Organization]
}

// NewGormOrganizationRepository creates a new GORM-backed organization repository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{entityStore[Organization, models.Organization]{
		gormStore: newGormStore[models.Organization](db, "organization"),
		toModel:   organizationToModel,
		fromModel: organizationFromModel,
		key:       func(m *models.Organization) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormOrganizationRepository) FindByID(ctx context.Context, id string) (Optional[Organization], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormOrganizationRepository) Create(ctx context.Context, org *Organization) (Organization, error) {
	return r.create(ctx, org)
}

func (r *GormOrganizationRepository) Update(ctx context.Context, org *Organization) (Organization, error) {
	return r.update(ctx, org)
}

func (r *GormOrganizationRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormOrganizationRepository) FindAll(ctx context.Context) ([]Organization, error) {
	return r.findMany(ctx, "findAll", orderBy("id ASC"))
}

// FindByHrids returns the organizations carrying at least one of the given hrids
func (r *GormOrganizationRepository) FindByHrids(ctx context.Context, hrids []string) ([]Organization, error) {
	if len(hrids) == 0 {
		return []Organization{}, nil
	}
	// hrids is a StringArray stored as JSON text, and there is no array-contains
	// predicate that works on every dialect, so the match happens in memory
	all, err := r.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(o Organization) bool {
		return !sharesAny(o.Hrids, hrids)
	}), nil
}

func (r *GormOrganizationRepository) FindByCockpitID(ctx context.Context, cockpitID string) (Optional[Organization], error) {
	return r.findOne(ctx, "findByCockpitId", where("cockpit_id = ?", cockpitID))
}

func (r *GormOrganizationRepository) Count(ctx context.Context) (int64, error) {
	return r.count(ctx, "count")
}

// sharesAny reports whether the two sets intersect
func sharesAny(have, want []string) bool {
	for _, h := range have {
		if slices.Contains(want, h) {
			return true
		}
	}
	return false
}

func organizationToModel(o *Organization) *models.Organization {
	return &models.Organization{
		ID:          o.ID,
		CockpitID:   strPtr(o.CockpitID),
		Hrids:       models.StringArray(o.Hrids),
		Name:        o.Name,
		Description: o.Description,
		FlowMode:    o.FlowMode,
	}
}

func organizationFromModel(m *models.Organization) Organization {
	return Organization{
		ID:          m.ID,
		CockpitID:   strValue(m.CockpitID),
		Hrids:       stringSlice(m.Hrids),
		Name:        m.Name,
		Description: m.Description,
		FlowMode:    m.FlowMode,
	}
}
