package repository

import (
	"context"
	"slices"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Environment belongs to exactly one organization
type Environment struct {
	ID                 string
	CockpitID          string
	Hrids              []string
	Name               string
	Description        string
	OrganizationID     string
	DomainRestrictions []string
}

// EnvironmentRepository stores environments
type EnvironmentRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Environment], error)
	Create(ctx context.Context, env *Environment) (Environment, error)
	Update(ctx context.Context, env *Environment) (Environment, error)
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]Environment, error)
	FindByOrganization(ctx context.Context, organizationID string) ([]Environment, error)
	FindByOrganizationsAndHrids(ctx context.Context, organizationIDs, hrids []string) ([]Environment, error)
	FindByCockpitID(ctx context.Context, cockpitID string) (Optional[Environment], error)
}

// GormEnvironmentRepository implements EnvironmentRepository using GORM
type GormEnvironmentRepository struct {
	entityStore[Environment, models.Environment]
}

// NewGormEnvironmentRepository creates a new GORM-backed environment repository
func NewGormEnvironmentRepository(db *gorm.DB) *GormEnvironmentRepository {
	return &GormEnvironmentRepository{entityStore[Environment, models.Environment]{
		gormStore: newGormStore[models.Environment](db, "environment"),
		toModel:   environmentToModel,
		fromModel: environmentFromModel,
		key:       func(m *models.Environment) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormEnvironmentRepository) FindByID(ctx context.Context, id string) (Optional[Environment], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormEnvironmentRepository) Create(ctx context.Context, env *Environment) (Environment, error) {
	return r.create(ctx, env)
}

func (r *GormEnvironmentRepository) Update(ctx context.Context, env *Environment) (Environment, error) {
	return r.update(ctx, env)
}

func (r *GormEnvironmentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormEnvironmentRepository) FindAll(ctx context.Context) ([]Environment, error) {
	return r.findMany(ctx, "findAll", orderBy("id ASC"))
}

func (r *GormEnvironmentRepository) FindByOrganization(ctx context.Context, organizationID string) ([]Environment, error) {
	return r.findMany(ctx, "findByOrganization", where("organization_id = ?", organizationID), orderBy("id ASC"))
}

// FindByOrganizationsAndHrids filters on whichever side is non-empty. With both
// sides empty nothing matches.
func (r *GormEnvironmentRepository) FindByOrganizationsAndHrids(ctx context.Context, organizationIDs, hrids []string) ([]Environment, error) {
	if len(organizationIDs) == 0 && len(hrids) == 0 {
		return []Environment{}, nil
	}
	var filter scope
	if len(organizationIDs) > 0 {
		filter = where("organization_id IN ?", organizationIDs)
	}
	envs, err := r.findMany(ctx, "findByOrganizationsAndHrids", filter, orderBy("id ASC"))
	if err != nil {
		return nil, err
	}
	if len(hrids) == 0 {
		return envs, nil
	}
	// StringArray columns cannot be queried portably; filter hrids in memory
	return slices.DeleteFunc(envs, func(e Environment) bool {
		return !sharesAny(e.Hrids, hrids)
	}), nil
}

func (r *GormEnvironmentRepository) FindByCockpitID(ctx context.Context, cockpitID string) (Optional[Environment], error) {
	return r.findOne(ctx, "findByCockpitId", where("cockpit_id = ?", cockpitID))
}

func environmentToModel(e *Environment) *models.Environment {
	return &models.Environment{
		ID:                 e.ID,
		CockpitID:          strPtr(e.CockpitID),
		Hrids:              models.StringArray(e.Hrids),
		Name:               e.Name,
		Description:        e.Description,
		OrganizationID:     e.OrganizationID,
		DomainRestrictions: models.StringArray(e.DomainRestrictions),
	}
}

func environmentFromModel(m *models.Environment) Environment {
	return Environment{
		ID:                 m.ID,
		CockpitID:          strValue(m.CockpitID),
		Hrids:              stringSlice(m.Hrids),
		Name:               m.Name,
		Description:        m.Description,
		OrganizationID:     m.OrganizationID,
		DomainRestrictions: stringSlice(m.DomainRestrictions),
	}
}
