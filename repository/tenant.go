package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Tenant identifies a gateway tenant inside a reference scope
type Tenant struct {
	ID            string
	Name          string
	Description   string
	ReferenceID   string
	ReferenceType ReferenceType
}

// TenantRepository stores tenants
type TenantRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Tenant], error)
	Create(ctx context.Context, tenant *Tenant) (Tenant, error)
	Update(ctx context.Context, tenant *Tenant) (Tenant, error)
	Delete(ctx context.Context, id string) error
	FindByReference(ctx context.Context, referenceID string, referenceType ReferenceType) ([]Tenant, error)
	FindByIDAndReference(ctx context.Context, id, referenceID string, referenceType ReferenceType) (Optional[Tenant], error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	entityStore[Tenant, models.Tenant]
}

// NewGormTenantRepository creates a new GORM-backed tenant repository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{entityStore[Tenant, models.Tenant]{
		gormStore: newGormStore[models.Tenant](db, "tenant"),
		toModel:   tenantToModel,
		fromModel: tenantFromModel,
		key:       func(m *models.Tenant) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(t *Tenant) error { return checkReferenceType(t.ReferenceType) },
	}}
}

func (r *GormTenantRepository) FindByID(ctx context.Context, id string) (Optional[Tenant], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormTenantRepository) Create(ctx context.Context, tenant *Tenant) (Tenant, error) {
	return r.create(ctx, tenant)
}

func (r *GormTenantRepository) Update(ctx context.Context, tenant *Tenant) (Tenant, error) {
	return r.update(ctx, tenant)
}

func (r *GormTenantRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormTenantRepository) FindByReference(ctx context.Context, referenceID string, referenceType ReferenceType) ([]Tenant, error) {
	return r.findMany(ctx, "findByReference", byReference(referenceID, referenceType), orderBy("id ASC"))
}

func (r *GormTenantRepository) FindByIDAndReference(ctx context.Context, id, referenceID string, referenceType ReferenceType) (Optional[Tenant], error) {
	return r.findOne(ctx, "findByIdAndReference", byID(id), byReference(referenceID, referenceType))
}

func (r *GormTenantRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func tenantToModel(t *Tenant) *models.Tenant {
	return &models.Tenant{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		ReferenceID:   t.ReferenceID,
		ReferenceType: string(t.ReferenceType),
	}
}

func tenantFromModel(m *models.Tenant) Tenant {
	return Tenant{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		ReferenceID:   m.ReferenceID,
		ReferenceType: ReferenceType(m.ReferenceType),
	}
}
