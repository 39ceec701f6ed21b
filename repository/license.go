package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// License is the license text owned by one reference
type License struct {
	ReferenceID   string
	ReferenceType ReferenceType
	License       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LicenseCriteria filters licenses. From and To bound updated_at inclusively.
type LicenseCriteria struct {
	ReferenceType ReferenceType
	ReferenceIDs  []string
	From          time.Time
	To            time.Time
}

// LicenseRepository stores licenses keyed by their reference
type LicenseRepository interface {
	FindByID(ctx context.Context, referenceID string, referenceType ReferenceType) (Optional[License], error)
	Create(ctx context.Context, license *License) (License, error)
	Update(ctx context.Context, license *License) (License, error)
	Delete(ctx context.Context, referenceID string, referenceType ReferenceType) error
	FindByCriteria(ctx context.Context, criteria *LicenseCriteria, pageable *Pageable) (Page[License], error)
}

// GormLicenseRepository implements LicenseRepository using GORM
type GormLicenseRepository struct {
	entityStore[License, models.License]
}

// NewGormLicenseRepository creates a new GORM-backed license repository
func NewGormLicenseRepository(db *gorm.DB) *GormLicenseRepository {
	return &GormLicenseRepository{entityStore[License, models.License]{
		gormStore: newGormStore[models.License](db, "license"),
		toModel:   licenseToModel,
		fromModel: licenseFromModel,
		key: func(m *models.License) (scope, []string) {
			return byReference(m.ReferenceID, ReferenceType(m.ReferenceType)), []string{m.ReferenceID, m.ReferenceType}
		},
		validate: func(l *License) error { return checkReferenceType(l.ReferenceType) },
	}}
}

func (r *GormLicenseRepository) FindByID(ctx context.Context, referenceID string, referenceType ReferenceType) (Optional[License], error) {
	return r.findOne(ctx, "findById", byReference(referenceID, referenceType))
}

func (r *GormLicenseRepository) Create(ctx context.Context, license *License) (License, error) {
	return r.create(ctx, license)
}

func (r *GormLicenseRepository) Update(ctx context.Context, license *License) (License, error) {
	return r.update(ctx, license)
}

func (r *GormLicenseRepository) Delete(ctx context.Context, referenceID string, referenceType ReferenceType) error {
	_, err := r.remove(ctx, "delete", byReference(referenceID, referenceType))
	return err
}

func (r *GormLicenseRepository) FindByCriteria(ctx context.Context, criteria *LicenseCriteria, pageable *Pageable) (Page[License], error) {
	return r.search(ctx, "findByCriteria", criteria.scope, "reference_type ASC, reference_id ASC", pageable)
}

func (c *LicenseCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.ReferenceType != "" {
		db = db.Where("reference_type = ?", string(c.ReferenceType))
	}
	if len(c.ReferenceIDs) > 0 {
		db = db.Where("reference_id IN ?", c.ReferenceIDs)
	}
	if !c.From.IsZero() {
		db = db.Where("updated_at >= ?", c.From.UTC())
	}
	if !c.To.IsZero() {
		db = db.Where("updated_at <= ?", c.To.UTC())
	}
	return db
}

func licenseToModel(l *License) *models.License {
	return &models.License{
		ReferenceID:   l.ReferenceID,
		ReferenceType: string(l.ReferenceType),
		License:       models.DBText(l.License),
		CreatedAt:     timePtr(l.CreatedAt),
		UpdatedAt:     timePtr(l.UpdatedAt),
	}
}

func licenseFromModel(m *models.License) License {
	return License{
		ReferenceID:   m.ReferenceID,
		ReferenceType: ReferenceType(m.ReferenceType),
		License:       m.License.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
