package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Theme is a portal theme
type Theme struct {
	ID            string
	ReferenceType ReferenceType
	ReferenceID   string
	Type          string
	Name          string
	Enabled       bool
	Definition    string
	Logo          string
	Favicon       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ThemeCriteria filters themes; zero fields match everything
type ThemeCriteria struct {
	Type          string
	Enabled       *bool
	ReferenceID   string
	ReferenceType ReferenceType
}

// ThemeRepository stores themes
type ThemeRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Theme], error)
	Create(ctx context.Context, theme *Theme) (Theme, error)
	Update(ctx context.Context, theme *Theme) (Theme, error)
	Delete(ctx context.Context, id string) error
	FindByReferenceIDAndReferenceTypeAndType(ctx context.Context, referenceID string, referenceType ReferenceType, themeType string) ([]Theme, error)
	Search(ctx context.Context, criteria *ThemeCriteria, pageable *Pageable) (Page[Theme], error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormThemeRepository implements ThemeRepository using GORM
type GormThemeRepository struct {
	entityStore[Theme, models.Theme]
}

// NewGormThemeRepository creates a new GORM-backed theme repository
func NewGormThemeRepository(db *gorm.DB) *GormThemeRepository {
	return &GormThemeRepository{entityStore[Theme, models.Theme]{
		gormStore: newGormStore[models.Theme](db, "theme"),
		toModel:   themeToModel,
		fromModel: themeFromModel,
		key:       func(m *models.Theme) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(t *Theme) error { return checkReferenceType(t.ReferenceType) },
	}}
}

func (r *GormThemeRepository) FindByID(ctx context.Context, id string) (Optional[Theme], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormThemeRepository) Create(ctx context.Context, theme *Theme) (Theme, error) {
	return r.create(ctx, theme)
}

func (r *GormThemeRepository) Update(ctx context.Context, theme *Theme) (Theme, error) {
	return r.update(ctx, theme)
}

func (r *GormThemeRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormThemeRepository) FindByReferenceIDAndReferenceTypeAndType(ctx context.Context, referenceID string, referenceType ReferenceType, themeType string) ([]Theme, error) {
	return r.findMany(ctx, "findByReferenceAndType",
		byReference(referenceID, referenceType), where("type = ?", themeType), orderBy("id ASC"))
}

func (r *GormThemeRepository) Search(ctx context.Context, criteria *ThemeCriteria, pageable *Pageable) (Page[Theme], error) {
	return r.search(ctx, "search", criteria.scope, "name ASC, id ASC", pageable)
}

func (r *GormThemeRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func (c *ThemeCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.Type != "" {
		db = db.Where("type = ?", c.Type)
	}
	if c.Enabled != nil {
		db = db.Where("enabled = ?", models.DBBool(*c.Enabled))
	}
	if c.ReferenceID != "" {
		db = db.Where("reference_id = ?", c.ReferenceID)
	}
	if c.ReferenceType != "" {
		db = db.Where("reference_type = ?", string(c.ReferenceType))
	}
	return db
}

func themeToModel(t *Theme) *models.Theme {
	return &models.Theme{
		ID:            t.ID,
		ReferenceType: string(t.ReferenceType),
		ReferenceID:   t.ReferenceID,
		Type:          t.Type,
		Name:          t.Name,
		Enabled:       models.DBBool(t.Enabled),
		Definition:    models.DBText(t.Definition),
		Logo:          models.DBText(t.Logo),
		Favicon:       models.DBText(t.Favicon),
		CreatedAt:     timePtr(t.CreatedAt),
		UpdatedAt:     timePtr(t.UpdatedAt),
	}
}

func themeFromModel(m *models.Theme) Theme {
	return Theme{
		ID:            m.ID,
		ReferenceType: ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Type:          m.Type,
		Name:          m.Name,
		Enabled:       m.Enabled.Bool(),
		Definition:    m.Definition.String(),
		Logo:          m.Logo.String(),
		Favicon:       m.Favicon.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
