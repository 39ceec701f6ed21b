package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// DocumentationPage is a documentation page of an API or portal
type DocumentationPage struct {
	ID                     string
	ReferenceID            string
	ReferenceType          ReferenceType
	Name                   string
	Type                   string
	Content                string
	LastContributor        string
	Order                  int
	Published              bool
	Visibility             string
	Homepage               bool
	ParentID               string
	UseAutoFetch           *bool
	ExcludedAccessControls bool
	Configuration          map[string]string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// PageCriteria filters documentation pages; nil and empty fields match everything.
// RootParent selects pages without a parent.
type PageCriteria struct {
	ReferenceID   string
	ReferenceType ReferenceType
	Homepage      *bool
	Type          string
	Name          string
	Published     *bool
	Visibility    string
	Parent        string
	RootParent    *bool
	UseAutoFetch  *bool
}

// PageRepository stores documentation pages
type PageRepository interface {
	FindByID(ctx context.Context, id string) (Optional[DocumentationPage], error)
	Create(ctx context.Context, page *DocumentationPage) (DocumentationPage, error)
	Update(ctx context.Context, page *DocumentationPage) (DocumentationPage, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria *PageCriteria) ([]DocumentationPage, error)
	FindAll(ctx context.Context, pageable *Pageable) (Page[DocumentationPage], error)
	FindMaxOrder(ctx context.Context, referenceID string, referenceType ReferenceType) (Optional[int], error)
	CountByParentIDAndIsPublished(ctx context.Context, parentID string) (int64, error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormPageRepository implements PageRepository using GORM
type GormPageRepository struct {
	entityStore[DocumentationPage, models.Page]
}

// NewGormPageRepository creates a new GORM-backed documentation page repository
func NewGormPageRepository(db *gorm.DB) *GormPageRepository {
	return &GormPageRepository{entityStore[DocumentationPage, models.Page]{
		gormStore: newGormStore[models.Page](db, "page"),
		toModel:   pageToModel,
		fromModel: pageFromModel,
		key:       func(m *models.Page) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(p *DocumentationPage) error { return checkReferenceType(p.ReferenceType) },
	}}
}

func (r *GormPageRepository) FindByID(ctx context.Context, id string) (Optional[DocumentationPage], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormPageRepository) Create(ctx context.Context, page *DocumentationPage) (DocumentationPage, error) {
	return r.create(ctx, page)
}

func (r *GormPageRepository) Update(ctx context.Context, page *DocumentationPage) (DocumentationPage, error) {
	return r.update(ctx, page)
}

func (r *GormPageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

// Search lists matching pages by ascending order
func (r *GormPageRepository) Search(ctx context.Context, criteria *PageCriteria) ([]DocumentationPage, error) {
	return r.findMany(ctx, "search", criteria.scope, orderBy("position ASC, id ASC"))
}

func (r *GormPageRepository) FindAll(ctx context.Context, pageable *Pageable) (Page[DocumentationPage], error) {
	return r.search(ctx, "findAll", nil, "id ASC", pageable)
}

// FindMaxOrder returns the highest order in the reference, empty when it has no page
func (r *GormPageRepository) FindMaxOrder(ctx context.Context, referenceID string, referenceType ReferenceType) (Optional[int], error) {
	r.trace("findMaxOrder")
	var highest sql.NullInt64
	row := byReference(referenceID, referenceType)(r.db.WithContext(ctx).Model(&models.Page{})).
		Select("MAX(position)").Row()
	if err := row.Scan(&highest); err != nil {
		return None[int](), r.fail("findMaxOrder", err)
	}
	if !highest.Valid {
		return None[int](), nil
	}
	return Some(int(highest.Int64)), nil
}

func (r *GormPageRepository) CountByParentIDAndIsPublished(ctx context.Context, parentID string) (int64, error) {
	return r.count(ctx, "countByParentIdAndIsPublished",
		where("parent_id = ? AND published = ?", parentID, models.DBBool(true)))
}

func (r *GormPageRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func (c *PageCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.ReferenceID != "" {
		db = db.Where("reference_id = ?", c.ReferenceID)
	}
	if c.ReferenceType != "" {
		db = db.Where("reference_type = ?", string(c.ReferenceType))
	}
	if c.Homepage != nil {
		db = db.Where("homepage = ?", models.DBBool(*c.Homepage))
	}
	if c.Type != "" {
		db = db.Where("type = ?", c.Type)
	}
	if c.Name != "" {
		db = db.Where("name = ?", c.Name)
	}
	if c.Published != nil {
		db = db.Where("published = ?", models.DBBool(*c.Published))
	}
	if c.Visibility != "" {
		db = db.Where("visibility = ?", c.Visibility)
	}
	if c.Parent != "" {
		db = db.Where("parent_id = ?", c.Parent)
	}
	if c.RootParent != nil {
		if *c.RootParent {
			db = db.Where("parent_id IS NULL")
		} else {
			db = db.Where("parent_id IS NOT NULL")
		}
	}
	if c.UseAutoFetch != nil {
		db = db.Where("use_auto_fetch = ?", models.DBBool(*c.UseAutoFetch))
	}
	return db
}

func pageToModel(p *DocumentationPage) *models.Page {
	m := &models.Page{
		ID:                     p.ID,
		ReferenceID:            p.ReferenceID,
		ReferenceType:          string(p.ReferenceType),
		Name:                   p.Name,
		Type:                   p.Type,
		Content:                models.DBText(p.Content),
		LastContributor:        p.LastContributor,
		Position:               p.Order,
		Published:              models.DBBool(p.Published),
		Visibility:             p.Visibility,
		Homepage:               models.DBBool(p.Homepage),
		ParentID:               strPtr(p.ParentID),
		ExcludedAccessControls: models.DBBool(p.ExcludedAccessControls),
		Configuration:          models.StringMap(p.Configuration),
		CreatedAt:              timePtr(p.CreatedAt),
		UpdatedAt:              timePtr(p.UpdatedAt),
	}
	if p.UseAutoFetch != nil {
		v := models.DBBool(*p.UseAutoFetch)
		m.UseAutoFetch = &v
	}
	return m
}

func pageFromModel(m *models.Page) DocumentationPage {
	p := DocumentationPage{
		ID:                     m.ID,
		ReferenceID:            m.ReferenceID,
		ReferenceType:          ReferenceType(m.ReferenceType),
		Name:                   m.Name,
		Type:                   m.Type,
		Content:                m.Content.String(),
		LastContributor:        m.LastContributor,
		Order:                  m.Position,
		Published:              m.Published.Bool(),
		Visibility:             m.Visibility,
		Homepage:               m.Homepage.Bool(),
		ParentID:               strValue(m.ParentID),
		ExcludedAccessControls: m.ExcludedAccessControls.Bool(),
		Configuration:          stringMap(m.Configuration),
		CreatedAt:              timeValue(m.CreatedAt),
		UpdatedAt:              timeValue(m.UpdatedAt),
	}
	if m.UseAutoFetch != nil {
		v := m.UseAutoFetch.Bool()
		p.UseAutoFetch = &v
	}
	return p
}
