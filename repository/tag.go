package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Tag labels APIs inside a reference scope
type Tag struct {
	ID               string
	Name             string
	Description      string
	RestrictedGroups []string
	ReferenceID      string
	ReferenceType    ReferenceType
}

// TagRepository stores tags
type TagRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Tag], error)
	Create(ctx context.Context, tag *Tag) (Tag, error)
	Update(ctx context.Context, tag *Tag) (Tag, error)
	Delete(ctx context.Context, id string) error
	FindByReference(ctx context.Context, referenceID string, referenceType ReferenceType) ([]Tag, error)
	FindByIDAndReference(ctx context.Context, id, referenceID string, referenceType ReferenceType) (Optional[Tag], error)
	FindByIDsAndReference(ctx context.Context, ids []string, referenceID string, referenceType ReferenceType) ([]Tag, error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormTagRepository implements TagRepository using GORM
type GormTagRepository struct {
	entityStore[Tag, models.Tag]
}

// NewGormTagRepository creates a new GORM-backed tag repository
func NewGormTagRepository(db *gorm.DB) *GormTagRepository {
	return &GormTagRepository{entityStore[Tag, models.Tag]{
		gormStore: newGormStore[models.Tag](db, "tag"),
		toModel:   tagToModel,
		fromModel: tagFromModel,
		key:       func(m *models.Tag) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(t *Tag) error { return checkReferenceType(t.ReferenceType) },
	}}
}

func (r *GormTagRepository) FindByID(ctx context.Context, id string) (Optional[Tag], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormTagRepository) Create(ctx context.Context, tag *Tag) (Tag, error) {
	return r.create(ctx, tag)
}

func (r *GormTagRepository) Update(ctx context.Context, tag *Tag) (Tag, error) {
	return r.update(ctx, tag)
}

func (r *GormTagRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormTagRepository) FindByReference(ctx context.Context, referenceID string, referenceType ReferenceType) ([]Tag, error) {
	return r.findMany(ctx, "findByReference", byReference(referenceID, referenceType), orderBy("id ASC"))
}

func (r *GormTagRepository) FindByIDAndReference(ctx context.Context, id, referenceID string, referenceType ReferenceType) (Optional[Tag], error) {
	return r.findOne(ctx, "findByIdAndReference", byID(id), byReference(referenceID, referenceType))
}

func (r *GormTagRepository) FindByIDsAndReference(ctx context.Context, ids []string, referenceID string, referenceType ReferenceType) ([]Tag, error) {
	if len(ids) == 0 {
		return []Tag{}, nil
	}
	return r.findMany(ctx, "findByIdsAndReference",
		where("id IN ?", ids), byReference(referenceID, referenceType), orderBy("id ASC"))
}

func (r *GormTagRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func tagToModel(t *Tag) *models.Tag {
	return &models.Tag{
		ID:               t.ID,
		Name:             t.Name,
		Description:      t.Description,
		RestrictedGroups: models.StringArray(t.RestrictedGroups),
		ReferenceID:      t.ReferenceID,
		ReferenceType:    string(t.ReferenceType),
	}
}

func tagFromModel(m *models.Tag) Tag {
	return Tag{
		ID:               m.ID,
		Name:             m.Name,
		Description:      m.Description,
		RestrictedGroups: stringSlice(m.RestrictedGroups),
		ReferenceID:      m.ReferenceID,
		ReferenceType:    ReferenceType(m.ReferenceType),
	}
}
