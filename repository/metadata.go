package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// MetadataFormat is the declared type of a metadata value
type MetadataFormat string

const (
	FormatString  MetadataFormat = "STRING"
	FormatNumeric MetadataFormat = "NUMERIC"
	FormatBoolean MetadataFormat = "BOOLEAN"
	FormatDate    MetadataFormat = "DATE"
	FormatMail    MetadataFormat = "MAIL"
	FormatURL     MetadataFormat = "URL"
)

// Metadata is a key/value attribute of a reference, keyed by (key, reference)
type Metadata struct {
	Key           string
	ReferenceID   string
	ReferenceType ReferenceType
	Name          string
	Format        MetadataFormat
	Value         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MetadataRepository stores metadata
type MetadataRepository interface {
	FindByID(ctx context.Context, key, referenceID string, referenceType ReferenceType) (Optional[Metadata], error)
	Create(ctx context.Context, metadata *Metadata) (Metadata, error)
	Update(ctx context.Context, metadata *Metadata) (Metadata, error)
	Delete(ctx context.Context, key, referenceID string, referenceType ReferenceType) error
	FindByKeyAndReferenceType(ctx context.Context, key string, referenceType ReferenceType) ([]Metadata, error)
	FindByReferenceType(ctx context.Context, referenceType ReferenceType) ([]Metadata, error)
	FindByReferenceTypeAndReferenceID(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Metadata, error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormMetadataRepository implements MetadataRepository using GORM
type GormMetadataRepository struct {
	entityStore[Metadata, models.Metadata]
}

// NewGormMetadataRepository creates a new GORM-backed metadata repository
func NewGormMetadataRepository(db *gorm.DB) *GormMetadataRepository {
	return &GormMetadataRepository{entityStore[Metadata, models.Metadata]{
		gormStore: newGormStore[models.Metadata](db, "metadata"),
		toModel:   metadataToModel,
		fromModel: metadataFromModel,
		key: func(m *models.Metadata) (scope, []string) {
			return metadataKey(m.Key, m.ReferenceID, ReferenceType(m.ReferenceType)),
				[]string{m.Key, m.ReferenceID, m.ReferenceType}
		},
		validate: func(m *Metadata) error { return checkReferenceType(m.ReferenceType) },
	}}
}

func metadataKey(key, referenceID string, referenceType ReferenceType) scope {
	return where("metadata_key = ? AND reference_id = ? AND reference_type = ?", key, referenceID, string(referenceType))
}

func (r *GormMetadataRepository) FindByID(ctx context.Context, key, referenceID string, referenceType ReferenceType) (Optional[Metadata], error) {
	return r.findOne(ctx, "findById", metadataKey(key, referenceID, referenceType))
}

func (r *GormMetadataRepository) Create(ctx context.Context, metadata *Metadata) (Metadata, error) {
	return r.create(ctx, metadata)
}

func (r *GormMetadataRepository) Update(ctx context.Context, metadata *Metadata) (Metadata, error) {
	return r.update(ctx, metadata)
}

func (r *GormMetadataRepository) Delete(ctx context.Context, key, referenceID string, referenceType ReferenceType) error {
	_, err := r.remove(ctx, "delete", metadataKey(key, referenceID, referenceType))
	return err
}

func (r *GormMetadataRepository) FindByKeyAndReferenceType(ctx context.Context, key string, referenceType ReferenceType) ([]Metadata, error) {
	return r.findMany(ctx, "findByKeyAndReferenceType",
		where("metadata_key = ? AND reference_type = ?", key, string(referenceType)),
		orderBy("reference_id ASC"))
}

func (r *GormMetadataRepository) FindByReferenceType(ctx context.Context, referenceType ReferenceType) ([]Metadata, error) {
	return r.findMany(ctx, "findByReferenceType",
		where("reference_type = ?", string(referenceType)),
		orderBy("reference_id ASC, metadata_key ASC"))
}

func (r *GormMetadataRepository) FindByReferenceTypeAndReferenceID(ctx context.Context, referenceType ReferenceType, referenceID string) ([]Metadata, error) {
	return r.findMany(ctx, "findByReferenceTypeAndReferenceId",
		byReference(referenceID, referenceType), orderBy("metadata_key ASC"))
}

// DeleteByReferenceIDAndReferenceType returns the keys of the removed entries
func (r *GormMetadataRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "metadata_key", byReference(referenceID, referenceType))
}

func metadataToModel(m *Metadata) *models.Metadata {
	return &models.Metadata{
		Key:           m.Key,
		ReferenceID:   m.ReferenceID,
		ReferenceType: string(m.ReferenceType),
		Name:          m.Name,
		Format:        string(m.Format),
		Value:         models.DBText(m.Value),
		CreatedAt:     timePtr(m.CreatedAt),
		UpdatedAt:     timePtr(m.UpdatedAt),
	}
}

func metadataFromModel(m *models.Metadata) Metadata {
	return Metadata{
		Key:           m.Key,
		ReferenceID:   m.ReferenceID,
		ReferenceType: ReferenceType(m.ReferenceType),
		Name:          m.Name,
		Format:        MetadataFormat(m.Format),
		Value:         m.Value.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
