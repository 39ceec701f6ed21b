package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// AlertTrigger is an alert definition attached to a reference
type AlertTrigger struct {
	ID            string
	Name          string
	Description   string
	ReferenceType ReferenceType
	ReferenceID   string
	Type          string
	Severity      string
	Definition    string
	EventRules    []string
	Enabled       bool
	Template      bool
	EnvironmentID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AlertCriteria filters alert triggers; zero fields match everything
type AlertCriteria struct {
	ReferenceType ReferenceType
	ReferenceIDs  []string
	Templates     *bool
	EnvironmentID string
}

// AlertTriggerRepository stores alert triggers
type AlertTriggerRepository interface {
	FindByID(ctx context.Context, id string) (Optional[AlertTrigger], error)
	Create(ctx context.Context, trigger *AlertTrigger) (AlertTrigger, error)
	Update(ctx context.Context, trigger *AlertTrigger) (AlertTrigger, error)
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]AlertTrigger, error)
	FindByReferenceAndReferenceIDs(ctx context.Context, referenceType ReferenceType, referenceIDs []string) ([]AlertTrigger, error)
	Search(ctx context.Context, criteria *AlertCriteria, pageable *Pageable) (Page[AlertTrigger], error)
	DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error)
}

// GormAlertTriggerRepository implements AlertTriggerRepository using GORM
type GormAlertTriggerRepository struct {
	entityStore[AlertTrigger, models.AlertTrigger]
}

// NewGormAlertTriggerRepository creates a new GORM-backed alert trigger repository
func NewGormAlertTriggerRepository(db *gorm.DB) *GormAlertTriggerRepository {
	return &GormAlertTriggerRepository{entityStore[AlertTrigger, models.AlertTrigger]{
		gormStore: newGormStore[models.AlertTrigger](db, "alertTrigger"),
		toModel:   alertTriggerToModel,
		fromModel: alertTriggerFromModel,
		key:       func(m *models.AlertTrigger) (scope, []string) { return byID(m.ID), []string{m.ID} },
		validate:  func(a *AlertTrigger) error { return checkReferenceType(a.ReferenceType) },
	}}
}

func (r *GormAlertTriggerRepository) FindByID(ctx context.Context, id string) (Optional[AlertTrigger], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormAlertTriggerRepository) Create(ctx context.Context, trigger *AlertTrigger) (AlertTrigger, error) {
	return r.create(ctx, trigger)
}

func (r *GormAlertTriggerRepository) Update(ctx context.Context, trigger *AlertTrigger) (AlertTrigger, error) {
	return r.update(ctx, trigger)
}

func (r *GormAlertTriggerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormAlertTriggerRepository) FindAll(ctx context.Context) ([]AlertTrigger, error) {
	return r.findMany(ctx, "findAll", orderBy("id ASC"))
}

func (r *GormAlertTriggerRepository) FindByReferenceAndReferenceIDs(ctx context.Context, referenceType ReferenceType, referenceIDs []string) ([]AlertTrigger, error) {
	if len(referenceIDs) == 0 {
		return []AlertTrigger{}, nil
	}
	return r.findMany(ctx, "findByReferenceAndReferenceIds",
		where("reference_type = ? AND reference_id IN ?", string(referenceType), referenceIDs),
		orderBy("id ASC"))
}

// Search orders by name, then id
func (r *GormAlertTriggerRepository) Search(ctx context.Context, criteria *AlertCriteria, pageable *Pageable) (Page[AlertTrigger], error) {
	return r.search(ctx, "search", criteria.scope, "name ASC, id ASC", pageable)
}

func (r *GormAlertTriggerRepository) DeleteByReferenceIDAndReferenceType(ctx context.Context, referenceID string, referenceType ReferenceType) ([]string, error) {
	return r.removeReturning(ctx, "deleteByReference", "id", byReference(referenceID, referenceType))
}

func (c *AlertCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.ReferenceType != "" {
		db = db.Where("reference_type = ?", string(c.ReferenceType))
	}
	if len(c.ReferenceIDs) > 0 {
		db = db.Where("reference_id IN ?", c.ReferenceIDs)
	}
	if c.Templates != nil {
		db = db.Where("template = ?", models.DBBool(*c.Templates))
	}
	if c.EnvironmentID != "" {
		db = db.Where("environment_id = ?", c.EnvironmentID)
	}
	return db
}

func alertTriggerToModel(a *AlertTrigger) *models.AlertTrigger {
	return &models.AlertTrigger{
		ID:            a.ID,
		Name:          a.Name,
		Description:   a.Description,
		ReferenceType: string(a.ReferenceType),
		ReferenceID:   a.ReferenceID,
		Type:          a.Type,
		Severity:      a.Severity,
		Definition:    models.DBText(a.Definition),
		EventRules:    models.StringArray(a.EventRules),
		Enabled:       models.DBBool(a.Enabled),
		Template:      models.DBBool(a.Template),
		EnvironmentID: a.EnvironmentID,
		CreatedAt:     timePtr(a.CreatedAt),
		UpdatedAt:     timePtr(a.UpdatedAt),
	}
}

func alertTriggerFromModel(m *models.AlertTrigger) AlertTrigger {
	return AlertTrigger{
		ID:            m.ID,
		Name:          m.Name,
		Description:   m.Description,
		ReferenceType: ReferenceType(m.ReferenceType),
		ReferenceID:   m.ReferenceID,
		Type:          m.Type,
		Severity:      m.Severity,
		Definition:    m.Definition.String(),
		EventRules:    stringSlice(m.EventRules),
		Enabled:       m.Enabled.Bool(),
		Template:      m.Template.Bool(),
		EnvironmentID: m.EnvironmentID,
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
