package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// SubscriptionForm is the form shown to consumers when they subscribe. An
// environment has at most one.
type SubscriptionForm struct {
	ID            string
	EnvironmentID string
	GmdContent    string
	Enabled       bool
}

// SubscriptionFormRepository stores subscription forms
type SubscriptionFormRepository interface {
	FindByID(ctx context.Context, id string) (Optional[SubscriptionForm], error)
	Create(ctx context.Context, form *SubscriptionForm) (SubscriptionForm, error)
	Update(ctx context.Context, form *SubscriptionForm) (SubscriptionForm, error)
	Delete(ctx context.Context, id string) error
	FindByIDAndEnvironmentID(ctx context.Context, id, environmentID string) (Optional[SubscriptionForm], error)
	FindByEnvironmentID(ctx context.Context, environmentID string) (Optional[SubscriptionForm], error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

// GormSubscriptionFormRepository implements SubscriptionFormRepository using GORM
type GormSubscriptionFormRepository struct {
	entityStore[SubscriptionForm, models.SubscriptionForm]
}

// NewGormSubscriptionFormRepository creates a new GORM-backed subscription form repository
func NewGormSubscriptionFormRepository(db *gorm.DB) *GormSubscriptionFormRepository {
	return &GormSubscriptionFormRepository{entityStore[SubscriptionForm, models.SubscriptionForm]{
		gormStore: newGormStore[models.SubscriptionForm](db, "subscriptionForm"),
		toModel:   subscriptionFormToModel,
		fromModel: subscriptionFormFromModel,
		key:       func(m *models.SubscriptionForm) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormSubscriptionFormRepository) FindByID(ctx context.Context, id string) (Optional[SubscriptionForm], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormSubscriptionFormRepository) Create(ctx context.Context, form *SubscriptionForm) (SubscriptionForm, error) {
	return r.create(ctx, form)
}

func (r *GormSubscriptionFormRepository) Update(ctx context.Context, form *SubscriptionForm) (SubscriptionForm, error) {
	return r.update(ctx, form)
}

// Delete is a no-op for unknown ids
func (r *GormSubscriptionFormRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

func (r *GormSubscriptionFormRepository) FindByIDAndEnvironmentID(ctx context.Context, id, environmentID string) (Optional[SubscriptionForm], error) {
	return r.findOne(ctx, "findByIdAndEnvironmentId", byID(id), byEnvironment(environmentID))
}

func (r *GormSubscriptionFormRepository) FindByEnvironmentID(ctx context.Context, environmentID string) (Optional[SubscriptionForm], error) {
	return r.findOne(ctx, "findByEnvironmentId", byEnvironment(environmentID))
}

func (r *GormSubscriptionFormRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func subscriptionFormToModel(f *SubscriptionForm) *models.SubscriptionForm {
	return &models.SubscriptionForm{
		ID:            f.ID,
		EnvironmentID: f.EnvironmentID,
		GmdContent:    models.DBText(f.GmdContent),
		Enabled:       models.DBBool(f.Enabled),
	}
}

func subscriptionFormFromModel(m *models.SubscriptionForm) SubscriptionForm {
	return SubscriptionForm{
		ID:            m.ID,
		EnvironmentID: m.EnvironmentID,
		GmdContent:    m.GmdContent.String(),
		Enabled:       m.Enabled.Bool(),
	}
}
