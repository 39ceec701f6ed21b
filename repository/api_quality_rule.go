package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// ApiQualityRule records whether an API satisfies a quality rule
type ApiQualityRule struct {
	API         string
	QualityRule string
	Checked     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApiQualityRuleRepository stores quality rule results
type ApiQualityRuleRepository interface {
	FindByID(ctx context.Context, api, qualityRule string) (Optional[ApiQualityRule], error)
	Create(ctx context.Context, rule *ApiQualityRule) (ApiQualityRule, error)
	Update(ctx context.Context, rule *ApiQualityRule) (ApiQualityRule, error)
	Delete(ctx context.Context, api, qualityRule string) error
	FindByAPI(ctx context.Context, api string) ([]ApiQualityRule, error)
	FindByQualityRule(ctx context.Context, qualityRule string) ([]ApiQualityRule, error)
	DeleteByAPI(ctx context.Context, api string) ([]string, error)
	DeleteByQualityRule(ctx context.Context, qualityRule string) ([]string, error)
}

// GormApiQualityRuleRepository implements ApiQualityRuleRepository using GORM
type GormApiQualityRuleRepository struct {
	entityStore[ApiQualityRule, models.ApiQualityRule]
}

// NewGormApiQualityRuleRepository creates a new GORM-backed quality rule repository
func NewGormApiQualityRuleRepository(db *gorm.DB) *GormApiQualityRuleRepository {
	return &GormApiQualityRuleRepository{entityStore[ApiQualityRule, models.ApiQualityRule]{
		gormStore: newGormStore[models.ApiQualityRule](db, "apiQualityRule"),
		toModel:   apiQualityRuleToModel,
		fromModel: apiQualityRuleFromModel,
		key: func(m *models.ApiQualityRule) (scope, []string) {
			return apiQualityKey(m.API, m.QualityRule), []string{m.API, m.QualityRule}
		},
	}}
}

func apiQualityKey(api, qualityRule string) scope {
	return where("api = ? AND quality_rule = ?", api, qualityRule)
}

func (r *GormApiQualityRuleRepository) FindByID(ctx context.Context, api, qualityRule string) (Optional[ApiQualityRule], error) {
	return r.findOne(ctx, "findById", apiQualityKey(api, qualityRule))
}

func (r *GormApiQualityRuleRepository) Create(ctx context.Context, rule *ApiQualityRule) (ApiQualityRule, error) {
	return r.create(ctx, rule)
}

func (r *GormApiQualityRuleRepository) Update(ctx context.Context, rule *ApiQualityRule) (ApiQualityRule, error) {
	return r.update(ctx, rule)
}

func (r *GormApiQualityRuleRepository) Delete(ctx context.Context, api, qualityRule string) error {
	_, err := r.remove(ctx, "delete", apiQualityKey(api, qualityRule))
	return err
}

func (r *GormApiQualityRuleRepository) FindByAPI(ctx context.Context, api string) ([]ApiQualityRule, error) {
	return r.findMany(ctx, "findByApi", where("api = ?", api), orderBy("quality_rule ASC"))
}

func (r *GormApiQualityRuleRepository) FindByQualityRule(ctx context.Context, qualityRule string) ([]ApiQualityRule, error) {
	return r.findMany(ctx, "findByQualityRule", where("quality_rule = ?", qualityRule), orderBy("api ASC"))
}

// DeleteByAPI returns the quality rules that were attached to the API
func (r *GormApiQualityRuleRepository) DeleteByAPI(ctx context.Context, api string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByApi", "quality_rule", where("api = ?", api))
}

// DeleteByQualityRule returns the APIs that carried the rule
func (r *GormApiQualityRuleRepository) DeleteByQualityRule(ctx context.Context, qualityRule string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByQualityRule", "api", where("quality_rule = ?", qualityRule))
}

func apiQualityRuleToModel(q *ApiQualityRule) *models.ApiQualityRule {
	return &models.ApiQualityRule{
		API:         q.API,
		QualityRule: q.QualityRule,
		Checked:     models.DBBool(q.Checked),
		CreatedAt:   timePtr(q.CreatedAt),
		UpdatedAt:   timePtr(q.UpdatedAt),
	}
}

func apiQualityRuleFromModel(m *models.ApiQualityRule) ApiQualityRule {
	return ApiQualityRule{
		API:         m.API,
		QualityRule: m.QualityRule,
		Checked:     m.Checked.Bool(),
		CreatedAt:   timeValue(m.CreatedAt),
		UpdatedAt:   timeValue(m.UpdatedAt),
	}
}
