package repository

import (
	"context"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// ApiCategoryOrder positions an API inside a category listing
type ApiCategoryOrder struct {
	APIID      string
	CategoryID string
	Order      int
}

// ApiCategoryOrderRepository stores API positions per category
type ApiCategoryOrderRepository interface {
	FindByID(ctx context.Context, apiID, categoryID string) (Optional[ApiCategoryOrder], error)
	Create(ctx context.Context, order *ApiCategoryOrder) (ApiCategoryOrder, error)
	Update(ctx context.Context, order *ApiCategoryOrder) (ApiCategoryOrder, error)
	Delete(ctx context.Context, apiID string, categoryIDs ...string) error
	FindAllByCategoryID(ctx context.Context, categoryID string) ([]ApiCategoryOrder, error)
	FindAllByAPIID(ctx context.Context, apiID string) ([]ApiCategoryOrder, error)
	DeleteByAPIID(ctx context.Context, apiID string) ([]string, error)
}

// GormApiCategoryOrderRepository implements ApiCategoryOrderRepository using GORM
type GormApiCategoryOrderRepository struct {
	entityStore[ApiCategoryOrder, models.ApiCategoryOrder]
}

// NewGormApiCategoryOrderRepository creates a new GORM-backed category order repository
func NewGormApiCategoryOrderRepository(db *gorm.DB) *GormApiCategoryOrderRepository {
	return &GormApiCategoryOrderRepository{entityStore[ApiCategoryOrder, models.ApiCategoryOrder]{
		gormStore: newGormStore[models.ApiCategoryOrder](db, "apiCategoryOrder"),
		toModel:   apiCategoryOrderToModel,
		fromModel: apiCategoryOrderFromModel,
		key: func(m *models.ApiCategoryOrder) (scope, []string) {
			return apiCategoryKey(m.ApiID, m.CategoryID), []string{m.ApiID, m.CategoryID}
		},
	}}
}

func apiCategoryKey(apiID, categoryID string) scope {
	return where("api_id = ? AND category_id = ?", apiID, categoryID)
}

func (r *GormApiCategoryOrderRepository) FindByID(ctx context.Context, apiID, categoryID string) (Optional[ApiCategoryOrder], error) {
	return r.findOne(ctx, "findById", apiCategoryKey(apiID, categoryID))
}

func (r *GormApiCategoryOrderRepository) Create(ctx context.Context, order *ApiCategoryOrder) (ApiCategoryOrder, error) {
	return r.create(ctx, order)
}

func (r *GormApiCategoryOrderRepository) Update(ctx context.Context, order *ApiCategoryOrder) (ApiCategoryOrder, error) {
	return r.update(ctx, order)
}

// Delete removes the API from the given categories
func (r *GormApiCategoryOrderRepository) Delete(ctx context.Context, apiID string, categoryIDs ...string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	_, err := r.remove(ctx, "delete", where("api_id = ? AND category_id IN ?", apiID, categoryIDs))
	return err
}

// FindAllByCategoryID lists a category's APIs in display order
func (r *GormApiCategoryOrderRepository) FindAllByCategoryID(ctx context.Context, categoryID string) ([]ApiCategoryOrder, error) {
	return r.findMany(ctx, "findAllByCategoryId", where("category_id = ?", categoryID), orderBy("position ASC, api_id ASC"))
}

func (r *GormApiCategoryOrderRepository) FindAllByAPIID(ctx context.Context, apiID string) ([]ApiCategoryOrder, error) {
	return r.findMany(ctx, "findAllByApiId", where("api_id = ?", apiID), orderBy("category_id ASC"))
}

// DeleteByAPIID returns the categories the API was removed from
func (r *GormApiCategoryOrderRepository) DeleteByAPIID(ctx context.Context, apiID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByApiId", "category_id", where("api_id = ?", apiID))
}

func apiCategoryOrderToModel(o *ApiCategoryOrder) *models.ApiCategoryOrder {
	return &models.ApiCategoryOrder{
		ApiID:      o.APIID,
		CategoryID: o.CategoryID,
		Position:   o.Order,
	}
}

func apiCategoryOrderFromModel(m *models.ApiCategoryOrder) ApiCategoryOrder {
	return ApiCategoryOrder{
		APIID:      m.ApiID,
		CategoryID: m.CategoryID,
		Order:      m.Position,
	}
}
