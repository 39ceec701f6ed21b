package repository

import (
	"context"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// Ticket is a support request raised from the portal
type Ticket struct {
	ID            string
	Subject       string
	Content       string
	FromUser      string
	API           string
	Application   string
	EnvironmentID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TicketCriteria filters tickets; empty fields match everything
type TicketCriteria struct {
	FromUser      string
	API           string
	Application   string
	EnvironmentID string
}

// TicketRepository stores support tickets
type TicketRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Ticket], error)
	Create(ctx context.Context, ticket *Ticket) (Ticket, error)
	Update(ctx context.Context, ticket *Ticket) (Ticket, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria *TicketCriteria, sortable *Sortable, pageable *Pageable) (Page[Ticket], error)
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

var ticketSortColumns = map[string]string{
	"subject":     "subject",
	"api":         "api",
	"application": "application",
	"created_at":  "created_at",
	"createdAt":   "created_at",
	"updated_at":  "updated_at",
	"updatedAt":   "updated_at",
}

// GormTicketRepository implements TicketRepository using GORM
type GormTicketRepository struct {
	entityStore[Ticket, models.Ticket]
}

// NewGormTicketRepository creates a new GORM-backed ticket repository
func NewGormTicketRepository(db *gorm.DB) *GormTicketRepository {
	return &GormTicketRepository{entityStore[Ticket, models.Ticket]{
		gormStore: newGormStore[models.Ticket](db, "ticket"),
		toModel:   ticketToModel,
		fromModel: ticketFromModel,
		key:       func(m *models.Ticket) (scope, []string) { return byID(m.ID), []string{m.ID} },
	}}
}

func (r *GormTicketRepository) FindByID(ctx context.Context, id string) (Optional[Ticket], error) {
	return r.findOne(ctx, "findById", byID(id))
}

func (r *GormTicketRepository) Create(ctx context.Context, ticket *Ticket) (Ticket, error) {
	return r.create(ctx, ticket)
}

func (r *GormTicketRepository) Update(ctx context.Context, ticket *Ticket) (Ticket, error) {
	return r.update(ctx, ticket)
}

func (r *GormTicketRepository) Delete(ctx context.Context, id string) error {
	_, err := r.remove(ctx, "delete", byID(id))
	return err
}

// Search defaults to newest first
func (r *GormTicketRepository) Search(ctx context.Context, criteria *TicketCriteria, sortable *Sortable, pageable *Pageable) (Page[Ticket], error) {
	order, err := orderClause(sortable, ticketSortColumns, "created_at DESC")
	if err != nil {
		return Page[Ticket]{}, err
	}
	return r.search(ctx, "search", criteria.scope, order+", id ASC", pageable)
}

func (r *GormTicketRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	return r.removeReturning(ctx, "deleteByEnvironmentId", "id", byEnvironment(environmentID))
}

func (c *TicketCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if c.FromUser != "" {
		db = db.Where("from_user = ?", c.FromUser)
	}
	if c.API != "" {
		db = db.Where("api = ?", c.API)
	}
	if c.Application != "" {
		db = db.Where("application = ?", c.Application)
	}
	if c.EnvironmentID != "" {
		db = db.Where("environment_id = ?", c.EnvironmentID)
	}
	return db
}

func ticketToModel(t *Ticket) *models.Ticket {
	return &models.Ticket{
		ID:            t.ID,
		Subject:       t.Subject,
		Content:       models.DBText(t.Content),
		FromUser:      t.FromUser,
		API:           strPtr(t.API),
		Application:   strPtr(t.Application),
		EnvironmentID: t.EnvironmentID,
		CreatedAt:     timePtr(t.CreatedAt),
		UpdatedAt:     timePtr(t.UpdatedAt),
	}
}

func ticketFromModel(m *models.Ticket) Ticket {
	return Ticket{
		ID:            m.ID,
		Subject:       m.Subject,
		Content:       m.Content.String(),
		FromUser:      m.FromUser,
		API:           strValue(m.API),
		Application:   strValue(m.Application),
		EnvironmentID: m.EnvironmentID,
		CreatedAt:     timeValue(m.CreatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
