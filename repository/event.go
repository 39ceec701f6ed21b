package repository

import (
	"context"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Event is a platform event. Ids are time-ordered, so id order is creation order.
type Event struct {
	ID           string
	Type         string
	Payload      string
	ParentID     string
	Properties   map[string]string
	Environments []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EventCriteria filters events. Every listed property must match; any listed
// environment is enough. From and To bound updated_at inclusively.
type EventCriteria struct {
	Types        []string
	Properties   map[string]string
	Environments []string
	From         time.Time
	To           time.Time
}

// EventRepository stores events with their properties and environments
type EventRepository interface {
	FindByID(ctx context.Context, id string) (Optional[Event], error)
	Create(ctx context.Context, event *Event) (Event, error)
	Update(ctx context.Context, event *Event) (Event, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, criteria *EventCriteria, pageable *Pageable) (Page[Event], error)
	Stream(ctx context.Context, criteria *EventCriteria) iter.Seq2[Event, error]
	DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error)
}

const defaultEventBatchSize = 100

// EventOption configures a GormEventRepository
type EventOption func(*GormEventRepository)

// WithEventBatchSize sets how many rows Stream fetches per round trip
func WithEventBatchSize(n int) EventOption {
	return func(r *GormEventRepository) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// GormEventRepository implements EventRepository using GORM. Children live in
// event_properties and event_environments and are written explicitly.
type GormEventRepository struct {
	entityStore[Event, models.Event]
	batchSize int
}

// NewGormEventRepository creates a new GORM-backed event repository
func NewGormEventRepository(db *gorm.DB, opts ...EventOption) *GormEventRepository {
	r := &GormEventRepository{
		entityStore: entityStore[Event, models.Event]{
			gormStore: newGormStore[models.Event](db, "event"),
			toModel:   eventToModel,
			fromModel: eventFromModel,
			key:       func(m *models.Event) (scope, []string) { return byID(m.ID), []string{m.ID} },
		},
		batchSize: defaultEventBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GormEventRepository) FindByID(ctx context.Context, id string) (Optional[Event], error) {
	m, err := r.first(ctx, "findById", byID(id))
	if err != nil || m == nil {
		return None[Event](), err
	}
	rows := []models.Event{*m}
	if err := loadEventChildren(r.db.WithContext(ctx), rows); err != nil {
		return None[Event](), r.fail("findById", err)
	}
	return Some(eventFromModel(&rows[0])), nil
}

func (r *GormEventRepository) Create(ctx context.Context, event *Event) (Event, error) {
	if event == nil {
		return Event{}, nilCreate(r.entity)
	}
	r.trace("create")
	m := eventToModel(event)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(m).Error; err != nil {
			return err
		}
		return insertEventChildren(tx, m)
	})
	if err != nil {
		return Event{}, r.fail("create", err)
	}
	return eventFromModel(m), nil
}

// Update rewrites the event row and replaces all of its children
func (r *GormEventRepository) Update(ctx context.Context, event *Event) (Event, error) {
	if event == nil {
		return Event{}, nilEntity(r.entity)
	}
	r.trace("update")
	m := eventToModel(event)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Event{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return notFound(r.entity, m.ID)
		}
		if err := tx.Model(m).Omit(clause.Associations).Select("*").Updates(m).Error; err != nil {
			return err
		}
		if err := deleteEventChildren(tx, []string{m.ID}); err != nil {
			return err
		}
		return insertEventChildren(tx, m)
	})
	if IsNotFound(err) {
		return Event{}, err
	}
	if err != nil {
		return Event{}, r.fail("update", err)
	}
	stored, err := r.FindByID(ctx, m.ID)
	if err != nil {
		return Event{}, err
	}
	return stored.OrElse(eventFromModel(m)), nil
}

func (r *GormEventRepository) Delete(ctx context.Context, id string) error {
	r.trace("delete")
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteEventChildren(tx, []string{id}); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.Event{}).Error
	})
	if err != nil {
		return r.fail("delete", err)
	}
	return nil
}

// Search lists matching events, most recently updated first
func (r *GormEventRepository) Search(ctx context.Context, criteria *EventCriteria, pageable *Pageable) (Page[Event], error) {
	rows, total, err := r.page(ctx, "search", criteria.scope, "updated_at DESC, id DESC", pageable)
	if err != nil {
		return Page[Event]{}, err
	}
	if err := loadEventChildren(r.db.WithContext(ctx), rows); err != nil {
		return Page[Event]{}, r.fail("search", err)
	}
	return newPage(convertAll(rows, eventFromModel), pageable, total), nil
}

// Stream yields matching events newest first, fetching them in batches keyed on
// the last id seen. Each range over the sequence starts again from the newest event.
func (r *GormEventRepository) Stream(ctx context.Context, criteria *EventCriteria) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		r.trace("stream")
		cursor := ""
		for {
			if err := ctx.Err(); err != nil {
				yield(Event{}, err)
				return
			}
			query := criteria.scope(r.db.WithContext(ctx))
			if cursor != "" {
				query = query.Where("id < ?", cursor)
			}
			var rows []models.Event
			if err := query.Order("id DESC").Limit(r.batchSize).Find(&rows).Error; err != nil {
				yield(Event{}, r.fail("stream", err))
				return
			}
			if err := loadEventChildren(r.db.WithContext(ctx), rows); err != nil {
				yield(Event{}, r.fail("stream", err))
				return
			}
			for i := range rows {
				if !yield(eventFromModel(&rows[i]), nil) {
					return
				}
			}
			if len(rows) < r.batchSize {
				return
			}
			cursor = rows[len(rows)-1].ID
		}
	}
}

// DeleteByEnvironmentID detaches the environment from every event, then deletes
// the events it leaves without any environment and returns their ids.
func (r *GormEventRepository) DeleteByEnvironmentID(ctx context.Context, environmentID string) ([]string, error) {
	r.trace("deleteByEnvironmentId")
	removed := []string{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var linked []string
		if err := tx.Model(&models.EventEnvironment{}).
			Where("environment_id = ?", environmentID).
			Pluck("event_id", &linked).Error; err != nil {
			return err
		}
		if len(linked) == 0 {
			return nil
		}
		if err := tx.Where("environment_id = ?", environmentID).Delete(&models.EventEnvironment{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Event{}).
			Where("id IN ?", linked).
			Where("id NOT IN (SELECT event_id FROM event_environments)").
			Order("id ASC").
			Pluck("id", &removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		if err := deleteEventChildren(tx, removed); err != nil {
			return err
		}
		return tx.Where("id IN ?", removed).Delete(&models.Event{}).Error
	})
	if err != nil {
		return nil, r.fail("deleteByEnvironmentId", err)
	}
	if removed == nil {
		removed = []string{}
	}
	return removed, nil
}

func (c *EventCriteria) scope(db *gorm.DB) *gorm.DB {
	if c == nil {
		return db
	}
	if len(c.Types) > 0 {
		db = db.Where("type IN ?", c.Types)
	}
	if len(c.Environments) > 0 {
		db = db.Where("id IN (SELECT event_id FROM event_environments WHERE environment_id IN ?)", c.Environments)
	}
	for _, key := range slices.Sorted(maps.Keys(c.Properties)) {
		db = db.Where("id IN (SELECT event_id FROM event_properties WHERE property_key = ? AND property_value = ?)",
			key, c.Properties[key])
	}
	if !c.From.IsZero() {
		db = db.Where("updated_at >= ?", c.From.UTC())
	}
	if !c.To.IsZero() {
		db = db.Where("updated_at <= ?", c.To.UTC())
	}
	return db
}

func insertEventChildren(tx *gorm.DB, m *models.Event) error {
	for i := range m.Properties {
		m.Properties[i].EventID = m.ID
	}
	for i := range m.Environments {
		m.Environments[i].EventID = m.ID
	}
	if len(m.Properties) > 0 {
		if err := tx.Create(&m.Properties).Error; err != nil {
			return err
		}
	}
	if len(m.Environments) > 0 {
		if err := tx.Create(&m.Environments).Error; err != nil {
			return err
		}
	}
	return nil
}

func deleteEventChildren(tx *gorm.DB, ids []string) error {
	if err := tx.Where("event_id IN ?", ids).Delete(&models.EventProperty{}).Error; err != nil {
		return err
	}
	return tx.Where("event_id IN ?", ids).Delete(&models.EventEnvironment{}).Error
}

// loadEventChildren fills Properties and Environments of rows with two queries
func loadEventChildren(db *gorm.DB, rows []models.Event) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]string, len(rows))
	index := make(map[string]int, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
		index[rows[i].ID] = i
	}
	var props []models.EventProperty
	if err := db.Where("event_id IN ?", ids).Order("property_key ASC").Find(&props).Error; err != nil {
		return err
	}
	var envs []models.EventEnvironment
	if err := db.Where("event_id IN ?", ids).Order("environment_id ASC").Find(&envs).Error; err != nil {
		return err
	}
	for _, p := range props {
		i := index[p.EventID]
		rows[i].Properties = append(rows[i].Properties, p)
	}
	for _, e := range envs {
		i := index[e.EventID]
		rows[i].Environments = append(rows[i].Environments, e)
	}
	return nil
}

func eventToModel(e *Event) *models.Event {
	m := &models.Event{
		ID:        e.ID,
		Type:      e.Type,
		Payload:   models.DBText(e.Payload),
		ParentID:  strPtr(e.ParentID),
		CreatedAt: timePtr(e.CreatedAt),
		UpdatedAt: timePtr(e.UpdatedAt),
	}
	for _, key := range slices.Sorted(maps.Keys(e.Properties)) {
		m.Properties = append(m.Properties, models.EventProperty{EventID: e.ID, Key: key, Value: e.Properties[key]})
	}
	for _, env := range e.Environments {
		m.Environments = append(m.Environments, models.EventEnvironment{EventID: e.ID, EnvironmentID: env})
	}
	return m
}

func eventFromModel(m *models.Event) Event {
	e := Event{
		ID:        m.ID,
		Type:      m.Type,
		Payload:   m.Payload.String(),
		ParentID:  strValue(m.ParentID),
		CreatedAt: timeValue(m.CreatedAt),
		UpdatedAt: timeValue(m.UpdatedAt),
	}
	if len(m.Properties) > 0 {
		e.Properties = make(map[string]string, len(m.Properties))
		for _, p := range m.Properties {
			e.Properties[p.Key] = p.Value
		}
	}
	for _, env := range m.Environments {
		e.Environments = append(e.Environments, env.EnvironmentID)
	}
	slices.Sort(e.Environments)
	return e
}
