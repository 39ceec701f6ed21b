package repository

import (
	"context"
	"iter"
	"time"

	"github.com/apimgmt/mgmtrepo/models"
	"gorm.io/gorm"
)

// NodeMonitoring is the latest monitoring sample of one kind reported by a gateway node
type NodeMonitoring struct {
	ID            string
	NodeID        string
	Type          string
	EnvironmentID string
	Payload       string
	CreatedAt     time.Time
	EvaluatedAt   time.Time
	UpdatedAt     time.Time
}

// NodeMonitoringRepository stores node monitoring samples. Single-row calls
// run asynchronously and complete their Future exactly once.
type NodeMonitoringRepository interface {
	FindByNodeIDAndType(ctx context.Context, nodeID, monitoringType string) *Future[Optional[NodeMonitoring]]
	Create(ctx context.Context, monitoring *NodeMonitoring) *Future[NodeMonitoring]
	Update(ctx context.Context, monitoring *NodeMonitoring) *Future[NodeMonitoring]
	FindByTypeAndTimeFrame(ctx context.Context, monitoringType string, from, to time.Time, environmentIDs ...string) iter.Seq2[NodeMonitoring, error]
}

// MonitoringOption configures a GormNodeMonitoringRepository
type MonitoringOption func(*GormNodeMonitoringRepository)

// WithMonitoringBatchSize sets how many rows FindByTypeAndTimeFrame fetches per round trip
func WithMonitoringBatchSize(n int) MonitoringOption {
	return func(r *GormNodeMonitoringRepository) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// GormNodeMonitoringRepository implements NodeMonitoringRepository using GORM
type GormNodeMonitoringRepository struct {
	entityStore[NodeMonitoring, models.NodeMonitoring]
	batchSize int
}

// NewGormNodeMonitoringRepository creates a new GORM-backed node monitoring repository
func NewGormNodeMonitoringRepository(db *gorm.DB, opts ...MonitoringOption) *GormNodeMonitoringRepository {
	r := &GormNodeMonitoringRepository{
		entityStore: entityStore[NodeMonitoring, models.NodeMonitoring]{
			gormStore: newGormStore[models.NodeMonitoring](db, "nodeMonitoring"),
			toModel:   nodeMonitoringToModel,
			fromModel: nodeMonitoringFromModel,
			key:       func(m *models.NodeMonitoring) (scope, []string) { return byID(m.ID), []string{m.ID} },
		},
		batchSize: defaultEventBatchSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *GormNodeMonitoringRepository) FindByNodeIDAndType(ctx context.Context, nodeID, monitoringType string) *Future[Optional[NodeMonitoring]] {
	return Async(ctx, func(ctx context.Context) (Optional[NodeMonitoring], error) {
		return r.findOne(ctx, "findByNodeIdAndType",
			where("node_id = ? AND type = ?", nodeID, monitoringType),
			orderBy("updated_at DESC, id DESC"))
	})
}

func (r *GormNodeMonitoringRepository) Create(ctx context.Context, monitoring *NodeMonitoring) *Future[NodeMonitoring] {
	return Async(ctx, func(ctx context.Context) (NodeMonitoring, error) {
		return r.create(ctx, monitoring)
	})
}

func (r *GormNodeMonitoringRepository) Update(ctx context.Context, monitoring *NodeMonitoring) *Future[NodeMonitoring] {
	return Async(ctx, func(ctx context.Context) (NodeMonitoring, error) {
		return r.update(ctx, monitoring)
	})
}

// Dialects disagree on where NULLs sort, so unstamped rows are pinned first.
const nullsFirstByUpdatedAt = "CASE WHEN updated_at IS NULL THEN 0 ELSE 1 END, updated_at ASC, id ASC"

// FindByTypeAndTimeFrame yields samples whose updated_at falls in [from, to],
// oldest first, optionally restricted to some environments. A zero bound is open,
// and with both bounds open unstamped samples come first.
// Rows are fetched in batches keyed on (updated_at, id).
func (r *GormNodeMonitoringRepository) FindByTypeAndTimeFrame(ctx context.Context, monitoringType string, from, to time.Time, environmentIDs ...string) iter.Seq2[NodeMonitoring, error] {
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("type = ?", monitoringType)
		if !from.IsZero() {
			db = db.Where("updated_at >= ?", from.UTC())
		}
		if !to.IsZero() {
			db = db.Where("updated_at <= ?", to.UTC())
		}
		if len(environmentIDs) > 0 {
			db = db.Where("environment_id IN ?", environmentIDs)
		}
		return db
	}
	return func(yield func(NodeMonitoring, error) bool) {
		r.trace("findByTypeAndTimeFrame")
		var last *models.NodeMonitoring
		for {
			if err := ctx.Err(); err != nil {
				yield(NodeMonitoring{}, err)
				return
			}
			query := filter(r.db.WithContext(ctx))
			switch {
			case last == nil:
			case last.UpdatedAt == nil:
				query = query.Where("((updated_at IS NULL AND id > ?) OR updated_at IS NOT NULL)", last.ID)
			default:
				query = query.Where("updated_at IS NOT NULL AND (updated_at > ? OR (updated_at = ? AND id > ?))",
					last.UpdatedAt.UTC(), last.UpdatedAt.UTC(), last.ID)
			}
			var rows []models.NodeMonitoring
			if err := query.Order(nullsFirstByUpdatedAt).Limit(r.batchSize).Find(&rows).Error; err != nil {
				yield(NodeMonitoring{}, r.fail("findByTypeAndTimeFrame", err))
				return
			}
			for i := range rows {
				if !yield(nodeMonitoringFromModel(&rows[i]), nil) {
					return
				}
			}
			if len(rows) < r.batchSize {
				return
			}
			last = &rows[len(rows)-1]
		}
	}
}

func nodeMonitoringToModel(n *NodeMonitoring) *models.NodeMonitoring {
	return &models.NodeMonitoring{
		ID:            n.ID,
		NodeID:        n.NodeID,
		Type:          n.Type,
		EnvironmentID: n.EnvironmentID,
		Payload:       models.DBText(n.Payload),
		CreatedAt:     timePtr(n.CreatedAt),
		EvaluatedAt:   timePtr(n.EvaluatedAt),
		UpdatedAt:     timePtr(n.UpdatedAt),
	}
}

func nodeMonitoringFromModel(m *models.NodeMonitoring) NodeMonitoring {
	return NodeMonitoring{
		ID:            m.ID,
		NodeID:        m.NodeID,
		Type:          m.Type,
		EnvironmentID: m.EnvironmentID,
		Payload:       m.Payload.String(),
		CreatedAt:     timeValue(m.CreatedAt),
		EvaluatedAt:   timeValue(m.EvaluatedAt),
		UpdatedAt:     timeValue(m.UpdatedAt),
	}
}
