package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/reviewmod/internal/domain"
	"github.com/utafrali/reviewmod/pkg/database"
)

const actionColumns = `id, review_id, moderator_id, action, notes, created_at`

// ModerationActionRepository implements the moderation audit trail on PostgreSQL.
type ModerationActionRepository struct {
	pool database.DBTX
}

// NewModerationActionRepository creates a new PostgreSQL-backed audit repository.
func NewModerationActionRepository(pool database.DBTX) *ModerationActionRepository {
	return &ModerationActionRepository{pool: pool}
}

func scanAction(row pgx.Row) (*domain.ModerationAction, error) {
	var ma domain.ModerationAction
	if err := row.Scan(
		&ma.ID,
		&ma.ReviewID,
		&ma.ModeratorID,
		&ma.Action,
		&ma.Notes,
		&ma.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &ma, nil
}

const insertActionQuery = `
		INSERT INTO moderation_actions (review_id, moderator_id, action, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + actionColumns

// Create appends an audit record.
func (r *ModerationActionRepository) Create(ctx context.Context, reviewID, moderatorID int64, action domain.ModerationActionType, notes string) (_ *domain.ModerationAction, err error) {
	ctx, end := database.TraceQuery(ctx, "CreateModerationAction", insertActionQuery)
	defer func() { end(err) }()

	ma, err := scanAction(r.pool.QueryRow(ctx, insertActionQuery, reviewID, moderatorID, action, notes))
	if err != nil {
		return nil, database.StorageError("insert moderation action", err)
	}
	return ma, nil
}

const (
	listActionsByReviewQuery = `
		SELECT ` + actionColumns + `
		FROM moderation_actions
		WHERE review_id = $1
		ORDER BY created_at DESC, id DESC`

	listActionsByModeratorQuery = `
		SELECT ` + actionColumns + `
		FROM moderation_actions
		WHERE moderator_id = $1
		ORDER BY created_at DESC, id DESC`
)

func (r *ModerationActionRepository) list(ctx context.Context, op, query string, id int64) (_ []domain.ModerationAction, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, database.StorageError(op, err)
	}
	defer rows.Close()

	actions := []domain.ModerationAction{}
	for rows.Next() {
		ma, err := scanAction(rows)
		if err != nil {
			return nil, database.StorageError(op, err)
		}
		actions = append(actions, *ma)
	}
	if err := rows.Err(); err != nil {
		return nil, database.StorageError(op, err)
	}
	return actions, nil
}

// ListByReview returns a review's actions newest first.
func (r *ModerationActionRepository) ListByReview(ctx context.Context, reviewID int64) ([]domain.ModerationAction, error) {
	return r.list(ctx, "ListActionsByReview", listActionsByReviewQuery, reviewID)
}

// ListByModerator returns a moderator's actions newest first.
func (r *ModerationActionRepository) ListByModerator(ctx context.Context, moderatorID int64) ([]domain.ModerationAction, error) {
	return r.list(ctx, "ListActionsByModerator", listActionsByModeratorQuery, moderatorID)
}

const (
	actionCountsQuery = `
		SELECT action, COUNT(*)
		FROM moderation_actions
		WHERE ($1::timestamptz IS NULL OR created_at >= $1)
		  AND ($2::timestamptz IS NULL OR created_at <= $2)
		GROUP BY action`

	processingTimeQuery = `
		SELECT
			COUNT(*) FILTER (WHERE ma.action = 'approve'),
			COUNT(*),
			COALESCE(AVG(EXTRACT(EPOCH FROM (ma.created_at - r.created_at)) / 60), 0)::float8
		FROM moderation_actions ma
		JOIN reviews r ON r.id = ma.review_id
		WHERE ma.action IN ('approve', 'reject')
		  AND ($1::timestamptz IS NULL OR ma.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR ma.created_at <= $2)`
)

// Statistics aggregates the audit trail inside a read-only REPEATABLE READ
// transaction so both queries see the same snapshot.
func (r *ModerationActionRepository) Statistics(ctx context.Context, window domain.TimeWindow) (_ *domain.ActionStatistics, err error) {
	ctx, end := database.TraceQuery(ctx, "ActionStatistics", actionCountsQuery)
	defer func() { end(err) }()

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, database.StorageError("begin transaction", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	stats := &domain.ActionStatistics{Counts: make(map[domain.ModerationActionType]int)}

	rows, err := tx.Query(ctx, actionCountsQuery, window.Start, window.End)
	if err != nil {
		return nil, database.StorageError("count moderation actions", err)
	}
	for rows.Next() {
		var (
			action domain.ModerationActionType
			count  int
		)
		if err := rows.Scan(&action, &count); err != nil {
			rows.Close()
			return nil, database.StorageError("scan action count", err)
		}
		stats.Counts[action] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, database.StorageError("iterate action counts", err)
	}

	if err := tx.QueryRow(ctx, processingTimeQuery, window.Start, window.End).Scan(
		&stats.ApprovedCount,
		&stats.ApproveRejectCount,
		&stats.AverageProcessingMinutes,
	); err != nil {
		return nil, database.StorageError("average processing time", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, database.StorageError("commit transaction", err)
	}
	return stats, nil
}
