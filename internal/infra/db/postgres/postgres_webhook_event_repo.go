package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
)

var _ repository.WebhookEventRepository = (*webhookEventRepo)(nil)

type webhookEventRepo struct{ pool *pgxpool.Pool }

func NewWebhookEventRepo(pool *pgxpool.Pool) *webhookEventRepo {
	return &webhookEventRepo{pool: pool}
}

// RecordIfNew inserts the ledger row. The unique index on event_id is the sole
// arbiter of first-delivery-wins: a 23505 from a concurrent or repeated
// delivery is success-but-not-new, never an error.
func (r *webhookEventRepo) RecordIfNew(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (bool, error) {
	const q = `
INSERT INTO webhook_events (id, event_id, event_type, processed_at, last_error, retry_count)
VALUES ($1,$2,$3,$4,$5,$6);`

	_, err := execSQL(ctx, r.pool, tx, q, ev.ID, ev.EventID, ev.EventType, ev.ProcessedAt, ev.LastError, ev.RetryCount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return true, nil
}

func (r *webhookEventRepo) Lookup(ctx context.Context, tx repository.Tx, eventID string) (*model.WebhookEvent, error) {
	const q = `SELECT id, event_id, event_type, processed_at, last_error, retry_count FROM webhook_events WHERE event_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, eventID)
	if err != nil {
		return nil, err
	}

	ev := &model.WebhookEvent{}
	if err := row.Scan(&ev.ID, &ev.EventID, &ev.EventType, &ev.ProcessedAt, &ev.LastError, &ev.RetryCount); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return ev, nil
}

// MarkError never deletes the row; the provider's own redelivery will see the
// row and short-circuit, so the error text and retry counter are the only
// trace a failed attempt leaves.
func (r *webhookEventRepo) MarkError(ctx context.Context, tx repository.Tx, eventID, message string) error {
	const q = `UPDATE webhook_events SET last_error=$2, retry_count=retry_count+1 WHERE event_id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, eventID, message)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
