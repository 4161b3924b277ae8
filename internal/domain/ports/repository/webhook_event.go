package repository

import (
	"context"

	"marketplace-promotions/internal/domain/model"
)

// -----------------------------
// Webhook event ledger
// -----------------------------

type WebhookEventRepository interface {
	// RecordIfNew inserts the ledger row, treating a unique-constraint
	// violation on the external event id as success-but-not-new. Under
	// concurrent delivery of the same event exactly one caller observes
	// isNew=true.
	RecordIfNew(ctx context.Context, tx Tx, ev *model.WebhookEvent) (isNew bool, err error)
	Lookup(ctx context.Context, tx Tx, eventID string) (*model.WebhookEvent, error)
	// MarkError attaches a processing error to an existing row and increments
	// its retry counter. The row itself is never deleted.
	MarkError(ctx context.Context, tx Tx, eventID, message string) error
}
