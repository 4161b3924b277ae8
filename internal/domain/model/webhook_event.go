package model

import "time"

// WebhookEvent is one row of the idempotency ledger: a durable record that an
// external provider event has been accepted. The unique external event id is
// the sole arbiter of first-delivery-wins under concurrent redelivery.
//
// Rows are never deleted. A processing failure after the row was inserted only
// attaches an error message and bumps the retry counter; redelivery of the
// same event id short-circuits on ledger presence and does not rerun the
// business transition.
type WebhookEvent struct {
	ID          string // ULID surrogate key
	EventID     string // provider-assigned id, unique
	EventType   string
	ProcessedAt time.Time
	LastError   *string
	RetryCount  int
}
