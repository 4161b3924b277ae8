package model

import "time"

// Handled provider event types. The provider's catalog evolves; anything else
// decodes to Unknown and is acknowledged without processing.
const (
	EventTypeCheckoutCompleted = "checkout.session.completed"
	EventTypeCheckoutExpired   = "checkout.session.expired"
	EventTypePaymentFailed     = "payment_intent.payment_failed"
	EventTypeChargeRefunded    = "charge.refunded"
	EventTypeIntentRefunded    = "payment_intent.refunded"
)

// PaymentEvent is the verified, decoded form of a provider webhook payload.
// The raw JSON is inspected exactly once, at the transport edge; handlers
// switch over the Data union and never touch the wire shape again.
type PaymentEvent struct {
	ID        string // provider-assigned event id, the idempotency key
	Type      string
	CreatedAt time.Time
	Data      PaymentEventData
}

// PaymentEventData is a closed union: one variant per handled event type plus
// UnknownEvent carrying the raw type string.
type PaymentEventData interface{ isPaymentEventData() }

type CheckoutCompleted struct {
	SessionID   string
	PromotionID string // from session metadata; empty when the checkout step failed to attach it
	IntentID    string
	CustomerID  string
}

type CheckoutExpired struct {
	SessionID   string
	PromotionID string
}

type PaymentFailed struct {
	IntentID    string
	SessionID   string // the checkout session the intent belonged to, when the provider includes it
	PromotionID string
}

type Refunded struct {
	IntentID string
}

type UnknownEvent struct {
	RawType string
}

func (CheckoutCompleted) isPaymentEventData() {}
func (CheckoutExpired) isPaymentEventData()   {}
func (PaymentFailed) isPaymentEventData()     {}
func (Refunded) isPaymentEventData()          {}
func (UnknownEvent) isPaymentEventData()      {}
