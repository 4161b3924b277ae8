package model

import (
	"time"

	"marketplace-promotions/internal/domain"

	"github.com/google/uuid"
)

type PromotionStatus string

const (
	PromotionStatusPending  PromotionStatus = "pending"  // checkout session created; awaiting payment confirmation
	PromotionStatusActive   PromotionStatus = "active"   // payment confirmed (or operator test activation)
	PromotionStatusExpired  PromotionStatus = "expired"  // window closed by admin or scheduled process
	PromotionStatusCanceled PromotionStatus = "canceled" // payment failed or checkout session expired
	PromotionStatusRefunded PromotionStatus = "refunded" // provider reported a refund on the payment intent
)

type PromotionTier string

const (
	TierFeatured  PromotionTier = "featured"  // highlighted card in category listings
	TierSpotlight PromotionTier = "spotlight" // homepage carousel placement
	TierPremium   PromotionTier = "premium"   // both placements plus map pin boost
)

func ValidTier(t PromotionTier) bool {
	switch t {
	case TierFeatured, TierSpotlight, TierPremium:
		return true
	}
	return false
}

// Promotion is a paid (or operator-created test) time-bounded featured
// placement attached to exactly one sale listing. Amounts are integer
// minor currency units; test promotions carry a zero amount.
type Promotion struct {
	ID                string // UUID
	SaleID            string // UUID of the promoted listing
	UserID            string // UUID of the listing owner
	Status            PromotionStatus
	Tier              PromotionTier
	StartsAt          *time.Time
	EndsAt            *time.Time
	AmountMinor       int64
	Currency          string
	PaymentIntentID   *string // provider payment intent, set on confirmation
	CustomerID        *string // provider customer, set on confirmation
	CheckoutSessionID *string // provider checkout session that created this row
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CanceledAt        *time.Time
	RefundedAt        *time.Time
}

// Live reports whether the promotion occupies the sale's single live slot.
func (p *Promotion) Live() bool {
	return p.Status == PromotionStatusPending || p.Status == PromotionStatusActive
}

// ValidateWindow enforces that the end is strictly after the start.
func ValidateWindow(startsAt, endsAt time.Time) error {
	if !endsAt.After(startsAt) {
		return domain.ErrInvalidWindow
	}
	return nil
}

// NewTestPromotion creates a non-billed promotion directly in active status,
// used by the operator tool which bypasses the payment flow entirely.
func NewTestPromotion(id, saleID, userID string, tier PromotionTier, startsAt, endsAt time.Time) (*Promotion, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if saleID == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !ValidTier(tier) {
		return nil, domain.ErrInvalidArgument
	}
	if err := ValidateWindow(startsAt, endsAt); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Promotion{
		ID:          id,
		SaleID:      saleID,
		UserID:      userID,
		Status:      PromotionStatusActive,
		Tier:        tier,
		StartsAt:    &startsAt,
		EndsAt:      &endsAt,
		AmountMinor: 0,
		Currency:    "usd",
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
