package model

import "time"

type SaleStatus string

const (
	SaleStatusDraft     SaleStatus = "draft"
	SaleStatusPublished SaleStatus = "published"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCanceled  SaleStatus = "canceled"
)

// Sale is the minimal projection of a marketplace listing this service needs:
// the admin tool validates existence and publishability, and one activation
// mode anchors the promotion window on the sale's start date.
type Sale struct {
	ID        string // UUID
	OwnerID   string // UUID
	Title     string
	Status    SaleStatus
	StartsAt  *time.Time // when the sale event itself begins, nil for undated listings
	CreatedAt time.Time
}

// Promotable reports whether the sale may receive a promotion. Draft and
// settled listings are not eligible.
func (s *Sale) Promotable() bool {
	return s.Status == SaleStatusPublished
}
