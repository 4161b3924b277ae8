package repository

import (
	"context"

	"marketplace-promotions/internal/domain/model"
)

// -----------------------------
// Sales (listing projection)
// -----------------------------

type SaleRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Sale) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Sale, error)
}
