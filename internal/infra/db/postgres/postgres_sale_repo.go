package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
)

var _ repository.SaleRepository = (*saleRepo)(nil)

type saleRepo struct{ pool *pgxpool.Pool }

func NewSaleRepo(pool *pgxpool.Pool) *saleRepo {
	return &saleRepo{pool: pool}
}

func (r *saleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Sale) error {
	const q = `
INSERT INTO sales (id, owner_id, title, status, starts_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET owner_id=$2, title=$3, status=$4, starts_at=$5;`

	_, err := execSQL(ctx, r.pool, tx, q, s.ID, s.OwnerID, s.Title, s.Status, s.StartsAt, s.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *saleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Sale, error) {
	const q = `SELECT id, owner_id, title, status, starts_at, created_at FROM sales WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}

	s := &model.Sale{}
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Title, &s.Status, &s.StartsAt, &s.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSaleNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}
