//go:build !integration

package web_test

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/usecase"
)

type MockWebhookUC struct {
	ProcessFunc func(ctx context.Context, ev *model.PaymentEvent) (usecase.WebhookResult, error)
}

var _ usecase.WebhookUseCase = (*MockWebhookUC)(nil)

func (m *MockWebhookUC) Process(ctx context.Context, ev *model.PaymentEvent) (usecase.WebhookResult, error) {
	if m.ProcessFunc != nil {
		return m.ProcessFunc(ctx, ev)
	}
	return usecase.WebhookResult{Processed: true}, nil
}

type MockAdminUC struct {
	ActivateFunc    func(ctx context.Context, params usecase.ActivateParams) (*model.Promotion, error)
	DeactivateFunc  func(ctx context.Context, saleID string) ([]*model.Promotion, error)
	ListBySaleFunc  func(ctx context.Context, saleID string) ([]*model.Promotion, error)
	ExpireEndedFunc func(ctx context.Context) (int, error)
}

var _ usecase.PromotionAdminUseCase = (*MockAdminUC)(nil)

func (m *MockAdminUC) Activate(ctx context.Context, params usecase.ActivateParams) (*model.Promotion, error) {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, params)
	}
	return &model.Promotion{ID: "promo-1", SaleID: params.SaleID, Status: model.PromotionStatusActive}, nil
}

func (m *MockAdminUC) Deactivate(ctx context.Context, saleID string) ([]*model.Promotion, error) {
	if m.DeactivateFunc != nil {
		return m.DeactivateFunc(ctx, saleID)
	}
	return nil, nil
}

func (m *MockAdminUC) ListBySale(ctx context.Context, saleID string) ([]*model.Promotion, error) {
	if m.ListBySaleFunc != nil {
		return m.ListBySaleFunc(ctx, saleID)
	}
	return nil, nil
}

func (m *MockAdminUC) ExpireEnded(ctx context.Context) (int, error) {
	if m.ExpireEndedFunc != nil {
		return m.ExpireEndedFunc(ctx)
	}
	return 0, nil
}

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
