//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
	"marketplace-promotions/internal/domain/ports/repository"
)

// ---- Promotions ----

// MockPromotionRepo is an in-memory PromotionRepository. Each method has a
// Func hook tests can set to override or observe calls; without a hook the
// in-memory default applies.
type MockPromotionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Promotion

	SaveFunc            func(ctx context.Context, tx repository.Tx, p *model.Promotion) error
	ActivateFunc        func(ctx context.Context, tx repository.Tx, id, intentID, customerID string) error
	CancelIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error)
	MarkRefundedFunc    func(ctx context.Context, tx repository.Tx, id string, at time.Time) error
	ExpireLiveFunc      func(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error)
	ExpireActiveFunc    func(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error)
}

var _ repository.PromotionRepository = (*MockPromotionRepo)(nil)

func NewMockPromotionRepo() *MockPromotionRepo {
	return &MockPromotionRepo{store: make(map[string]*model.Promotion)}
}

func (m *MockPromotionRepo) Save(ctx context.Context, tx repository.Tx, p *model.Promotion) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPromotionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPromotionRepo) FindByCheckoutSessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.CheckoutSessionID != nil && *p.CheckoutSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPromotionRepo) FindByPaymentIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.PaymentIntentID != nil && *p.PaymentIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPromotionRepo) ListBySale(ctx context.Context, tx repository.Tx, saleID string) ([]*model.Promotion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Promotion
	for _, p := range m.store {
		if p.SaleID == saleID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPromotionRepo) Activate(ctx context.Context, tx repository.Tx, id, intentID, customerID string) error {
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, tx, id, intentID, customerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrPromotionNotFound
	}
	p.Status = model.PromotionStatusActive
	p.PaymentIntentID = &intentID
	p.CustomerID = &customerID
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPromotionRepo) CancelIfPending(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	if m.CancelIfPendingFunc != nil {
		return m.CancelIfPendingFunc(ctx, tx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PromotionStatusPending {
		return false, nil
	}
	p.Status = model.PromotionStatusCanceled
	p.CanceledAt = &at
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPromotionRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	if m.MarkRefundedFunc != nil {
		return m.MarkRefundedFunc(ctx, tx, id, at)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrPromotionNotFound
	}
	p.Status = model.PromotionStatusRefunded
	p.RefundedAt = &at
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPromotionRepo) ExpireLive(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error) {
	if m.ExpireLiveFunc != nil {
		return m.ExpireLiveFunc(ctx, tx, saleID, endsAt)
	}
	return m.expire(saleID, endsAt, func(p *model.Promotion) bool { return p.Live() }), nil
}

func (m *MockPromotionRepo) ExpireActive(ctx context.Context, tx repository.Tx, saleID string, endsAt time.Time) ([]*model.Promotion, error) {
	if m.ExpireActiveFunc != nil {
		return m.ExpireActiveFunc(ctx, tx, saleID, endsAt)
	}
	return m.expire(saleID, endsAt, func(p *model.Promotion) bool { return p.Status == model.PromotionStatusActive }), nil
}

func (m *MockPromotionRepo) expire(saleID string, endsAt time.Time, match func(*model.Promotion) bool) []*model.Promotion {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Promotion
	for _, p := range m.store {
		if p.SaleID == saleID && match(p) {
			p.Status = model.PromotionStatusExpired
			p.EndsAt = &endsAt
			p.UpdatedAt = time.Now()
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

func (m *MockPromotionRepo) ExpireEnded(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.store {
		if p.Status == model.PromotionStatusActive && p.EndsAt != nil && !p.EndsAt.After(now) {
			p.Status = model.PromotionStatusExpired
			p.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// ---- Sales ----

type MockSaleRepo struct {
	mu    sync.Mutex
	store map[string]*model.Sale

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Sale, error)
}

var _ repository.SaleRepository = (*MockSaleRepo)(nil)

func NewMockSaleRepo() *MockSaleRepo {
	return &MockSaleRepo{store: make(map[string]*model.Sale)}
}

func (m *MockSaleRepo) Save(ctx context.Context, tx repository.Tx, s *model.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSaleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Sale, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	cp := *s
	return &cp, nil
}

// ---- Webhook event ledger ----

type MockWebhookEventRepo struct {
	mu    sync.Mutex
	store map[string]*model.WebhookEvent // keyed by provider event id

	RecordIfNewFunc func(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (bool, error)
	MarkErrorFunc   func(ctx context.Context, tx repository.Tx, eventID, message string) error
}

var _ repository.WebhookEventRepository = (*MockWebhookEventRepo)(nil)

func NewMockWebhookEventRepo() *MockWebhookEventRepo {
	return &MockWebhookEventRepo{store: make(map[string]*model.WebhookEvent)}
}

func (m *MockWebhookEventRepo) RecordIfNew(ctx context.Context, tx repository.Tx, ev *model.WebhookEvent) (bool, error) {
	if m.RecordIfNewFunc != nil {
		return m.RecordIfNewFunc(ctx, tx, ev)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[ev.EventID]; ok {
		return false, nil
	}
	cp := *ev
	m.store[ev.EventID] = &cp
	return true, nil
}

func (m *MockWebhookEventRepo) Lookup(ctx context.Context, tx repository.Tx, eventID string) (*model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.store[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *ev
	return &cp, nil
}

func (m *MockWebhookEventRepo) MarkError(ctx context.Context, tx repository.Tx, eventID, message string) error {
	if m.MarkErrorFunc != nil {
		return m.MarkErrorFunc(ctx, tx, eventID, message)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.store[eventID]
	if !ok {
		return domain.ErrNotFound
	}
	ev.LastError = &message
	ev.RetryCount++
	return nil
}

// ---- Transaction manager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately with NoTX by default; tests verifying
// transactional behavior assign WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
