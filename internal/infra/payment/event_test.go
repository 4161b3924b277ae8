//go:build !integration

package payment

import (
	"errors"
	"testing"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("checkout session completed", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_1", "type": "checkout.session.completed", "created": 1700000000,
			"data": {"object": {
				"id": "cs_1", "payment_intent": "pi_1", "customer": "cus_1",
				"metadata": {"promotion_id": "promo-1"}
			}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		data, ok := ev.Data.(model.CheckoutCompleted)
		if !ok {
			t.Fatalf("expected CheckoutCompleted, got %T", ev.Data)
		}
		if data.SessionID != "cs_1" || data.PromotionID != "promo-1" || data.IntentID != "pi_1" || data.CustomerID != "cus_1" {
			t.Errorf("unexpected decode: %+v", data)
		}
	})

	t.Run("completed session without promotion metadata", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_1", "type": "checkout.session.completed", "created": 1700000000,
			"data": {"object": {"id": "cs_1", "payment_intent": "pi_1", "customer": "cus_1"}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if data := ev.Data.(model.CheckoutCompleted); data.PromotionID != "" {
			t.Errorf("expected empty promotion id, got %q", data.PromotionID)
		}
	})

	t.Run("checkout session expired", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_2", "type": "checkout.session.expired", "created": 1700000000,
			"data": {"object": {"id": "cs_1", "metadata": {"promotion_id": "promo-1"}}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		data, ok := ev.Data.(model.CheckoutExpired)
		if !ok {
			t.Fatalf("expected CheckoutExpired, got %T", ev.Data)
		}
		if data.SessionID != "cs_1" || data.PromotionID != "promo-1" {
			t.Errorf("unexpected decode: %+v", data)
		}
	})

	t.Run("payment intent failed", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_3", "type": "payment_intent.payment_failed", "created": 1700000000,
			"data": {"object": {"id": "pi_1", "metadata": {"checkout_session_id": "cs_1"}}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		data, ok := ev.Data.(model.PaymentFailed)
		if !ok {
			t.Fatalf("expected PaymentFailed, got %T", ev.Data)
		}
		if data.IntentID != "pi_1" || data.SessionID != "cs_1" {
			t.Errorf("unexpected decode: %+v", data)
		}
	})

	t.Run("charge refunded resolves the parent intent", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_4", "type": "charge.refunded", "created": 1700000000,
			"data": {"object": {"id": "ch_1", "payment_intent": "pi_1"}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		data, ok := ev.Data.(model.Refunded)
		if !ok {
			t.Fatalf("expected Refunded, got %T", ev.Data)
		}
		if data.IntentID != "pi_1" {
			t.Errorf("expected intent pi_1, got %q", data.IntentID)
		}
	})

	t.Run("intent refunded carries its own id", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_5", "type": "payment_intent.refunded", "created": 1700000000,
			"data": {"object": {"id": "pi_9"}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if data := ev.Data.(model.Refunded); data.IntentID != "pi_9" {
			t.Errorf("expected intent pi_9, got %q", data.IntentID)
		}
	})

	t.Run("unhandled type decodes to the unknown variant", func(t *testing.T) {
		raw := []byte(`{
			"id": "evt_6", "type": "customer.created", "created": 1700000000,
			"data": {"object": {"id": "cus_1"}}
		}`)
		ev, err := DecodeEvent(raw)
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		data, ok := ev.Data.(model.UnknownEvent)
		if !ok {
			t.Fatalf("expected UnknownEvent, got %T", ev.Data)
		}
		if data.RawType != "customer.created" {
			t.Errorf("expected raw type preserved, got %q", data.RawType)
		}
	})

	t.Run("malformed payloads are rejected", func(t *testing.T) {
		cases := [][]byte{
			[]byte(`not json`),
			[]byte(`{"type": "checkout.session.completed"}`),
			[]byte(`{"id": "evt_1"}`),
			[]byte(`{"id": "evt_1", "type": "checkout.session.completed", "data": {"object": "nope"}}`),
		}
		for _, raw := range cases {
			if _, err := DecodeEvent(raw); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("payload %s: expected ErrInvalidArgument, got: %v", raw, err)
			}
		}
	})
}
