package payment

import (
	"encoding/json"
	"fmt"
	"time"

	"marketplace-promotions/internal/domain"
	"marketplace-promotions/internal/domain/model"
)

// Wire shapes of the provider envelope. Decoding happens exactly once, right
// after signature verification; everything downstream works on the
// model.PaymentEvent union.

type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type sessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	Customer      string            `json:"customer"`
	Metadata      map[string]string `json:"metadata"`
}

type intentObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

type chargeObject struct {
	ID            string `json:"id"`
	PaymentIntent string `json:"payment_intent"`
}

// DecodeEvent parses a verified raw payload into the event union.
func DecodeEvent(raw []byte) (*model.PaymentEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed event payload", domain.ErrInvalidArgument)
	}
	if env.ID == "" || env.Type == "" {
		return nil, fmt.Errorf("%w: event id and type are required", domain.ErrInvalidArgument)
	}

	ev := &model.PaymentEvent{ID: env.ID, Type: env.Type, CreatedAt: time.Unix(env.Created, 0)}

	switch env.Type {
	case model.EventTypeCheckoutCompleted:
		var obj sessionObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%w: malformed checkout session object", domain.ErrInvalidArgument)
		}
		ev.Data = model.CheckoutCompleted{
			SessionID:   obj.ID,
			PromotionID: obj.Metadata["promotion_id"],
			IntentID:    obj.PaymentIntent,
			CustomerID:  obj.Customer,
		}
	case model.EventTypeCheckoutExpired:
		var obj sessionObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%w: malformed checkout session object", domain.ErrInvalidArgument)
		}
		ev.Data = model.CheckoutExpired{SessionID: obj.ID, PromotionID: obj.Metadata["promotion_id"]}
	case model.EventTypePaymentFailed:
		var obj intentObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%w: malformed payment intent object", domain.ErrInvalidArgument)
		}
		ev.Data = model.PaymentFailed{
			IntentID:    obj.ID,
			SessionID:   obj.Metadata["checkout_session_id"],
			PromotionID: obj.Metadata["promotion_id"],
		}
	case model.EventTypeChargeRefunded:
		var obj chargeObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%w: malformed charge object", domain.ErrInvalidArgument)
		}
		// A charge event carries a reference to its parent intent.
		ev.Data = model.Refunded{IntentID: obj.PaymentIntent}
	case model.EventTypeIntentRefunded:
		var obj intentObject
		if err := json.Unmarshal(env.Data.Object, &obj); err != nil {
			return nil, fmt.Errorf("%w: malformed payment intent object", domain.ErrInvalidArgument)
		}
		// An intent event carries itself.
		ev.Data = model.Refunded{IntentID: obj.ID}
	default:
		ev.Data = model.UnknownEvent{RawType: env.Type}
	}
	return ev, nil
}
