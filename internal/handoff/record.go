package handoff

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// Slot names. There is one pending slot per scope whatever the provider, so
// starting a second checkout overwrites the first.
const (
	SlotPendingPayment     = "pendingPayment"
	SlotLastCompletedOrder = "lastCompletedOrder"
)

const schemaVersion = 1

// PendingPayment binds an order to the provider transaction the shopper was
// sent to. Kakao records carry TID; Naver records carry MerchantPayKey.
type PendingPayment struct {
	Provider       enums.PaymentProvider `json:"provider"`
	TID            string                `json:"tid,omitempty"`
	MerchantPayKey string                `json:"merchantPayKey,omitempty"`
	OrderID        orders.OrderID        `json:"orderId"`
	CreatedAt      time.Time             `json:"createdAt"`
}

func (p PendingPayment) Validate() error {
	if p.OrderID.IsZero() {
		return fmt.Errorf("pending payment requires an order id")
	}
	switch p.Provider {
	case enums.PaymentProviderKakao:
		if strings.TrimSpace(p.TID) == "" {
			return fmt.Errorf("kakao pending payment requires a tid")
		}
	case enums.PaymentProviderNaver:
		if strings.TrimSpace(p.MerchantPayKey) == "" {
			return fmt.Errorf("naver pending payment requires a merchantPayKey")
		}
	default:
		return fmt.Errorf("pending payment has unknown provider %q", p.Provider)
	}
	return nil
}

type envelope struct {
	V    int             `json:"v"`
	Data json.RawMessage `json:"data"`
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{V: schemaVersion, Data: data})
}

func decode(payload []byte, dest any) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decoding handoff envelope: %w", err)
	}
	if env.V != schemaVersion {
		return fmt.Errorf("unsupported handoff schema version %d", env.V)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("handoff envelope has no data")
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decoding handoff data: %w", err)
	}
	return nil
}
