package payments

import (
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// Intent is a provider-issued, single-use payment context bound to one order.
// Implementations: KakaoIntent and NaverIntent.
type Intent interface {
	Provider() enums.PaymentProvider
	ForOrder() orders.OrderID
	isIntent()
}

type KakaoIntent struct {
	TID               string         `json:"tid"`
	OrderID           orders.OrderID `json:"order_id"`
	RedirectURLPC     string         `json:"next_redirect_pc_url"`
	RedirectURLMobile string         `json:"next_redirect_mobile_url"`
}

func (KakaoIntent) Provider() enums.PaymentProvider { return enums.PaymentProviderKakao }
func (k KakaoIntent) ForOrder() orders.OrderID { return k.OrderID }
func (KakaoIntent) isIntent() {}

type NaverIntent struct {
	OrderID        orders.OrderID `json:"order_id"`
	MerchantPayKey string         `json:"merchantPayKey"`
	ReturnURL      string         `json:"returnUrl"`
	// SDKOpenParams holds every other field of the prepare response, passed
	// through to the SDK's open call untouched.
	SDKOpenParams map[string]any `json:"sdkOpenParams,omitempty"`
}

func (NaverIntent) Provider() enums.PaymentProvider { return enums.PaymentProviderNaver }
func (n NaverIntent) ForOrder() orders.OrderID { return n.OrderID }
func (NaverIntent) isIntent() {}
