package payments

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// IntentRequest is the provider-specific body of a prepare call. The set of
// implementations is closed: KakaoIntentRequest and NaverIntentRequest.
type IntentRequest interface {
	Provider() enums.PaymentProvider
	isIntentRequest()
}

// KakaoIntentRequest aggregates the order into a single line; Kakao Pay
// accepts one item_name and one quantity per payment.
type KakaoIntentRequest struct {
	OrderID     orders.OrderID `json:"order_id"`
	TotalAmount int64          `json:"total_amount"`
	ItemName    string         `json:"item_name"`
	Quantity    int            `json:"quantity"`
}

func (KakaoIntentRequest) Provider() enums.PaymentProvider { return enums.PaymentProviderKakao }
func (KakaoIntentRequest) isIntentRequest() {}

// NaverItem is a (menu_id, quantity) pair of a Naver Pay prepare call.
type NaverItem struct {
	MenuID   int64 `json:"menu_id"`
	Quantity int   `json:"quantity"`
}

// NaverIntentRequest carries per-item pairs. The backend body has no
// order_id; OrderID only ties the resulting intent back to the order.
type NaverIntentRequest struct {
	OrderID     orders.OrderID `json:"-"`
	TotalAmount int64          `json:"total_amount"`
	Items       []NaverItem    `json:"items"`
}

func (NaverIntentRequest) Provider() enums.PaymentProvider { return enums.PaymentProviderNaver }
func (NaverIntentRequest) isIntentRequest() {}

// NewIntentRequest builds the request variant for provider from a created order.
func NewIntentRequest(provider enums.PaymentProvider, order orders.Order) (IntentRequest, error) {
	if order.ID.IsZero() {
		return nil, fmt.Errorf("order id required to prepare a payment")
	}
	if len(order.Items) == 0 {
		return nil, fmt.Errorf("order %s has no items", order.ID)
	}

	switch provider {
	case enums.PaymentProviderKakao:
		quantity := 0
		for _, item := range order.Items {
			quantity += item.Quantity
		}
		return KakaoIntentRequest{
			OrderID:     order.ID,
			TotalAmount: order.TotalAmount,
			ItemName:    KakaoItemName(order.Items),
			Quantity:    quantity,
		}, nil
	case enums.PaymentProviderNaver:
		items := make([]NaverItem, 0, len(order.Items))
		for _, item := range order.Items {
			items = append(items, NaverItem{MenuID: item.MenuID, Quantity: item.Quantity})
		}
		return NaverIntentRequest{
			OrderID:     order.ID,
			TotalAmount: order.TotalAmount,
			Items:       items,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", provider)
	}
}

// KakaoItemName summarizes the order as "<first item> 외 N건".
func KakaoItemName(items []orders.OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	first := strings.TrimSpace(items[0].Name)
	if first == "" {
		first = fmt.Sprintf("메뉴 #%d", items[0].MenuID)
	}
	if len(items) == 1 {
		return first
	}
	return fmt.Sprintf("%s 외 %d건", first, len(items)-1)
}
