package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

const createOrderPath = "/order"

// Initiator submits a draft to the backend and returns the canonical order.
//
// Submit sends exactly one POST per call and never retries: the backend does
// not deduplicate, so a retry would create a second order. Whether to try
// again after a NETWORK_FAILURE is the shopper's decision.
type Initiator interface {
	Submit(ctx context.Context, session string, draft Draft) (Order, error)
}

type backendAPI interface {
	Post(ctx context.Context, path string, query url.Values, session string, body, out any) error
}

type initiator struct {
	api backendAPI
	now func() time.Time
}

// NewInitiator builds an Initiator over the backend order endpoint.
func NewInitiator(api backendAPI) (Initiator, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &initiator{api: api, now: time.Now}, nil
}

type createOrderItem struct {
	MenuID     int64 `json:"menu_id"`
	Quantity   int   `json:"quantity"`
	UnitPrice  int64 `json:"unit_price"`
	TotalPrice int64 `json:"total_price"`
}

type createOrderRequest struct {
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	TotalAmount   int64               `json:"total_amount"`
	Items         []createOrderItem   `json:"items"`
}

type createOrderResponse struct {
	OrderID   OrderID           `json:"order_id"`
	Status    enums.OrderStatus `json:"status"`
	CreatedAt *time.Time        `json:"created_at"`
}

func (i *initiator) Submit(ctx context.Context, session string, draft Draft) (Order, error) {
	if strings.TrimSpace(session) == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeSessionMissing, "session required to place an order")
	}
	if err := draft.Validate(); err != nil {
		return Order{}, err
	}

	items := draft.orderItems()
	body := createOrderRequest{
		PaymentMethod: draft.PaymentMethod,
		TotalAmount:   draft.TotalAmount,
		Items:         make([]createOrderItem, 0, len(items)),
	}
	for _, item := range items {
		body.Items = append(body.Items, createOrderItem{
			MenuID:     item.MenuID,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}

	var resp createOrderResponse
	if err := i.api.Post(ctx, createOrderPath, nil, session, body, &resp); err != nil {
		return Order{}, classifySubmitError(err)
	}
	if resp.OrderID.IsZero() {
		return Order{}, pkgerrors.New(pkgerrors.CodeDependency, "backend accepted the order without an order_id")
	}

	order := Order{
		ID:            resp.OrderID,
		Items:         items,
		TotalAmount:   draft.TotalAmount,
		Status:        enums.OrderStatusCreated,
		PaymentMethod: draft.PaymentMethod,
		CreatedAt:     i.now().UTC(),
	}
	if resp.Status.IsValid() {
		order.Status = resp.Status
	}
	if resp.CreatedAt != nil {
		order.CreatedAt = resp.CreatedAt.UTC()
	}
	return order, nil
}

func classifySubmitError(err error) error {
	switch status := backend.Status(err); {
	case status == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeSessionMissing, err, "backend rejected the session")
	case status >= 400 && status < 500:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, backend.Reason(err)).
			WithDetails(map[string]any{"reason": backend.Reason(err), "status": status})
	default:
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, "could not place order")
	}
}
