package orders

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

var validate = validator.New()

// DraftItem is one line the shopper intends to order.
type DraftItem struct {
	MenuID    int64 `validate:"required"`
	Name      string
	Quantity  int   `validate:"gt=0"`
	UnitPrice int64 `validate:"gte=0"`
}

// Draft is built from the cart at "pay" and discarded once an order exists.
type Draft struct {
	Items         []DraftItem         `validate:"required,min=1,dive"`
	TotalAmount   int64               `validate:"gt=0"`
	PaymentMethod enums.PaymentMethod `validate:"required"`
}

// DraftFromSnapshot copies the cart lines into a draft for the given payment method.
func DraftFromSnapshot(snap cart.Snapshot, method enums.PaymentMethod) Draft {
	items := make([]DraftItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, DraftItem{
			MenuID:    item.MenuID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return Draft{
		Items:         items,
		TotalAmount:   snap.TotalAmount,
		PaymentMethod: method,
	}
}

// Validate enforces non-empty items, positive quantities and a total equal to
// the sum of the lines.
func (d Draft) Validate() error {
	if len(d.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}
	if d.TotalAmount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total must be positive")
	}
	if err := validate.Struct(d); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "order draft is invalid")
	}
	if !d.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment method %q", d.PaymentMethod))
	}
	if sum := d.lineSum(); sum != d.TotalAmount {
		return pkgerrors.New(pkgerrors.CodeValidation, "order total does not match its items").
			WithDetails(map[string]any{"total_amount": d.TotalAmount, "items_total": sum})
	}
	return nil
}

func (d Draft) lineSum() int64 {
	var sum int64
	for _, item := range d.Items {
		sum += item.UnitPrice * int64(item.Quantity)
	}
	return sum
}

func (d Draft) orderItems() []OrderItem {
	items := make([]OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, OrderItem{
			MenuID:     item.MenuID,
			Name:       item.Name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.UnitPrice * int64(item.Quantity),
		})
	}
	return items
}
