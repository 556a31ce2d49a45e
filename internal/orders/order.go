package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// OrderID is the backend's canonical, provider-independent order identifier.
// The backend may encode it as a JSON number or string; it is always handled as text.
type OrderID string

func (id OrderID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty.
func (id OrderID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}

func (id *OrderID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = OrderID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("order id must be a string or number: %w", err)
	}
	*id = OrderID(n.String())
	return nil
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	MenuID     int64  `json:"menu_id"`
	Name       string `json:"name,omitempty"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unit_price"`
	TotalPrice int64  `json:"total_price"`
}

// Order is the backend's canonical order. The storefront never mutates it;
// only the backend moves it between statuses.
type Order struct {
	ID            OrderID             `json:"order_id"`
	Items         []OrderItem         `json:"items"`
	TotalAmount   int64               `json:"total_amount"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time           `json:"created_at"`
}

// UnmarshalJSON accepts both "order_id" and "id" for the identifier.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	aux := struct {
		*plain
		AltID OrderID `json:"id"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if o.ID.IsZero() {
		o.ID = aux.AltID
	}
	return nil
}
