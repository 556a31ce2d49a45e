package redirect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
)

// OrderIDParam is the query parameter that carries the order through the
// provider round trip.
const OrderIDParam = "order_id"

// AppendOrderID adds order_id to rawURL. A URL that already names a non-empty
// order_id is returned unchanged, so the result is stable under repeated
// application. A blank order_id= is filled in. Any fragment stays at the end.
func AppendOrderID(rawURL string, orderID orders.OrderID) (string, error) {
	if orderID.IsZero() {
		return "", fmt.Errorf("order id required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parsing redirect url: %w", err)
	}
	query := parsed.Query()
	if query.Has(OrderIDParam) {
		if strings.TrimSpace(query.Get(OrderIDParam)) != "" {
			return rawURL, nil
		}
		query.Set(OrderIDParam, orderID.String())
		parsed.RawQuery = query.Encode()
		return parsed.String(), nil
	}

	base, fragment, hasFragment := strings.Cut(rawURL, "#")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	out := base + sep + OrderIDParam + "=" + url.QueryEscape(orderID.String())
	if hasFragment {
		out += "#" + fragment
	}
	return out, nil
}

// OrderIDFromURL returns the order_id carried by rawURL, or the zero id.
func OrderIDFromURL(rawURL string) orders.OrderID {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return orders.OrderID(strings.TrimSpace(parsed.Query().Get(OrderIDParam)))
}
