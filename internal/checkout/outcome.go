package checkout

import (
	"net/url"
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
)

// Notices shown on the order history page after a redirect.
const NoticeAlreadyProcessed = "already_processed"

// CallbackOutcome is the single result of a callback pass: either a redirect
// target or an error for the shopper.
type CallbackOutcome struct {
	Phase    enums.SagaPhase
	Redirect string
	Err      error
}

type CompletionState string

const (
	CompletionDisplayed CompletionState = "displayed"
	CompletionNotFound  CompletionState = "not_found"
)

// CompletionOutcome is what the success view renders. Redirect is set only for
// invalid access; Err is set for mismatches.
type CompletionOutcome struct {
	Phase    enums.SagaPhase
	State    CompletionState
	Order    *orders.Order
	Redirect string
	Err      error
}

func withQuery(rawURL, key, value string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}
