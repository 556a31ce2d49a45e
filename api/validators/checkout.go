package validators

import "net/http"

// CheckoutRequest is the body of POST /api/v1/checkout.
type CheckoutRequest struct {
	Provider string `json:"provider" validate:"required,oneof=kakao naver"`
	Device   string `json:"device,omitempty" validate:"omitempty,oneof=pc mobile"`
}

// DecodeCheckoutRequest reads and validates a checkout submission.
func DecodeCheckoutRequest(r *http.Request) (CheckoutRequest, error) {
	var req CheckoutRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		return CheckoutRequest{}, err
	}
	return req, nil
}
