package enums

import (
	"fmt"
	"strings"
)

// PaymentProvider names the redirect-based wallet handling a payment.
type PaymentProvider string

const (
	PaymentProviderKakao PaymentProvider = "kakao"
	PaymentProviderNaver PaymentProvider = "naver"
)

var validPaymentProviders = []PaymentProvider{
	PaymentProviderKakao,
	PaymentProviderNaver,
}

// String implements fmt.Stringer.
func (p PaymentProvider) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentProvider.
func (p PaymentProvider) IsValid() bool {
	for _, candidate := range validPaymentProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

// PaymentMethod maps the provider to the payment_method sent with the order.
func (p PaymentProvider) PaymentMethod() PaymentMethod {
	switch p {
	case PaymentProviderKakao:
		return PaymentMethodKakaoPay
	case PaymentProviderNaver:
		return PaymentMethodNaverPay
	}
	return ""
}

// ParsePaymentProvider converts raw input into a PaymentProvider. Matching is case-insensitive.
func ParsePaymentProvider(value string) (PaymentProvider, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentProviders {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment provider %q", value)
}
