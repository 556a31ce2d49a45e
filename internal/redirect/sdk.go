package redirect

import (
	"strings"

	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

// PaymentSdkClient produces the parameters the browser hands to the Naver Pay
// SDK's open call.
type PaymentSdkClient interface {
	Open(intent payments.NaverIntent, returnURL string) (SDKOpen, error)
}

// SDKOpen is the browser-side SDK bootstrap plus the per-payment open params.
type SDKOpen struct {
	ClientID       string         `json:"clientId"`
	ChainID        string         `json:"chainId,omitempty"`
	Mode           string         `json:"mode"`
	PayType        string         `json:"payType"`
	MerchantPayKey string         `json:"merchantPayKey"`
	ReturnURL      string         `json:"returnUrl"`
	Params         map[string]any `json:"params,omitempty"`
}

type naverSDK struct {
	cfg config.NaverPayConfig
}

// NewNaverSDK resolves the SDK capability once from configuration. Without a
// client id the SDK cannot load and SDK_UNAVAILABLE is returned.
func NewNaverSDK(cfg config.NaverPayConfig) (PaymentSdkClient, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSDKUnavailable, "naver pay client id is not configured")
	}
	return &naverSDK{cfg: cfg}, nil
}

func (n *naverSDK) Open(intent payments.NaverIntent, returnURL string) (SDKOpen, error) {
	if intent.MerchantPayKey == "" {
		return SDKOpen{}, pkgerrors.New(pkgerrors.CodeIntentCreation, "naver intent has no merchantPayKey")
	}
	params := make(map[string]any, len(intent.SDKOpenParams))
	for k, v := range intent.SDKOpenParams {
		params[k] = v
	}
	return SDKOpen{
		ClientID:       n.cfg.ClientID,
		ChainID:        n.cfg.ChainID,
		Mode:           n.cfg.Mode,
		PayType:        n.cfg.PayType,
		MerchantPayKey: intent.MerchantPayKey,
		ReturnURL:      returnURL,
		Params:         params,
	}, nil
}

// UnavailableSDK stands in when the Naver SDK could not be configured. Every
// Open reports the startup failure.
type UnavailableSDK struct {
	Err error
}

func (u UnavailableSDK) Open(payments.NaverIntent, string) (SDKOpen, error) {
	if te := pkgerrors.As(u.Err); te != nil {
		return SDKOpen{}, te
	}
	return SDKOpen{}, pkgerrors.Wrap(pkgerrors.CodeSDKUnavailable, u.Err, "naver pay is unavailable")
}
