package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

const (
	kakaoPreparePath = "/payment/kakao/prepare"
	naverPreparePath = "/payment/naver/prepare"
)

// Preparer asks the backend to open a provider payment for a created order.
// It must be called once per order; a second call is not rejected here and
// its effect depends on the backend.
type Preparer interface {
	Prepare(ctx context.Context, session string, req IntentRequest) (Intent, error)
}

type backendAPI interface {
	Post(ctx context.Context, path string, query url.Values, session string, body, out any) error
}

type preparer struct {
	api backendAPI
}

// NewPreparer builds a Preparer over the backend prepare endpoints.
func NewPreparer(api backendAPI) (Preparer, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &preparer{api: api}, nil
}

var validate = validator.New()

type kakaoPrepareResponse struct {
	TID               string `json:"tid" validate:"required"`
	RedirectURLPC     string `json:"next_redirect_pc_url" validate:"required_without=RedirectURLMobile"`
	RedirectURLMobile string `json:"next_redirect_mobile_url"`
}

func (r *kakaoPrepareResponse) trim() {
	r.TID = strings.TrimSpace(r.TID)
	r.RedirectURLPC = strings.TrimSpace(r.RedirectURLPC)
	r.RedirectURLMobile = strings.TrimSpace(r.RedirectURLMobile)
}

// naverPrepareResponse holds the fields the storefront needs. Everything else
// in the body is handed to the SDK untouched.
type naverPrepareResponse struct {
	MerchantPayKey string `json:"merchantPayKey" validate:"required"`
	ReturnURL      string `json:"returnUrl" validate:"required"`
}

// prepareMessages maps a missing field to the shopper-facing failure.
var prepareMessages = map[string]string{
	"TID":            "kakao pay did not return a tid",
	"RedirectURLPC":  "kakao pay did not return a redirect url",
	"MerchantPayKey": "naver pay did not return a merchantPayKey",
	"ReturnURL":      "naver pay did not return a returnUrl",
}

func invalidPrepareResponse(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		if msg, ok := prepareMessages[fieldErrs[0].StructField()]; ok {
			return pkgerrors.New(pkgerrors.CodeIntentCreation, msg)
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "payment provider returned an incomplete response")
}

func (p *preparer) Prepare(ctx context.Context, session string, req IntentRequest) (Intent, error) {
	if strings.TrimSpace(session) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSessionMissing, "session required to prepare a payment")
	}

	switch r := req.(type) {
	case KakaoIntentRequest:
		return p.prepareKakao(ctx, session, r)
	case NaverIntentRequest:
		return p.prepareNaver(ctx, session, r)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unhandled intent request %T", req))
	}
}

func (p *preparer) prepareKakao(ctx context.Context, session string, req KakaoIntentRequest) (Intent, error) {
	var resp kakaoPrepareResponse
	if err := p.api.Post(ctx, kakaoPreparePath, nil, session, req, &resp); err != nil {
		return nil, intentFailed(err, req.OrderID)
	}
	resp.trim()
	if err := validate.Struct(resp); err != nil {
		return nil, invalidPrepareResponse(err)
	}
	return KakaoIntent{
		TID:               resp.TID,
		OrderID:           req.OrderID,
		RedirectURLPC:     resp.RedirectURLPC,
		RedirectURLMobile: resp.RedirectURLMobile,
	}, nil
}

func (p *preparer) prepareNaver(ctx context.Context, session string, req NaverIntentRequest) (Intent, error) {
	var raw json.RawMessage
	if err := p.api.Post(ctx, naverPreparePath, nil, session, req, &raw); err != nil {
		return nil, intentFailed(err, req.OrderID)
	}
	var resp naverPrepareResponse
	var params map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "naver pay returned an unreadable response")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "naver pay returned an unreadable response")
	}
	resp.MerchantPayKey = strings.TrimSpace(resp.MerchantPayKey)
	resp.ReturnURL = strings.TrimSpace(resp.ReturnURL)
	if err := validate.Struct(resp); err != nil {
		return nil, invalidPrepareResponse(err)
	}
	delete(params, "merchantPayKey")
	delete(params, "returnUrl")
	return NaverIntent{
		OrderID:        req.OrderID,
		MerchantPayKey: resp.MerchantPayKey,
		ReturnURL:      resp.ReturnURL,
		SDKOpenParams:  params,
	}, nil
}

func intentFailed(err error, orderID orders.OrderID) error {
	reason := backend.Reason(err)
	return pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, reason).
		WithDetails(map[string]any{"reason": reason, "order_id": orderID.String()})
}
