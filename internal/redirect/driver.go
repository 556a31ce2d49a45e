package redirect

import (
	"fmt"

	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

type InstructionKind string

const (
	KindNavigate InstructionKind = "navigate"
	KindSDKOpen  InstructionKind = "sdk_open"
)

// Instruction tells the browser how to leave for the provider: a top-level
// navigation to URL, or an SDK open call.
type Instruction struct {
	Kind InstructionKind `json:"kind"`
	URL  string          `json:"url,omitempty"`
	SDK  *SDKOpen        `json:"sdk,omitempty"`
}

// ReturnOrderID is the order_id the provider will hand back to the callback.
func (i Instruction) ReturnOrderID() string {
	if i.SDK != nil {
		return OrderIDFromURL(i.SDK.ReturnURL).String()
	}
	return OrderIDFromURL(i.URL).String()
}

// Driver turns a prepared intent into the browser's exit instruction. Every
// instruction carries order_id on the URL the provider returns through.
type Driver interface {
	Drive(intent payments.Intent, device enums.Device) (Instruction, error)
}

type driver struct {
	sdk PaymentSdkClient
}

func NewDriver(sdk PaymentSdkClient) (Driver, error) {
	if sdk == nil {
		return nil, fmt.Errorf("payment sdk client required")
	}
	return &driver{sdk: sdk}, nil
}

func (d *driver) Drive(intent payments.Intent, device enums.Device) (Instruction, error) {
	switch in := intent.(type) {
	case payments.KakaoIntent:
		return d.driveKakao(in, device)
	case payments.NaverIntent:
		return d.driveNaver(in)
	default:
		return Instruction{}, pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unhandled intent %T", intent))
	}
}

func (d *driver) driveKakao(in payments.KakaoIntent, device enums.Device) (Instruction, error) {
	target := in.RedirectURLPC
	if device == enums.DeviceMobile {
		target = in.RedirectURLMobile
	}
	if target == "" {
		return Instruction{}, pkgerrors.New(pkgerrors.CodeIntentCreation, fmt.Sprintf("kakao intent has no %s redirect url", device)).
			WithDetails(map[string]any{"order_id": in.OrderID.String()})
	}
	withOrder, err := AppendOrderID(target, in.OrderID)
	if err != nil {
		return Instruction{}, pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "kakao redirect url is invalid")
	}
	return Instruction{Kind: KindNavigate, URL: withOrder}, nil
}

func (d *driver) driveNaver(in payments.NaverIntent) (Instruction, error) {
	if in.ReturnURL == "" {
		return Instruction{}, pkgerrors.New(pkgerrors.CodeIntentCreation, "naver intent has no returnUrl").
			WithDetails(map[string]any{"order_id": in.OrderID.String()})
	}
	returnURL, err := AppendOrderID(in.ReturnURL, in.OrderID)
	if err != nil {
		return Instruction{}, pkgerrors.Wrap(pkgerrors.CodeIntentCreation, err, "naver return url is invalid")
	}
	open, err := d.sdk.Open(in, returnURL)
	if err != nil {
		return Instruction{}, err
	}
	return Instruction{Kind: KindSDKOpen, SDK: &open}, nil
}
