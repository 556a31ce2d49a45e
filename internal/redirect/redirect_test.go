package redirect

import (
	"fmt"
	"testing"

	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

func TestAppendOrderID(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no query", "https://pay.example/ready", "https://pay.example/ready?order_id=1042"},
		{"existing query", "https://pay.example/ready?tid=T1", "https://pay.example/ready?tid=T1&order_id=1042"},
		{"trailing question mark", "https://pay.example/ready?", "https://pay.example/ready?order_id=1042"},
		{"trailing ampersand", "https://pay.example/ready?a=1&", "https://pay.example/ready?a=1&order_id=1042"},
		{"fragment kept last", "https://pay.example/ready?a=1#top", "https://pay.example/ready?a=1&order_id=1042#top"},
		{"already present", "https://pay.example/ready?order_id=9", "https://pay.example/ready?order_id=9"},
		{"blank value filled", "https://pay.example/ready?order_id=&tid=T1#top", "https://pay.example/ready?order_id=1042&tid=T1#top"},
		{"relative", "/payments/callback", "/payments/callback?order_id=1042"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AppendOrderID(tc.in, "1042")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s want %s", got, tc.want)
			}
			again, _ := AppendOrderID(got, "1042")
			if again != got {
				t.Fatalf("append should be idempotent: %s", again)
			}
		})
	}
}

func TestAppendOrderIDRejects(t *testing.T) {
	if _, err := AppendOrderID("https://pay.example", ""); err == nil {
		t.Fatal("expected error for empty order id")
	}
	if _, err := AppendOrderID("http://[::1", "1"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAppendOrderIDEscapes(t *testing.T) {
	got, err := AppendOrderID("https://pay.example/x", "a b&c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if OrderIDFromURL(got) != "a b&c" {
		t.Fatalf("order id did not survive escaping: %s", got)
	}
}

func TestDetectDevice(t *testing.T) {
	cases := map[string]enums.Device{
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148":  enums.DeviceMobile,
		"Mozilla/5.0 (Linux; Android 14; SM-S918N) Chrome/120.0 Mobile Safari":  enums.DeviceMobile,
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) AppleWebKit/605.1.15":     enums.DevicePC,
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0.0.0 Safari/537": enums.DevicePC,
		"": enums.DevicePC,
	}
	for ua, want := range cases {
		if got := DetectDevice(ua); got != want {
			t.Errorf("DetectDevice(%q) = %s, want %s", ua, got, want)
		}
	}
	if got := ResolveDevice(enums.DevicePC, "iPhone"); got != enums.DevicePC {
		t.Fatalf("explicit device should win, got %s", got)
	}
	if got := ResolveDevice("", "iPhone"); got != enums.DeviceMobile {
		t.Fatalf("expected user agent fallback, got %s", got)
	}
}

func newTestDriver(t *testing.T) Driver {
	t.Helper()
	sdk, err := NewNaverSDK(config.NaverPayConfig{ClientID: "cid", ChainID: "chain", Mode: "development", PayType: "normal"})
	if err != nil {
		t.Fatalf("new sdk: %v", err)
	}
	d, err := NewDriver(sdk)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	return d
}

func TestDriveKakaoPicksURLByDevice(t *testing.T) {
	d := newTestDriver(t)
	intent := payments.KakaoIntent{
		TID:               "T1",
		OrderID:           "1042",
		RedirectURLPC:     "https://kakao.example/pc?tid=T1",
		RedirectURLMobile: "https://kakao.example/mobile",
	}

	pc, err := d.Drive(intent, enums.DevicePC)
	if err != nil {
		t.Fatalf("drive pc: %v", err)
	}
	if pc.Kind != KindNavigate || pc.URL != "https://kakao.example/pc?tid=T1&order_id=1042" {
		t.Fatalf("unexpected pc instruction %+v", pc)
	}

	mobile, err := d.Drive(intent, enums.DeviceMobile)
	if err != nil {
		t.Fatalf("drive mobile: %v", err)
	}
	if mobile.URL != "https://kakao.example/mobile?order_id=1042" {
		t.Fatalf("unexpected mobile instruction %+v", mobile)
	}
}

func TestDriveKakaoMissingURL(t *testing.T) {
	d := newTestDriver(t)
	_, err := d.Drive(payments.KakaoIntent{TID: "T1", OrderID: "1", RedirectURLPC: "https://kakao.example/pc"}, enums.DeviceMobile)
	if !pkgerrors.HasCode(err, pkgerrors.CodeIntentCreation) {
		t.Fatalf("expected intent creation error, got %v", err)
	}
}

func TestDriveNaverOpensSDK(t *testing.T) {
	d := newTestDriver(t)
	intent := payments.NaverIntent{
		OrderID:        "77",
		MerchantPayKey: "M1",
		ReturnURL:      "https://cafe.example/payments/callback",
		SDKOpenParams:  map[string]any{"productName": "아메리카노"},
	}

	ins, err := d.Drive(intent, enums.DevicePC)
	if err != nil {
		t.Fatalf("drive naver: %v", err)
	}
	if ins.Kind != KindSDKOpen || ins.SDK == nil {
		t.Fatalf("expected sdk instruction, got %+v", ins)
	}
	if ins.SDK.ReturnURL != "https://cafe.example/payments/callback?order_id=77" {
		t.Fatalf("unexpected return url %s", ins.SDK.ReturnURL)
	}
	if ins.SDK.ClientID != "cid" || ins.SDK.MerchantPayKey != "M1" || ins.SDK.Params["productName"] != "아메리카노" {
		t.Fatalf("unexpected sdk params %+v", ins.SDK)
	}
}

func TestNaverWithoutConfigIsUnavailable(t *testing.T) {
	_, err := NewNaverSDK(config.NaverPayConfig{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeSDKUnavailable) {
		t.Fatalf("expected sdk unavailable, got %v", err)
	}

	d, _ := NewDriver(UnavailableSDK{Err: err})
	_, err = d.Drive(payments.NaverIntent{OrderID: "1", MerchantPayKey: "M", ReturnURL: "https://x"}, enums.DevicePC)
	if !pkgerrors.HasCode(err, pkgerrors.CodeSDKUnavailable) {
		t.Fatalf("expected sdk unavailable on the naver path, got %v", err)
	}

	ins, err := d.Drive(payments.KakaoIntent{TID: "T", OrderID: "1", RedirectURLPC: "https://k"}, enums.DevicePC)
	if err != nil || ins.Kind != KindNavigate {
		t.Fatalf("kakao must keep working without the naver sdk: %+v %v", ins, err)
	}
}

// The order_id the provider returns through must equal the order the intent
// was prepared for, for every intent shape.
func TestReturnOrderIDMatchesIntent(t *testing.T) {
	d := newTestDriver(t)
	for i := 1; i <= 50; i++ {
		id := orders.OrderID(fmt.Sprintf("%d", i*37))
		intents := []payments.Intent{
			payments.KakaoIntent{TID: "T", OrderID: id, RedirectURLPC: "https://k.example/pc?x=1", RedirectURLMobile: "https://k.example/m"},
			payments.NaverIntent{OrderID: id, MerchantPayKey: "M", ReturnURL: "https://cafe.example/cb"},
		}
		for _, intent := range intents {
			for _, device := range []enums.Device{enums.DevicePC, enums.DeviceMobile} {
				ins, err := d.Drive(intent, device)
				if err != nil {
					t.Fatalf("drive %T: %v", intent, err)
				}
				if ins.ReturnOrderID() != intent.ForOrder().String() {
					t.Fatalf("%T on %s: url carries %q, intent is for %q", intent, device, ins.ReturnOrderID(), intent.ForOrder())
				}
			}
		}
	}
}
