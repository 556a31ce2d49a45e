package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/cafe-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
	"github.com/angelmondragon/cafe-storefront/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "menu 7 is sold out").
		WithDetails(map[string]string{"menu_id": "7"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "menu 7 is sold out" {
		t.Fatalf("backend reason should be shown verbatim, got %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
	if body.Error.Action == nil || body.Error.Action.Kind != string(pkgerrors.ActionRetryCheckout) || body.Error.Action.Href != "/checkout" {
		t.Fatalf("unexpected action %+v", body.Error.Action)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
	if body.Error.Message == "boom" {
		t.Fatalf("internal error text must not leak")
	}
	if body.Error.Action == nil {
		t.Fatalf("every error needs a forward action")
	}
}

func TestEveryCodeOffersOneAction(t *testing.T) {
	ctx := WithLinks(context.Background(), LinksFromConfig(config.StorefrontConfig{
		PublicURL:    "https://cafe.example/",
		MenuPath:     "/menu",
		OrdersPath:   "/orders",
		CheckoutPath: "/checkout",
		LoginPath:    "/login",
	}))
	codes := []pkgerrors.Code{
		pkgerrors.CodeValidation, pkgerrors.CodeSessionMissing, pkgerrors.CodeNetwork,
		pkgerrors.CodeIntentCreation, pkgerrors.CodeSDKUnavailable, pkgerrors.CodePaymentConfirmation,
		pkgerrors.CodeInvalidAccess, pkgerrors.CodeOrderMismatch, pkgerrors.CodeNotFound,
		pkgerrors.CodeStateConflict, pkgerrors.CodeInternal, pkgerrors.CodeDependency,
	}
	for _, code := range codes {
		action := ActionFor(ctx, code)
		if action == nil || action.Href == "" || action.Label == "" {
			t.Errorf("%s has no usable action: %+v", code, action)
		}
	}
	if got := ActionFor(ctx, pkgerrors.CodeOrderMismatch).Href; got != "https://cafe.example/orders" {
		t.Fatalf("unexpected view orders href %s", got)
	}
}

func TestNetworkFailureIsMarkedRetryable(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.New(pkgerrors.CodeNetwork, "dial tcp: refused"))

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Error.Retryable || w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected retryable 503, got %d %+v", w.Code, body.Error)
	}
}
