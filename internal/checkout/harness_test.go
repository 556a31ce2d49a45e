package checkout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/internal/handoff"
	"github.com/angelmondragon/cafe-storefront/internal/orders"
	"github.com/angelmondragon/cafe-storefront/internal/payments"
	"github.com/angelmondragon/cafe-storefront/internal/redirect"
	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/logger"
)

var testStorefront = config.StorefrontConfig{
	PublicURL:    "https://cafe.example",
	MenuPath:     "/menu",
	OrdersPath:   "/orders",
	CheckoutPath: "/checkout",
	SuccessPath:  "/payments/success",
	CallbackPath: "/payments/callback",
}

// fakeBackend plays the cafe backend: one cart of 8,500 won and order ids
// counting up from 1042.
type fakeBackend struct {
	mu          sync.Mutex
	calls       map[string]int
	queries     map[string]url.Values
	bodies      map[string]map[string]any
	nextOrderID int
	overrides   map[string]http.HandlerFunc
	cartJSON    string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		calls:       map[string]int{},
		queries:     map[string]url.Values{},
		bodies:      map[string]map[string]any{},
		nextOrderID: 1042,
		overrides:   map[string]http.HandlerFunc{},
		cartJSON: `{"items":[
			{"menu_id":1,"name":"아메리카노","quantity":2,"unit_price":3000},
			{"menu_id":2,"name":"스콘","quantity":1,"unit_price":2500}
		],"total_amount":8500}`,
	}
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	f.calls[key]++
	f.queries[key] = r.URL.Query()
	var body map[string]any
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.bodies[key] = body
	override := f.overrides[key]
	f.mu.Unlock()

	if override != nil {
		override(w, r)
		return
	}

	switch key {
	case "GET /cart":
		_, _ = w.Write([]byte(f.cartJSON))
	case "DELETE /cart":
		w.WriteHeader(http.StatusNoContent)
	case "POST /order":
		f.mu.Lock()
		id := f.nextOrderID
		f.nextOrderID++
		f.mu.Unlock()
		_, _ = fmt.Fprintf(w, `{"order_id":"%d","status":"created"}`, id)
	case "POST /payment/kakao/prepare":
		_, _ = w.Write([]byte(`{"tid":"T1","next_redirect_pc_url":"https://kakao/pay?ready=1","next_redirect_mobile_url":"https://kakao/m/pay"}`))
	case "POST /payment/kakao/complete":
		id := r.URL.Query().Get("order_id")
		_, _ = fmt.Fprintf(w, `{"order":{"order_id":"%s","total_amount":8500,"status":"paid","payment_method":"kakaopay"}}`, id)
	case "POST /payment/naver/prepare":
		_, _ = w.Write([]byte(`{"merchantPayKey":"M1","returnUrl":"https://cafe.example/payments/callback","productName":"아메리카노 외 1건"}`))
	case "POST /payment/naver/complete":
		id, _ := body["order_id"].(string)
		_, _ = fmt.Fprintf(w, `{"order":{"order_id":"%s","total_amount":8500,"status":"paid"}}`, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeBackend) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeBackend) override(key string, h http.HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overrides[key] = h
}

type harness struct {
	backend    *fakeBackend
	sub        *handoff.MemorySubstrate
	store      handoff.Store
	cart       cart.Reader
	confirmer  payments.Confirmer
	service    Service
	resolver   CallbackResolver
	reconciler CompletionReconciler
	logg       *logger.Logger
	logs       *bytes.Buffer
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	sdk       redirect.PaymentSdkClient
	substrate handoff.Substrate
	confirmer payments.Confirmer
}

func withSDK(sdk redirect.PaymentSdkClient) harnessOption {
	return func(c *harnessConfig) { c.sdk = sdk }
}

func withSubstrate(sub handoff.Substrate) harnessOption {
	return func(c *harnessConfig) { c.substrate = sub }
}

func withConfirmer(confirmer payments.Confirmer) harnessOption {
	return func(c *harnessConfig) { c.confirmer = confirmer }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	fb := newFakeBackend()
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	client, err := backend.New(config.BackendConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logg := logger.New(logger.Options{ServiceName: "test", Output: logs})

	sdk, err := redirect.NewNaverSDK(config.NaverPayConfig{ClientID: "cid", Mode: "development", PayType: "normal"})
	require.NoError(t, err)
	mem := handoff.NewMemorySubstrate()
	cfg := harnessConfig{sdk: sdk, substrate: mem}
	for _, opt := range opts {
		opt(&cfg)
	}

	store, err := handoff.NewSlotStore(cfg.substrate, 30*time.Minute, logg, nil)
	require.NoError(t, err)
	reader, err := cart.NewReader(client)
	require.NoError(t, err)
	initiator, err := orders.NewInitiator(client)
	require.NoError(t, err)
	preparer, err := payments.NewPreparer(client)
	require.NoError(t, err)
	confirmer := cfg.confirmer
	if confirmer == nil {
		confirmer, err = payments.NewConfirmer(client, time.Second, nil)
		require.NoError(t, err)
	}
	driver, err := redirect.NewDriver(cfg.sdk)
	require.NoError(t, err)

	svc, err := NewService(Deps{
		Cart:      reader,
		Orders:    initiator,
		Payments:  preparer,
		Handoff:   store,
		Redirects: driver,
		Logger:    logg,
	})
	require.NoError(t, err)
	resolver, err := NewCallbackResolver(CallbackDeps{
		Handoff:    store,
		Confirmer:  confirmer,
		Storefront: testStorefront,
		Logger:     logg,
	})
	require.NoError(t, err)
	reconciler, err := NewCompletionReconciler(CompletionDeps{
		Handoff:    store,
		Cart:       reader,
		Storefront: testStorefront,
		Logger:     logg,
	})
	require.NoError(t, err)

	return &harness{
		backend:    fb,
		sub:        mem,
		store:      store,
		cart:       reader,
		confirmer:  confirmer,
		service:    svc,
		resolver:   resolver,
		reconciler: reconciler,
		logg:       logg,
		logs:       logs,
	}
}

func (f *fakeBackend) query(key string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[key]
}

func (f *fakeBackend) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}
