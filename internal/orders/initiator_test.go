package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/cafe-storefront/internal/cart"
	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	"github.com/angelmondragon/cafe-storefront/pkg/config"
	"github.com/angelmondragon/cafe-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

func sampleDraft() Draft {
	return DraftFromSnapshot(cart.Snapshot{
		Items: []cart.Item{
			{MenuID: 1, Name: "Americano", Quantity: 2, UnitPrice: 3000},
			{MenuID: 2, Name: "Scone", Quantity: 1, UnitPrice: 2500},
		},
		TotalAmount: 8500,
	}, enums.PaymentMethodKakaoPay)
}

func newBackend(t *testing.T, handler http.HandlerFunc) *backend.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := backend.New(config.BackendConfig{
		BaseURL:      srv.URL,
		Timeout:      time.Second,
		ReadRetries:  3,
		RetryBackoff: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestSubmitSendsOrderContract(t *testing.T) {
	var captured map[string]any
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/order", r.URL.Path)
		assert.Equal(t, "Bearer sess-1", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_, _ = w.Write([]byte(`{"order_id": 1042, "status": "created"}`))
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	order, err := initiator.Submit(context.Background(), "sess-1", sampleDraft())
	require.NoError(t, err)

	assert.Equal(t, OrderID("1042"), order.ID)
	assert.Equal(t, int64(8500), order.TotalAmount)
	assert.Equal(t, enums.OrderStatusCreated, order.Status)
	assert.Equal(t, enums.PaymentMethodKakaoPay, order.PaymentMethod)
	require.Len(t, order.Items, 2)
	assert.Equal(t, int64(6000), order.Items[0].TotalPrice)

	assert.Equal(t, "kakaopay", captured["payment_method"])
	assert.EqualValues(t, 8500, captured["total_amount"])
	items, ok := captured["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.EqualValues(t, 1, first["menu_id"])
	assert.EqualValues(t, 2, first["quantity"])
	assert.EqualValues(t, 3000, first["unit_price"])
	assert.EqualValues(t, 6000, first["total_price"])
}

// The backend does not deduplicate orders, and neither does the initiator.
// Preventing double submission is the caller's job.
func TestSubmitTwiceCreatesTwoOrders(t *testing.T) {
	var seq int64 = 1041
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		id := atomic.AddInt64(&seq, 1)
		_, _ = w.Write([]byte(`{"order_id":"` + strconv.FormatInt(id, 10) + `"}`))
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	draft := sampleDraft()
	first, err := initiator.Submit(context.Background(), "sess", draft)
	require.NoError(t, err)
	second, err := initiator.Submit(context.Background(), "sess", draft)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
}

func TestSubmitIsNeverRetried(t *testing.T) {
	var calls int32
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	_, err = initiator.Submit(context.Background(), "sess", sampleDraft())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNetwork))
	assert.True(t, pkgerrors.MetadataFor(pkgerrors.CodeNetwork).Retryable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSubmitSurfacesBackendReasonOnValidationFailure(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"menu 2 is sold out"}`))
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	_, err = initiator.Submit(context.Background(), "sess", sampleDraft())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "menu 2 is sold out", typed.Message())
}

func TestSubmitGuards(t *testing.T) {
	calls := 0
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"order_id":"1"}`))
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	_, err = initiator.Submit(context.Background(), "", sampleDraft())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeSessionMissing))

	empty := sampleDraft()
	empty.Items = nil
	_, err = initiator.Submit(context.Background(), "sess", empty)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	zero := sampleDraft()
	zero.TotalAmount = 0
	_, err = initiator.Submit(context.Background(), "sess", zero)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	skewed := sampleDraft()
	skewed.TotalAmount = 9000
	_, err = initiator.Submit(context.Background(), "sess", skewed)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	badQty := sampleDraft()
	badQty.Items[0].Quantity = 0
	badQty.TotalAmount = 2500
	_, err = initiator.Submit(context.Background(), "sess", badQty)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, 0, calls, "invalid drafts must not reach the backend")
}

func TestSubmitRejectsMissingOrderID(t *testing.T) {
	client := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	initiator, err := NewInitiator(client)
	require.NoError(t, err)

	_, err = initiator.Submit(context.Background(), "sess", sampleDraft())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
}

func TestOrderIDDecoding(t *testing.T) {
	var order Order
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1042, "status": "paid", "total_amount": 8500}`), &order))
	assert.Equal(t, OrderID("1042"), order.ID)
	assert.Equal(t, enums.OrderStatusPaid, order.Status)

	require.NoError(t, json.Unmarshal([]byte(`{"order_id": " A-7 ", "id": "ignored"}`), &order))
	assert.Equal(t, OrderID("A-7"), order.ID)

	var id OrderID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
	require.NoError(t, json.Unmarshal([]byte(`null`), &id))
	assert.True(t, id.IsZero())

	encoded, err := json.Marshal(Order{ID: "1042"})
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"order_id":"1042"`)
}

func TestNewInitiatorRequiresClient(t *testing.T) {
	_, err := NewInitiator(nil)
	assert.Error(t, err)
}
