package cart

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/angelmondragon/cafe-storefront/pkg/backend"
	pkgerrors "github.com/angelmondragon/cafe-storefront/pkg/errors"
)

const cartPath = "/cart"

// Reader reads and clears the shopper's cart. The cart itself is owned by the
// backend; the saga only snapshots it at "pay" and empties it on completion.
type Reader interface {
	Snapshot(ctx context.Context, session string) (Snapshot, error)
	Clear(ctx context.Context, session string) error
}

type backendAPI interface {
	Get(ctx context.Context, path, session string, out any) error
	Delete(ctx context.Context, path, session string) error
}

type reader struct {
	api backendAPI
}

// NewReader builds a Reader over the backend cart endpoints.
func NewReader(api backendAPI) (Reader, error) {
	if api == nil {
		return nil, fmt.Errorf("backend client required")
	}
	return &reader{api: api}, nil
}

func (r *reader) Snapshot(ctx context.Context, session string) (Snapshot, error) {
	if strings.TrimSpace(session) == "" {
		return Snapshot{}, pkgerrors.New(pkgerrors.CodeSessionMissing, "session required to read cart")
	}
	var snap Snapshot
	if err := r.api.Get(ctx, cartPath, session, &snap); err != nil {
		return Snapshot{}, classify(err, "read cart")
	}
	if snap.TotalAmount == 0 {
		snap.TotalAmount = snap.ComputedTotal()
	}
	return snap, nil
}

func (r *reader) Clear(ctx context.Context, session string) error {
	if strings.TrimSpace(session) == "" {
		return pkgerrors.New(pkgerrors.CodeSessionMissing, "session required to clear cart")
	}
	if err := r.api.Delete(ctx, cartPath, session); err != nil {
		return classify(err, "clear cart")
	}
	return nil
}

func classify(err error, step string) error {
	switch status := backend.Status(err); {
	case status == http.StatusUnauthorized:
		return pkgerrors.Wrap(pkgerrors.CodeSessionMissing, err, step)
	case status >= 400 && status < 500:
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, backend.Reason(err))
	default:
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, step)
	}
}
