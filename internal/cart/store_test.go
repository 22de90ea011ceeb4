package cart

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumaruseru/owls/internal/backend"
	"github.com/kumaruseru/owls/internal/domain"
	"github.com/kumaruseru/owls/internal/event"
	"github.com/kumaruseru/owls/internal/state"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
	"github.com/kumaruseru/owls/pkg/httpclient"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type fixture struct {
	store     *Store
	snapshots *state.Store
	redis     *miniredis.Miniredis
	ctx       context.Context
}

func setup(t *testing.T, handler http.Handler) *fixture {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	snapshots := state.New(client, time.Hour, time.Hour)

	logger := newTestLogger()
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	api := backend.New(srv.URL, httpclient.New(cfg), logger)

	ctx := backend.WithTokenStore(context.Background(),
		backend.NewTokenStore(backend.TokenPair{Access: "acc", Refresh: "ref"}))

	return &fixture{
		store:     NewStore(api, snapshots, event.NewProducer(nil, logger), logger),
		snapshots: snapshots,
		redis:     mr,
		ctx:       ctx,
	}
}

func serverCart(productID int64, qty int) *domain.Cart {
	return &domain.Cart{
		ID: 3,
		Items: []domain.CartItem{
			{
				ID:        1,
				Product:   domain.ProductSummary{ID: productID, Name: "Night Owl Mug"},
				Quantity:  qty,
				UnitPrice: 99000,
				Subtotal:  domain.Amount(int64(qty) * 99000),
			},
		},
		TotalItems: qty,
		Subtotal:   domain.Amount(int64(qty) * 99000),
		Total:      domain.Amount(int64(qty) * 99000),
	}
}

func mutationBody(message string, cart *domain.Cart) map[string]any {
	return map[string]any{"success": true, "message": message, "cart": cart}
}

func TestAdd_SendsDeltaAndAdoptsServerCart(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/add/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, int64(7), body["product_id"], "only the delta travels")
		assert.Equal(t, int64(2), body["quantity"])

		// Server already held 1 of this product; it owns the arithmetic.
		_ = json.NewEncoder(w).Encode(mutationBody("Đã cập nhật giỏ hàng!", serverCart(7, 3)))
	}))

	result, err := f.store.Add(f.ctx, "sid-1", AddInput{ProductID: 7, Quantity: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Cart.Quantity(7), "server-computed quantity adopted, not locally added")
	assert.Equal(t, "Đã cập nhật giỏ hàng!", result.Message)

	snap, err := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Quantity(7))
	assert.Equal(t, domain.Amount(297000), snap.Total)
}

func TestAdd_FailureLeavesLastKnownGoodSnapshot(t *testing.T) {
	var calls int
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			_ = json.NewEncoder(w).Encode(mutationBody("Đã thêm vào giỏ hàng!", serverCart(7, 2)))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"quantity": []string{"Chỉ còn 2 sản phẩm trong kho."},
		})
	}))

	_, err := f.store.Add(f.ctx, "sid-1", AddInput{ProductID: 7, Quantity: 2})
	require.NoError(t, err)

	_, err = f.store.Add(f.ctx, "sid-1", AddInput{ProductID: 7, Quantity: 50})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Fields["quantity"])

	snap, serr := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, serr)
	assert.Equal(t, 2, snap.Quantity(7), "failed mutation must not touch the snapshot")
}

func TestClear_IsIdempotent(t *testing.T) {
	empty := &domain.Cart{ID: 3, Items: []domain.CartItem{}}
	var calls int
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/clear/", r.URL.Path)
		calls++
		msg := "Đã xóa 2 sản phẩm khỏi giỏ hàng!"
		if calls > 1 {
			msg = "Giỏ hàng đã trống"
		}
		_ = json.NewEncoder(w).Encode(mutationBody(msg, empty))
	}))

	first, err := f.store.Clear(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, first.Cart.IsEmpty())

	second, err := f.store.Clear(f.ctx, "sid-1")
	require.NoError(t, err, "clearing an empty cart succeeds")
	assert.True(t, second.Cart.IsEmpty())

	snap, err := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, snap.IsEmpty())
}

func TestMutation_ReplacesSnapshotInsteadOfMerging(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		// Each response is a complete cart holding only the product from
		// this request, as if the other line had been removed server-side.
		_ = json.NewEncoder(w).Encode(mutationBody("ok", serverCart(body["product_id"], int(body["quantity"]))))
	}))

	_, err := f.store.Add(f.ctx, "sid-1", AddInput{ProductID: 7, Quantity: 2})
	require.NoError(t, err)

	_, err = f.store.Add(f.ctx, "sid-1", AddInput{ProductID: 9, Quantity: 1})
	require.NoError(t, err)

	snap, err := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Quantity(7), "earlier line must not be merged back in")
	assert.Equal(t, 1, snap.Quantity(9))
}

func TestConcurrentMutations_LastResponseWins(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(mutationBody("ok", serverCart(body["product_id"], int(body["quantity"]))))
	}))

	var wg sync.WaitGroup
	for _, pid := range []int64{7, 9} {
		wg.Add(1)
		go func(pid int64) {
			defer wg.Done()
			_, err := f.store.Add(f.ctx, "sid-1", AddInput{ProductID: pid, Quantity: 1})
			assert.NoError(t, err)
		}(pid)
	}
	wg.Wait()

	snap, err := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, err)

	// The snapshot is exactly one server response, never a merge of both.
	onlySeven := snap.Quantity(7) == 1 && snap.Quantity(9) == 0
	onlyNine := snap.Quantity(9) == 1 && snap.Quantity(7) == 0
	assert.True(t, onlySeven || onlyNine,
		"snapshot must equal a single complete server response, got %+v", snap.Items)
}

func TestFetch_StoresSnapshotAndSurfacesWarnings(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          3,
			"items":       serverCart(7, 1).Items,
			"total_items": 1,
			"subtotal":    "99000",
			"total":       "99000",
			"warnings": []map[string]any{
				{"product_id": 9, "message": "Night Owl Poster đã hết hàng"},
			},
		})
	}))

	result, err := f.store.Fetch(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Cart.Quantity(7))
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, int64(9), result.Warnings[0].ProductID)

	snap, err := f.snapshots.Cart(f.ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(99000), snap.Total)
}

func TestRemove_SendsProductID(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cart/remove/", r.URL.Path)
		var body map[string]int64
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, int64(7), body["product_id"])
		_ = json.NewEncoder(w).Encode(mutationBody(`Đã xóa "Night Owl Mug" khỏi giỏ hàng!`, &domain.Cart{ID: 3}))
	}))

	result, err := f.store.Remove(f.ctx, "sid-1", 7)
	require.NoError(t, err)
	assert.True(t, result.Cart.IsEmpty())
}

func TestSnapshot_MissingReturnsEmptyCart(t *testing.T) {
	f := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("snapshot reads must not hit the backend")
	}))

	cart, err := f.store.Snapshot(f.ctx, "sid-unknown")
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
}
