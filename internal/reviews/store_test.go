package reviews

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumaruseru/owls/internal/backend"
	apperrors "github.com/kumaruseru/owls/pkg/errors"
	"github.com/kumaruseru/owls/pkg/httpclient"
	"github.com/kumaruseru/owls/pkg/pagination"
)

func setup(t *testing.T, handler http.Handler) (*Store, context.Context) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	api := backend.New(srv.URL, httpclient.New(cfg), logger)

	ctx := backend.WithTokenStore(context.Background(),
		backend.NewTokenStore(backend.TokenPair{Access: "acc", Refresh: "ref"}))

	return NewStore(api, logger), ctx
}

func TestForProduct_DecodesStatsAndReviews(t *testing.T) {
	store, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reviews/product/7/", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"statistics": map[string]any{
				"average_rating": 4.5,
				"total_reviews":  2,
				"rating_distribution": map[string]int{
					"1": 0, "2": 0, "3": 0, "4": 1, "5": 1,
				},
			},
			"reviews": []map[string]any{
				{"id": 1, "product": 7, "rating": 5, "comment": "Tuyệt vời!", "is_verified_purchase": true},
				{"id": 2, "product": 7, "rating": 4, "comment": "Ổn", "user_name": "Mai Anh"},
			},
		})
	}))

	out, err := store.ForProduct(ctx, 7)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, out.Statistics.AverageRating, 0.001)
	assert.Equal(t, 1, out.Statistics.RatingDistribution["5"])
	require.Len(t, out.Reviews, 2)
	assert.True(t, out.Reviews[0].IsVerifiedPurchase)
}

func TestList_ProductFilterForwarded(t *testing.T) {
	store, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reviews/", r.URL.Path)
		assert.Equal(t, "night-owl-mug", r.URL.Query().Get("product"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"count":   1,
			"results": []map[string]any{{"id": 1, "product": 7, "rating": 5, "comment": "Tuyệt vời!"}},
		})
	}))

	page, err := store.List(ctx, pagination.DefaultParams(), "night-owl-mug")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
}

func TestCreate_DuplicateReviewSurfacesFieldError(t *testing.T) {
	var calls int
	store, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reviews/", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		calls++

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, float64(7), body["product"])

		if calls == 1 {
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"message": "Đã thêm đánh giá!",
				"review":  map[string]any{"id": 9, "product": 7, "rating": 5, "comment": "Tuyệt vời!"},
			})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"product": []string{"Bạn đã đánh giá sản phẩm này rồi."},
		})
	}))

	input := CreateInput{Product: 7, Rating: 5, Comment: "Tuyệt vời!"}

	result, err := store.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Review.ID)

	_, err = store.Create(ctx, input)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.NotEmpty(t, appErr.Fields["product"])
}

func TestUpdate_PatchesOnlyProvidedFields(t *testing.T) {
	store, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reviews/9/", r.URL.Path)
		require.Equal(t, http.MethodPatch, r.Method)

		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, map[string]any{"rating": float64(3)}, body, "nil fields stay out of the PATCH body")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": "Cập nhật thành công!",
			"review":  map[string]any{"id": 9, "product": 7, "rating": 3},
		})
	}))

	rating := 3
	result, err := store.Update(ctx, 9, UpdateInput{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Review.Rating)
}

func TestDelete_ReturnsBackendMessage(t *testing.T) {
	store, ctx := setup(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/reviews/9/", r.URL.Path)
		require.Equal(t, http.MethodDelete, r.Method)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Đã xóa đánh giá."})
	}))

	result, err := store.Delete(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, "Đã xóa đánh giá.", result.Message)
}
