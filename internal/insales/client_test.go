package insales

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const ordersJSON = `[
  {
    "id": 501,
    "number": 1001,
    "client": {"full_name": " Ivan Petrov "},
    "created_at": "2025-06-22T23:31:27.000+03:00",
    "total_price": "1500.50",
    "custom_status": {"permalink": "novyy", "title": "Новый"},
    "source": "Сайт",
    "order_lines": [
      {"product_id": 7, "title": "Film A", "quantity": 3, "sku": "FA"},
      {"product_id": 8, "title": "Glue", "quantity": -1, "sku": null}
    ]
  },
  {"id": 502, "number": "A-2", "created_at": "2025-06-23T10:00:00Z", "total_price": 99, "custom_status": null, "order_lines": []}
]`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:        srv.URL + "/admin/",
		APIKey:         "key",
		APIPassword:    "pwd",
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		Retries:        3,
		RetryPause:     time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestFetchRecentOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/orders.json", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("per_page"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "pwd", pass)
		_, _ = w.Write([]byte(ordersJSON))
	})

	orders, err := c.FetchRecentOrders(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, orders, 2)

	snap := orders[0].Snapshot()
	assert.Equal(t, int64(501), snap.ID)
	assert.Equal(t, "1001", snap.Number)
	assert.Equal(t, "Ivan Petrov", snap.Customer)
	assert.Equal(t, "novyy", snap.Status)
	assert.Equal(t, "Сайт", snap.Source)
	assert.Nil(t, snap.Ignored)
	assert.Equal(t, time.Date(2025, 6, 22, 20, 31, 27, 0, time.UTC), snap.CreatedAt)
	assert.Equal(t, "1500.5", snap.TotalPrice.String())
	require.Len(t, snap.Lines, 2)
	assert.Equal(t, "Film A", snap.Lines[0].Title)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, "FA", snap.Lines[0].SKU)
	assert.Equal(t, 0, snap.Lines[1].Quantity)

	second := orders[1].Snapshot()
	assert.Equal(t, "A-2", second.Number)
	assert.Empty(t, second.Status)
	assert.Empty(t, second.Customer)
	assert.Equal(t, "99", second.TotalPrice.String())
}

func TestFetchRecentOrdersRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(ordersJSON))
	})

	orders, err := c.FetchRecentOrders(context.Background(), 50)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRecentOrdersGivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	})

	_, err := c.FetchRecentOrders(context.Background(), 50)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRecentOrdersDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := c.FetchRecentOrders(context.Background(), 50)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUpstreamUnavailable))
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRecentOrdersRetriesTimeouts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:        srv.URL,
		ConnectTimeout: 100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		Retries:        3,
		RetryPause:     time.Millisecond,
	}, zaptest.NewLogger(t))

	orders, err := c.FetchRecentOrders(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestFetchOrderByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/orders/109704738.json":
			_, _ = w.Write([]byte(`{"id": 109704738, "number": 5, "order_lines": [{"title": "Film A", "quantity": 2, "sku": "FA"}]}`))
		case "/admin/orders/7.json":
			_, _ = w.Write([]byte(`{"order": {"id": 7, "number": "7"}}`))
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	ready, err := c.FetchOrderByID(ctx, 109704738)
	require.NoError(t, err)
	require.NotNil(t, ready)
	require.Len(t, ready.Lines(), 1)
	assert.Equal(t, "FA", ready.Lines()[0].SKU)

	wrapped, err := c.FetchOrderByID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, wrapped)
	assert.Equal(t, int64(7), wrapped.ID)

	missing, err := c.FetchOrderByID(ctx, 8)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUnconfiguredClient(t *testing.T) {
	c := NewClient(Config{}, zaptest.NewLogger(t))
	assert.False(t, c.Configured())
	_, err := c.FetchRecentOrders(context.Background(), 1)
	require.ErrorIs(t, err, ErrUpstreamUnavailable)
}
