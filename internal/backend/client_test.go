package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(t *testing.T, h http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", zap.NewNop(), opts)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestClient_Endpoints(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		wantMethod string
		wantPath   string
		wantUser   string
		response   string
		call       func(t *testing.T, c *Client)
	}{
		{
			name: "items", wantMethod: http.MethodGet, wantPath: "/items/",
			response: `{"items":[{"id":1,"name":"Pod","price":12.5,"category":{"id":2,"name":"Жидкости"}}]}`,
			call: func(t *testing.T, c *Client) {
				items, err := c.Items(ctx)
				require.NoError(t, err)
				require.Len(t, items, 1)
				assert.True(t, items[0].Price.Equal(decimal.RequireFromString("12.5")))
				assert.True(t, items[0].InCategory("Жидкости"))
			},
		},
		{
			name: "categories", wantMethod: http.MethodGet, wantPath: "/categories/",
			response: `{"categories":[{"id":2,"name":"Жидкости"}]}`,
			call: func(t *testing.T, c *Client) {
				cats, err := c.Categories(ctx)
				require.NoError(t, err)
				assert.Equal(t, "Жидкости", cats[0].Name)
			},
		},
		{
			name: "basket", wantMethod: http.MethodPost, wantPath: "/basket/42", wantUser: "42",
			response: `{"user_id":42,"items":[{"id":1,"item_id":5,"name":"Pod","price":10,"quantity":2}],"total_price":20}`,
			call: func(t *testing.T, c *Client) {
				b, err := c.Basket(ctx, 42)
				require.NoError(t, err)
				assert.True(t, b.TotalPrice.Equal(decimal.NewFromInt(20)))
				assert.Equal(t, 2, b.Items[0].Quantity)
			},
		},
		{
			name: "add basket item", wantMethod: http.MethodPost, wantPath: "/basket/42/items", wantUser: "42",
			response: `{"items":[],"total_price":0}`,
			call: func(t *testing.T, c *Client) {
				_, err := c.AddBasketItem(ctx, 42, model.AddBasketItem{ItemID: 5, Quantity: 1})
				require.NoError(t, err)
			},
		},
		{
			name: "remove basket item", wantMethod: http.MethodDelete, wantPath: "/basket/42/items/5", wantUser: "42",
			response: `{"items":[],"total_price":0}`,
			call: func(t *testing.T, c *Client) {
				_, err := c.RemoveBasketItem(ctx, 42, 5)
				require.NoError(t, err)
			},
		},
		{
			name: "create order", wantMethod: http.MethodPost, wantPath: "/orders/from_basket/42", wantUser: "42",
			response: `{"id":9,"user_id":42,"delivery":"Курьером","delivery_cost":8,"total_price":58}`,
			call: func(t *testing.T, c *Client) {
				o, err := c.CreateOrderFromBasket(ctx, 42, model.OrderRequest{Delivery: "Курьером", Payment: "Наличные"})
				require.NoError(t, err)
				assert.Equal(t, int64(9), o.ID)
			},
		},
		{
			name: "user orders", wantMethod: http.MethodGet, wantPath: "/users/42/orders/", wantUser: "42",
			response: `[{"id":1,"status":"in_delivery"},{"id":2}]`,
			call: func(t *testing.T, c *Client) {
				orders, err := c.UserOrders(ctx, 42)
				require.NoError(t, err)
				require.Len(t, orders, 2)
				assert.Equal(t, model.StatusInDelivery, orders[0].Status)
			},
		},
		{
			name: "loyalty", wantMethod: http.MethodGet, wantPath: "/users/42/loyalty", wantUser: "42",
			response: `{"loyalty_level":"Platinum","stamps":3,"discount_percentage":30,"stamps_until_discount":2}`,
			call: func(t *testing.T, c *Client) {
				l, err := c.Loyalty(ctx, 42)
				require.NoError(t, err)
				assert.Equal(t, "Platinum", l.LoyaltyLevel)
				assert.Equal(t, 2, l.StampsUntilDiscount)
			},
		},
		{
			name: "register", wantMethod: http.MethodPost, wantPath: "/users/register", wantUser: "42",
			response: `{"status":"exists","message":"User already registered"}`,
			call: func(t *testing.T, c *Client) {
				r, err := c.RegisterUser(ctx, model.RegisterUser{TelegramID: 42, Username: "ivan"})
				require.NoError(t, err)
				assert.Equal(t, "exists", r.Status)
			},
		},
		{
			name: "update order status", wantMethod: http.MethodPatch, wantPath: "/orders/7/status",
			response: `{"message":"ok"}`,
			call: func(t *testing.T, c *Client) {
				require.NoError(t, c.UpdateOrderStatus(ctx, 7, model.StatusDelivered))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantMethod, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				assert.Equal(t, tt.wantUser, r.Header.Get("X-User-ID"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				writeJSON(w, http.StatusOK, tt.response)
			}, Options{})
			tt.call(t, c)
		})
	}
}

func TestClient_RequestBodies(t *testing.T) {
	var got map[string]any
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"id":1}`)
	}, Options{})

	_, err := c.CreateOrderFromBasket(context.Background(), 42, model.OrderRequest{
		Payment:      "Карта",
		Delivery:     "По метро",
		Address:      "Line A - Station 3 (Метро)",
		MetroLine:    "Line A",
		MetroStation: "Station 3",
		DeliveryCost: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "По метро", got["delivery"])
	assert.Equal(t, float64(0), got["delivery_cost"])
	assert.NotContains(t, got, "postal_index")

	_, err = c.RegisterUser(context.Background(), model.RegisterUser{TelegramID: 42})
	require.NoError(t, err)
	assert.Equal(t, float64(42), got["telegramId"])
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantDetail string
	}{
		{"not found", http.StatusNotFound, `{"detail":"Item not found"}`, model.ErrNotFound, "Item not found"},
		{"bad request", http.StatusBadRequest, `{"detail":"Корзина пуста"}`, model.ErrValidationRejected, "Корзина пуста"},
		{"unprocessable list", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, model.ErrValidationRejected, "field required"},
		{"server error", http.StatusInternalServerError, `oops`, model.ErrUnavailable, ""},
		{"bad gateway", http.StatusBadGateway, `{"message":"upstream"}`, model.ErrUnavailable, "upstream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			}, Options{})
			_, err := c.Basket(context.Background(), 1)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)

			var be *Error
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.status, be.Status)
			assert.Equal(t, tt.wantDetail, be.UserDetail())
		})
	}

	t.Run("transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()
		c := New(srv.URL, zap.NewNop(), Options{})
		_, err := c.Items(context.Background())
		assert.ErrorIs(t, err, model.ErrUnavailable)
	})

	t.Run("malformed response", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"items":`)
		}, Options{})
		_, err := c.Items(context.Background())
		assert.ErrorIs(t, err, model.ErrUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			writeJSON(w, http.StatusOK, `{}`)
		}, Options{Timeout: 20 * time.Millisecond})
		_, err := c.Loyalty(context.Background(), 1)
		assert.ErrorIs(t, err, model.ErrUnavailable)
	})

	t.Run("invalid status is rejected locally", func(t *testing.T) {
		var calls atomic.Int32
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
		}, Options{})
		err := c.UpdateOrderStatus(context.Background(), 1, "lost")
		assert.ErrorIs(t, err, model.ErrValidationRejected)
		assert.Zero(t, calls.Load())
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	var calls atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusServiceUnavailable)

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, int(status.Load()), `{}`)
	}, Options{BreakerFailures: 2, BreakerOpenFor: time.Hour})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.Items(ctx)
		require.ErrorIs(t, err, model.ErrUnavailable)
	}
	_, err := c.Items(ctx)
	require.ErrorIs(t, err, model.ErrUnavailable)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), calls.Load())

	t.Run("4xx does not trip breaker", func(t *testing.T) {
		calls.Store(0)
		status.Store(http.StatusBadRequest)
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, int(status.Load()), `{"detail":"bad"}`)
		}, Options{BreakerFailures: 2, BreakerOpenFor: time.Hour})
		for i := 0; i < 5; i++ {
			_, err := c.Items(ctx)
			require.ErrorIs(t, err, model.ErrValidationRejected)
		}
		assert.Equal(t, int32(5), calls.Load())
	})
}

func TestClient_CallerCancelDoesNotTripBreaker(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"categories":[]}`)
	}, Options{BreakerFailures: 2, BreakerOpenFor: time.Hour})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := c.Categories(canceled)
		require.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, model.ErrUnavailable)
	}

	_, err := c.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gobreaker.StateClosed, c.breaker.State())
}
