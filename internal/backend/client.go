// Package backend клиент удаленного REST бэкенда магазина.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxBody = 4 << 20

// Options настройки клиента. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	Timeout time.Duration
	// Transport базовый транспорт под otelhttp, nil значит http.DefaultTransport
	Transport http.RoundTripper
	// BreakerFailures подряд идущих отказов инфраструктуры до размыкания
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
	log     *zap.Logger
}

func New(baseURL string, log *zap.Logger, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerOpenFor <= 0 {
		opts.BreakerOpenFor = 30 * time.Second
	}
	failures := opts.BreakerFailures

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(opts.Transport),
		},
		log: log,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "backend",
		Timeout: opts.BreakerOpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// отказ клиента (4xx) и отмена вызывающим не говорят о здоровье бэкенда
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, model.ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", zap.String("name", name),
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

// do один вызов бэкенда без повторов. userID 0 значит без заголовка X-User-ID.
func (c *Client) do(ctx context.Context, method, path string, userID int64, in, out any) error {
	op := method + " " + path

	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = b
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, op, method, path, userID, payload)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &Error{Kind: model.ErrUnavailable, Op: op, Err: err}
		}
		return err
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: model.ErrUnavailable, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, userID int64, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// вызывающий ушел сам, бэкенд тут ни при чем и брейкер это не считает
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", op, ctxErr)
		}
		return nil, &Error{Kind: model.ErrUnavailable, Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &Error{Kind: model.ErrUnavailable, Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 400 {
		e := &Error{
			Kind:   kindForStatus(resp.StatusCode),
			Op:     op,
			Status: resp.StatusCode,
			Detail: parseDetail(body),
		}
		c.log.Debug("backend error", zap.String("op", op), zap.Int("status", e.Status), zap.String("detail", e.Detail))
		return nil, e
	}
	return body, nil
}

func (c *Client) Items(ctx context.Context) ([]model.Item, error) {
	var resp model.ItemsResponse
	if err := c.do(ctx, http.MethodGet, "/items/", 0, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var resp model.CategoriesResponse
	if err := c.do(ctx, http.MethodGet, "/categories/", 0, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// Basket текущая корзина. Бэкенд отдает ее на POST.
func (c *Client) Basket(ctx context.Context, userID int64) (*model.Basket, error) {
	var b model.Basket
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/basket/%d", userID), userID, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) AddBasketItem(ctx context.Context, userID int64, item model.AddBasketItem) (*model.Basket, error) {
	var b model.Basket
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/basket/%d/items", userID), userID, item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) RemoveBasketItem(ctx context.Context, userID, itemID int64) (*model.Basket, error) {
	var b model.Basket
	path := fmt.Sprintf("/basket/%d/items/%d", userID, itemID)
	if err := c.do(ctx, http.MethodDelete, path, userID, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateOrderFromBasket создает заказ из корзины. Корзину бэкенд очищает сам.
func (c *Client) CreateOrderFromBasket(ctx context.Context, userID int64, req model.OrderRequest) (*model.Order, error) {
	var o model.Order
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/orders/from_basket/%d", userID), userID, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) UserOrders(ctx context.Context, userID int64) ([]model.Order, error) {
	var orders []model.Order
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/orders/", userID), userID, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Loyalty(ctx context.Context, userID int64) (*model.Loyalty, error) {
	var l model.Loyalty
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/loyalty", userID), userID, nil, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// RegisterUser идемпотентная регистрация пользователя.
func (c *Client) RegisterUser(ctx context.Context, u model.RegisterUser) (*model.RegisterResult, error) {
	var r model.RegisterResult
	if err := c.do(ctx, http.MethodPost, "/users/register", u.TelegramID, u, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	if !status.Valid() {
		return &Error{Kind: model.ErrValidationRejected, Op: "update order status", Detail: "unknown status " + string(status)}
	}
	body := map[string]string{"status": string(status)}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%d/status", orderID), 0, body, nil)
}
