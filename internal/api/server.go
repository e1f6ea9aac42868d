// Package api http-сервер BFF: каталог, корзина, оформление, заказы и лояльность.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/model"
	"github.com/gogazub/miniapp-checkout/internal/money"
	svc "github.com/gogazub/miniapp-checkout/internal/service"
)

// Backend вызовы бэкенда, которые сервер проксирует как есть.
type Backend interface {
	Basket(ctx context.Context, userID int64) (*model.Basket, error)
	AddBasketItem(ctx context.Context, userID int64, item model.AddBasketItem) (*model.Basket, error)
	RemoveBasketItem(ctx context.Context, userID, itemID int64) (*model.Basket, error)
	UserOrders(ctx context.Context, userID int64) ([]model.Order, error)
	Loyalty(ctx context.Context, userID int64) (*model.Loyalty, error)
	RegisterUser(ctx context.Context, u model.RegisterUser) (*model.RegisterResult, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
}

type Catalog interface {
	Categories(ctx context.Context) ([]model.Category, error)
	Items(ctx context.Context, category string) ([]model.Item, error)
	Item(ctx context.Context, id int64) (*model.Item, error)
	Invalidate(ctx context.Context) error
}

type Checkout interface {
	Engine() *checkout.Engine
	Open(ctx context.Context, userID int64) (*checkout.Session, error)
	Submit(ctx context.Context, sess *checkout.Session) (*model.Order, error)
}

type Sessions interface {
	Put(ctx context.Context, sess *checkout.Session) error
	Get(ctx context.Context, userID int64) (*checkout.Session, error)
	Delete(ctx context.Context, userID int64) error
	Release(ctx context.Context, sess *checkout.Session) error
}

// Deps зависимости сервера. Journal может быть nil, тогда журнал недоступен.
type Deps struct {
	Backend   Backend
	Catalog   Catalog
	Checkout  Checkout
	Sessions  Sessions
	Journal   svc.IService
	Formatter money.Formatter
	Log       *zap.Logger
	// Timeout на запрос к бэкенду из обработчика
	Timeout time.Duration
}

type Server struct {
	backend  Backend
	catalog  Catalog
	checkout Checkout
	sessions Sessions
	journal  svc.IService
	fmt      money.Formatter
	log      *zap.Logger
	timeout  time.Duration
	validate *validator.Validate
}

func NewServer(d Deps) *Server {
	if d.Timeout <= 0 {
		d.Timeout = 30 * time.Second
	}
	return &Server{
		backend:  d.Backend,
		catalog:  d.Catalog,
		checkout: d.Checkout,
		sessions: d.Sessions,
		journal:  d.Journal,
		fmt:      d.Formatter,
		log:      d.Log,
		timeout:  d.Timeout,
		validate: model.NewValidator(),
	}
}

// Router все маршруты с middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)

	r.Get("/delivery/methods", s.handleDeliveryMethods)
	r.Route("/metro/lines", func(r chi.Router) {
		r.Get("/", s.handleMetroLines)
		r.Get("/{line}/stations", s.handleMetroStations)
	})
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/categories", s.handleCategories)
		r.Get("/items", s.handleItems)
		r.Get("/items/{id}", s.handleItem)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", s.handleGetCart)
			r.Post("/items", s.handleAddCartItem)
			r.Delete("/items/{itemId}", s.handleRemoveCartItem)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", s.handleOpenCheckout)
			r.Get("/", s.handleGetCheckout)
			r.Delete("/", s.handleDiscardCheckout)
			r.Put("/delivery-method", s.handleSetDeliveryMethod)
			r.Put("/fields/{field}", s.handleSetField)
			r.Post("/submit", s.handleSubmit)
		})
		r.Post("/catalog/refresh", s.handleCatalogRefresh)
		r.Get("/orders", s.handleOrders)
		r.Patch("/orders/{id}/status", s.handleOrderStatus)
		r.Get("/loyalty", s.handleLoyalty)
		r.Post("/users/register", s.handleRegister)
		r.Get("/journal", s.handleUserJournal)
		r.Get("/journal/{id}", s.handleJournalEntry)
	})

	return otelhttp.NewHandler(r, "miniapp-checkout")
}

// Start запускает сервер и останавливает его мягко при отмене ctx.
func (s *Server) Start(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:              address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server started", zap.String("address", address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

// handleError обработчики не логируют сами, все идет сюда
func (s *Server) handleError(msg string, err error, fields ...zap.Field) {
	s.log.Warn(msg, append(fields, zap.Error(err))...)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
