package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gogazub/miniapp-checkout/internal/loyalty"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

const (
	ordersErrorMessage     = "Ошибка загрузки заказов"
	orderStatusMessage     = "Ошибка обновления заказа"
	orderNotFoundMessage   = "Заказ не найден"
	loyaltyErrorMessage    = "Ошибка загрузки карты лояльности"
	registerErrorMessage   = "Ошибка регистрации"
	journalErrorMessage    = "Журнал недоступен"
	journalNotFoundMessage = "Запись не найдена"
	defaultJournalLimit    = 20
)

type orderView struct {
	model.Order
	StatusText       string `json:"status_text"`
	CreatedAtText    string `json:"created_at_text"`
	TotalText        string `json:"total_text"`
	DeliveryCostText string `json:"delivery_cost_text"`
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	orders, err := s.backend.UserOrders(ctx, userID(r.Context()))
	if err != nil {
		s.writeError(w, "get user orders", err, ordersErrorMessage)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		v := orderView{
			Order:            o,
			StatusText:       o.Status.Text(),
			TotalText:        s.fmt.Format(o.TotalPrice),
			DeliveryCostText: s.fmt.Format(o.DeliveryCost),
		}
		if !o.CreatedAt.IsZero() {
			v.CreatedAtText = o.CreatedAt.Format(model.DateLayout)
		}
		out = append(out, v)
	}
	respondJSON(w, http.StatusOK, map[string]any{"orders": out})
}

type statusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required"`
}

// handleOrderStatus меняет статус своего заказа. Чужой заказ отвечает 404.
func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown status "+string(req.Status))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	orders, err := s.backend.UserOrders(ctx, userID(r.Context()))
	if err != nil {
		s.writeError(w, "get user orders", err, ordersErrorMessage)
		return
	}
	if !slices.ContainsFunc(orders, func(o model.Order) bool { return o.ID == orderID }) {
		respondError(w, http.StatusNotFound, "not_found", orderNotFoundMessage)
		return
	}
	if err := s.backend.UpdateOrderStatus(ctx, orderID, req.Status); err != nil {
		s.writeError(w, "update order status", err, orderStatusMessage)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": orderID, "status": req.Status, "status_text": req.Status.Text()})
}

func (s *Server) handleLoyalty(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	l, err := s.backend.Loyalty(ctx, userID(r.Context()))
	if err != nil {
		s.writeError(w, "get loyalty", err, loyaltyErrorMessage)
		return
	}
	respondJSON(w, http.StatusOK, loyalty.NewCard(*l))
}

// handleRegister тело необязательно. telegramId всегда берется из X-User-ID.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterUser
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	uid := userID(r.Context())
	if req.TelegramID != 0 && req.TelegramID != uid {
		respondError(w, http.StatusForbidden, "forbidden", "telegramId does not match X-User-ID")
		return
	}
	req.TelegramID = uid
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	res, err := s.backend.RegisterUser(ctx, req)
	if err != nil {
		s.writeError(w, "register user", err, registerErrorMessage)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleUserJournal(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "journal_disabled", journalErrorMessage)
		return
	}
	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	events, err := s.journal.ListUserEvents(ctx, userID(r.Context()), limit)
	if err != nil {
		s.writeError(w, "list user journal", err, journalErrorMessage)
		return
	}
	if events == nil {
		events = []*model.CheckoutEvent{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleJournalEntry(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "journal_disabled", journalErrorMessage)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	ev, err := s.journal.GetEventByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, "get journal entry", err, journalNotFoundMessage)
		return
	}
	// чужая запись неотличима от отсутствующей
	if ev.UserID != userID(r.Context()) {
		respondError(w, http.StatusNotFound, "not_found", journalNotFoundMessage)
		return
	}
	respondJSON(w, http.StatusOK, ev)
}
