package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

type ctxKey int

const userIDKey ctxKey = iota

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// identity берет пользователя из X-User-ID. Его проставляет клиент из данных Telegram.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid X-User-ID")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, id)))
	})
}

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeError переводит таксономию ошибок в http статус. fallback сообщение, если точнее сказать нечего.
func (s *Server) writeError(w http.ResponseWriter, op string, err error, fallback string) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.handleError(op, err)
	}
	respondError(w, status, code, userMessage(err, fallback))
}

func userMessage(err error, fallback string) string {
	if msg := checkout.UserMessage(err); msg != checkout.FailureMessage {
		return msg
	}
	return fallback
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrSubmitInFlight):
		return http.StatusConflict, "submit_in_flight"
	case errors.Is(err, checkout.ErrNotEditing):
		return http.StatusConflict, "not_editing"
	case errors.Is(err, delivery.ErrUnknownMethod):
		return http.StatusUnprocessableEntity, "unknown_delivery_method"
	// отказ проверяется раньше NotFound: 404 бэкенда при оформлении приходит как отказ
	case errors.Is(err, model.ErrValidationRejected):
		return http.StatusUnprocessableEntity, "validation_rejected"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, model.ErrUnavailable):
		return http.StatusBadGateway, "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
