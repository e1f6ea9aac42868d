package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

const (
	noCheckoutMessage    = "Оформление не начато"
	invalidFieldMessage  = "Поле недоступно для выбранного способа доставки"
	invalidChoiceMessage = "Недопустимое значение"
)

// Поля формы вне способа доставки.
const (
	fieldPayment   = "payment"
	fieldPromoCode = "promocode"
)

type checkoutView struct {
	checkout.View
	SubtotalText     string `json:"subtotal_text"`
	DeliveryCostText string `json:"delivery_cost_text"`
	FinalTotalText   string `json:"final_total_text"`
}

func (s *Server) checkoutView(sess *checkout.Session) checkoutView {
	v := sess.View()
	return checkoutView{
		View:             v,
		SubtotalText:     s.fmt.Format(v.Subtotal),
		DeliveryCostText: s.fmt.Format(v.DeliveryCost),
		FinalTotalText:   s.fmt.Format(v.FinalTotal),
	}
}

// session текущая сессия оформления или ответ 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), userID(r.Context()))
	if err != nil {
		s.writeError(w, "get checkout session", err, noCheckoutMessage)
		return nil, false
	}
	return sess, true
}

// handleOpenCheckout загружает корзину и начинает новое оформление. Старый черновик заменяется.
func (s *Server) handleOpenCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	uid := userID(r.Context())
	sess, err := s.checkout.Open(ctx, uid)
	if err != nil {
		s.writeError(w, "open checkout", err, checkout.CartErrorMessage)
		return
	}
	if err := s.sessions.Put(r.Context(), sess); err != nil {
		s.writeError(w, "store checkout session", err, checkout.FailureMessage)
		return
	}
	respondJSON(w, http.StatusCreated, s.checkoutView(sess))
}

func (s *Server) handleGetCheckout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.checkoutView(sess))
}

func (s *Server) handleDiscardCheckout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), userID(r.Context())); err != nil {
		s.writeError(w, "discard checkout session", err, noCheckoutMessage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type methodRequest struct {
	Method string `json:"method" validate:"required"`
}

type valueRequest struct {
	Value string `json:"value"`
}

// handleSetDeliveryMethod принимает ключ или подпись способа.
func (s *Server) handleSetDeliveryMethod(w http.ResponseWriter, r *http.Request) {
	var req methodRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	m, err := s.checkout.Engine().Registry().Lookup(req.Method)
	if err != nil {
		s.writeError(w, "lookup delivery method", err, invalidChoiceMessage)
		return
	}
	s.update(w, r, checkout.DeliveryMethodChanged{Method: m})
}

// handleSetField меняет одно поле черновика. Линия метро сбрасывает станцию.
func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var msg checkout.Msg
	switch name := chi.URLParam(r, "field"); name {
	case fieldPayment:
		msg = checkout.PaymentChanged{Payment: checkout.Payment(req.Value)}
	case fieldPromoCode:
		msg = checkout.PromoCodeChanged{Code: req.Value}
	default:
		f, err := delivery.ParseField(name)
		if err != nil {
			respondError(w, http.StatusNotFound, "unknown_field", err.Error())
			return
		}
		msg = checkout.FieldChanged{Field: f, Value: req.Value}
	}
	s.update(w, r, msg)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, msg checkout.Msg) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Do(func(f *checkout.Form) error { return f.Update(msg) }); err != nil {
		fallback := invalidChoiceMessage
		if errors.Is(err, checkout.ErrFieldNotUsed) {
			fallback = invalidFieldMessage
		}
		s.writeError(w, "update checkout", err, fallback)
		return
	}
	respondJSON(w, http.StatusOK, s.checkoutView(sess))
}

type submitResponse struct {
	Order    *model.Order `json:"order"`
	Checkout checkoutView `json:"checkout"`
}

// handleSubmit отправляет заказ. После успеха сессия удаляется, корзину бэкенд уже очистил.
// Оформление, открытое за время отправки, не трогается.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	order, err := s.checkout.Submit(r.Context(), sess)
	if err != nil {
		s.writeError(w, "submit checkout", err, checkout.FailureMessage)
		return
	}
	view := s.checkoutView(sess)
	if err := s.sessions.Release(context.WithoutCancel(r.Context()), sess); err != nil {
		s.handleError("drop submitted session", err, zap.Int64("user_id", sess.UserID))
	}
	respondJSON(w, http.StatusCreated, submitResponse{Order: order, Checkout: view})
}
