package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gogazub/miniapp-checkout/internal/checkout"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

const cartUpdateMessage = "Ошибка обновления корзины"

type cartView struct {
	model.Basket
	TotalText string `json:"total_text"`
}

func (s *Server) cartView(b *model.Basket) cartView {
	if b.Items == nil {
		b.Items = []model.BasketLine{}
	}
	return cartView{Basket: *b, TotalText: s.fmt.Format(b.TotalPrice)}
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	b, err := s.backend.Basket(ctx, userID(r.Context()))
	if err != nil {
		s.writeError(w, "get basket", err, checkout.CartErrorMessage)
		return
	}
	respondJSON(w, http.StatusOK, s.cartView(b))
}

func (s *Server) handleAddCartItem(w http.ResponseWriter, r *http.Request) {
	var req model.AddBasketItem
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	b, err := s.backend.AddBasketItem(ctx, userID(r.Context()), req)
	if err != nil {
		s.writeError(w, "add basket item", err, cartUpdateMessage)
		return
	}
	respondJSON(w, http.StatusCreated, s.cartView(b))
}

func (s *Server) handleRemoveCartItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemId"), 10, 64)
	if err != nil || itemID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "itemId must be a positive integer")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	b, err := s.backend.RemoveBasketItem(ctx, userID(r.Context()), itemID)
	if err != nil {
		s.writeError(w, "remove basket item", err, cartUpdateMessage)
		return
	}
	respondJSON(w, http.StatusOK, s.cartView(b))
}
