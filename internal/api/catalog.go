package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gogazub/miniapp-checkout/internal/delivery"
	"github.com/gogazub/miniapp-checkout/internal/model"
)

const (
	notFoundItemMessage = "Товар не найден"
	catalogErrorMessage = "Ошибка загрузки каталога"
)

type methodView struct {
	Key            string           `json:"key"`
	Label          string           `json:"label"`
	RequiredFields []delivery.Field `json:"required_fields"`
	Info           string           `json:"info,omitempty"`
	FixedAddress   string           `json:"fixed_address,omitempty"`
}

func (s *Server) handleDeliveryMethods(w http.ResponseWriter, _ *http.Request) {
	descs := s.checkout.Engine().Registry().Methods()
	out := make([]methodView, 0, len(descs))
	for _, d := range descs {
		out = append(out, methodView{
			Key:            d.Method.String(),
			Label:          d.Label,
			RequiredFields: d.RequiredFields,
			Info:           d.InfoText,
			FixedAddress:   d.FixedAddressText,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"methods": out})
}

func (s *Server) handleMetroLines(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"lines": s.checkout.Engine().Metro().Lines()})
}

// handleMetroStations неизвестная линия не ошибка, а пустой список.
func (s *Server) handleMetroStations(w http.ResponseWriter, r *http.Request) {
	line := chi.URLParam(r, "line")
	if unescaped, err := url.PathUnescape(line); err == nil {
		line = unescaped
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"line":     line,
		"stations": s.checkout.Engine().Metro().StationsFor(line),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	cats, err := s.catalog.Categories(ctx)
	if err != nil {
		s.writeError(w, "get categories", err, catalogErrorMessage)
		return
	}
	respondJSON(w, http.StatusOK, model.CategoriesResponse{Categories: cats})
}

type itemView struct {
	model.Item
	PriceText string `json:"price_text"`
}

func (s *Server) itemView(it model.Item) itemView {
	return itemView{Item: it, PriceText: s.fmt.Format(it.Price)}
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	items, err := s.catalog.Items(ctx, r.URL.Query().Get("category"))
	if err != nil {
		s.writeError(w, "get items", err, catalogErrorMessage)
		return
	}
	out := make([]itemView, 0, len(items))
	for _, it := range items {
		out = append(out, s.itemView(it))
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	it, err := s.catalog.Item(ctx, id)
	if err != nil {
		s.writeError(w, "get item", err, notFoundItemMessage)
		return
	}
	respondJSON(w, http.StatusOK, s.itemView(*it))
}

// handleCatalogRefresh сбрасывает кэш, следующий запрос пойдет в бэкенд.
func (s *Server) handleCatalogRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
	defer cancel()

	if err := s.catalog.Invalidate(ctx); err != nil {
		s.writeError(w, "invalidate catalog", err, catalogErrorMessage)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
