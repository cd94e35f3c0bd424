package rest

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/core"
)

const defaultDenialReason = "Unable to fulfill"

type orderView struct {
	ID      string         `json:"id"`
	StoreID string         `json:"store_id"`
	Status  string         `json:"status"`
	Data    map[string]any `json:"data"`
}

func newOrderView(order core.Order) orderView {
	data := order.Data
	if data == nil {
		data = map[string]any{}
	}
	return orderView{
		ID:      order.OrderID,
		StoreID: order.StoreID,
		Status:  string(order.Status),
		Data:    data,
	}
}

// handleListOrders returns orders across every store owned by the
// caller, or a single store's orders when store_id is given.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			s.respondError(w, r, invalidQueryParam("limit", raw))
			return
		}
		limit = parsed
	}

	var stores []core.Store
	if storeID := strings.TrimSpace(query.Get("store_id")); storeID != "" {
		store, err := s.service.GetStore(r.Context(), storeID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		stores = []core.Store{store}
	} else {
		owned, err := s.service.ListStores(r.Context(), token.ClientID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		stores = owned
	}

	views := make([]orderView, 0)
	for _, store := range stores {
		if store.ClientID != token.ClientID {
			continue
		}
		orders, err := s.service.ListOrders(r.Context(), store.StoreID, limit)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		for _, order := range orders {
			views = append(views, newOrderView(order))
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"orders": views})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	order, err := s.service.GetOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newOrderView(order))
}

func (s *Server) handleAcceptOrder(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	order, _, err := s.service.AcceptOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":  "Order accepted",
		"order_id": order.OrderID,
	})
}

func (s *Server) handleDenyOrder(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	_ = r.ParseForm()
	reason := strings.TrimSpace(r.PostFormValue("reason"))
	if reason == "" {
		reason = defaultDenialReason
	}
	order, _, err := s.service.DenyOrder(r.Context(), mux.Vars(r)["order_id"], reason)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message":  "Order denied",
		"order_id": order.OrderID,
		"reason":   reason,
	})
}
