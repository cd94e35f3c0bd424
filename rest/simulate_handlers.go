package rest

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/core"
)

// simulateOrderRequest mirrors the defaults of the marketplace demo
// fixture so a bare POST creates a plausible order.
type simulateOrderRequest struct {
	StoreID      string         `json:"store_id"`
	CustomerName string         `json:"customer_name"`
	Total        float64        `json:"total"`
	Scheduled    bool           `json:"scheduled"`
	Data         map[string]any `json:"data"`
}

func (s *Server) handleSimulateOrder(w http.ResponseWriter, r *http.Request) {
	req := simulateOrderRequest{
		StoreID:      "store_123",
		CustomerName: "Test Customer",
		Total:        25.99,
	}
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	order, result, err := s.service.SimulateOrder(r.Context(), core.CreateOrderInput{
		StoreID:      strings.TrimSpace(req.StoreID),
		CustomerName: req.CustomerName,
		Total:        req.Total,
		Scheduled:    req.Scheduled,
		Data:         req.Data,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Order created",
		"order_id":     order.OrderID,
		"webhook_sent": result.Triggered,
	})
}

func (s *Server) handleReleaseOrder(w http.ResponseWriter, r *http.Request) {
	order, result, err := s.service.ReleaseOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Order released",
		"order_id":     order.OrderID,
		"webhook_sent": result.Triggered,
	})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, result, err := s.service.CancelOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Order cancelled",
		"order_id":     order.OrderID,
		"webhook_sent": result.Triggered,
	})
}

type deliveryStateRequest struct {
	State string `json:"state"`
}

func (s *Server) handleDeliveryState(w http.ResponseWriter, r *http.Request) {
	var req deliveryStateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if strings.TrimSpace(req.State) == "" {
		req.State = strings.TrimSpace(r.URL.Query().Get("state"))
	}
	orderID := mux.Vars(r)["order_id"]
	result, err := s.service.UpdateDeliveryState(r.Context(), orderID, req.State)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message":      "Delivery state updated",
		"order_id":     orderID,
		"state":        strings.TrimSpace(req.State),
		"webhook_sent": result.Triggered,
	})
}
