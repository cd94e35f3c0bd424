package rest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/core"
)

type configureWebhookRequest struct {
	WebhookURL string `json:"webhook_url"`
}

// handleConfigureWebhook points every store owned by the caller at the
// given callback URL.
func (s *Server) handleConfigureWebhook(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	var req configureWebhookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	stores, err := s.service.ConfigureWebhook(r.Context(), token.ClientID, req.WebhookURL)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Webhook configured",
		"url":     strings.TrimSpace(req.WebhookURL),
		"stores":  len(stores),
	})
}

type eventView struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	StoreID     string          `json:"store_id"`
	OrderID     string          `json:"order_id,omitempty"`
	WebhookURL  string          `json:"webhook_url"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	LastError   string          `json:"last_error,omitempty"`
	NextRetryAt *time.Time      `json:"next_retry_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

func newEventView(event core.WebhookEvent) eventView {
	return eventView{
		EventID:     event.EventID,
		EventType:   string(event.EventType),
		StoreID:     event.StoreID,
		OrderID:     event.OrderID,
		WebhookURL:  event.WebhookURL,
		Status:      string(event.Status),
		Attempts:    event.Attempts,
		LastError:   event.LastError,
		NextRetryAt: event.NextRetryAt,
		CreatedAt:   event.CreatedAt,
		Payload:     json.RawMessage(event.Payload),
	}
}

// handleListEvents returns stored webhook events, newest first,
// optionally filtered by delivery status.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter core.EventFilter

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := core.ParseEventStatus(raw)
		if err != nil {
			s.respondError(w, r, goerrors.Wrap(err, goerrors.CategoryBadInput, "rest: invalid status filter"))
			return
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.respondError(w, r, invalidQueryParam("limit", raw))
			return
		}
		filter.Limit = limit
	}

	events, err := s.service.ListEvents(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	views := make([]eventView, 0, len(events))
	for _, event := range events {
		views = append(views, newEventView(event))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"events": views,
		"count":  len(views),
	})
}

// handleRetryEvent rearms a stored event for immediate redelivery.
func (s *Server) handleRetryEvent(w http.ResponseWriter, r *http.Request) {
	event, err := s.service.RetryEvent(r.Context(), mux.Vars(r)["event_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"message": "Event queued for redelivery",
		"event":   newEventView(event),
	})
}
