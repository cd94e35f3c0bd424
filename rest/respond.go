package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-marketplace/core"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.observer.LogError(context.Background(), "response encoding failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	mapped := core.MapError(err)
	s.observer.LogError(r.Context(), "request failed", map[string]any{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": mapped.Code,
		"error":  mapped.Message,
	})
	s.respondJSON(w, mapped.Code, errorResponse{
		Error: errorDetail{Code: mapped.TextCode, Message: mapped.Message},
	})
}

func invalidQueryParam(name string, value string) error {
	return goerrors.New("rest: invalid "+name+" value "+value, goerrors.CategoryBadInput).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.MarketplaceErrorBadInput)
}

// decodeJSON reads the request body into target. An empty body leaves
// target untouched so endpoints with defaulted fields accept bare POSTs.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "rest: invalid JSON body").
			WithCode(http.StatusBadRequest).
			WithTextCode(core.MarketplaceErrorBadInput)
	}
	return nil
}
