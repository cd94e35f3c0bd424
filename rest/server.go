package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/auth"
	"github.com/goliatone/go-marketplace/core"
)

// Server is the mock marketplace HTTP surface: OAuth token issuance,
// the store/order/integration API the POS calls, and the simulation
// endpoints that drive outbound webhooks.
type Server struct {
	service  *core.Service
	auth     *auth.Service
	observer *core.Observer
	router   *mux.Router
}

type Option func(*Server)

func WithObserver(observer *core.Observer) Option {
	return func(s *Server) {
		if observer != nil {
			s.observer = observer
		}
	}
}

func NewServer(service *core.Service, authService *auth.Service, opts ...Option) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("rest: marketplace service is required")
	}
	if authService == nil {
		return nil, fmt.Errorf("rest: auth service is required")
	}
	s := &Server{
		service:  service,
		auth:     authService,
		observer: core.NewObserver(nil, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.router = s.buildRouter()
	return s, nil
}

func (s *Server) Router() *mux.Router {
	if s == nil {
		return nil
	}
	return s.router
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/oauth/v2/token", s.handleToken).Methods(http.MethodPost)
	r.HandleFunc("/oauth/v2/authorize", s.handleAuthorize).Methods(http.MethodGet)

	eats := r.PathPrefix("/v1/eats").Subrouter()
	eats.HandleFunc("/stores", s.withAuth("", s.handleListStores)).Methods(http.MethodGet)
	eats.HandleFunc("/stores/{store_id}", s.withAuth("", s.handleGetStore)).Methods(http.MethodGet)
	eats.HandleFunc("/stores/{store_id}/status", s.withAuth("", s.handleSetStoreStatus)).Methods(http.MethodPost)

	eats.HandleFunc("/stores/{store_id}/pos_data", s.withAuth(auth.ScopeEatsPOSProvisioning, s.handleActivateIntegration)).Methods(http.MethodPost)
	eats.HandleFunc("/stores/{store_id}/pos_data", s.withAuth(auth.ScopeEatsStore, s.handleUpdateIntegration)).Methods(http.MethodPatch)
	eats.HandleFunc("/stores/{store_id}/pos_data", s.withAuth(auth.ScopeEatsStore, s.handleGetIntegration)).Methods(http.MethodGet)
	eats.HandleFunc("/stores/{store_id}/pos_data", s.withAuth(auth.ScopeEatsPOSProvisioning, s.handleRemoveIntegration)).Methods(http.MethodDelete)

	eats.HandleFunc("/stores/{store_id}/menus", s.withAuth("", s.handleGetMenus)).Methods(http.MethodGet)
	eats.HandleFunc("/stores/{store_id}/menus", s.withAuth("", s.handleUploadMenu)).Methods(http.MethodPut)

	eats.HandleFunc("/orders", s.withAuth("", s.handleListOrders)).Methods(http.MethodGet)
	eats.HandleFunc("/orders/{order_id}", s.withAuth("", s.handleGetOrder)).Methods(http.MethodGet)
	eats.HandleFunc("/orders/{order_id}/accept_pos_order", s.withAuth("", s.handleAcceptOrder)).Methods(http.MethodPost)
	eats.HandleFunc("/orders/{order_id}/deny_pos_order", s.withAuth("", s.handleDenyOrder)).Methods(http.MethodPost)

	r.HandleFunc("/webhooks/configure", s.withAuth("", s.handleConfigureWebhook)).Methods(http.MethodPost)
	r.HandleFunc("/webhooks/events", s.handleListEvents).Methods(http.MethodGet)
	r.HandleFunc("/webhooks/retry/{event_id}", s.handleRetryEvent).Methods(http.MethodPost)

	r.HandleFunc("/simulate/order", s.handleSimulateOrder).Methods(http.MethodPost)
	r.HandleFunc("/simulate/order/release/{order_id}", s.handleReleaseOrder).Methods(http.MethodPost)
	r.HandleFunc("/simulate/order/cancel/{order_id}", s.handleCancelOrder).Methods(http.MethodPost)
	r.HandleFunc("/simulate/delivery/{order_id}/state", s.handleDeliveryState).Methods(http.MethodPost)

	return r
}

type authedHandler func(w http.ResponseWriter, r *http.Request, token core.AccessToken)

// withAuth resolves the bearer token and, when scope is non-empty,
// enforces it before delegating.
func (s *Server) withAuth(scope string, next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := s.auth.ValidateBearer(r.Context(), bearerToken(r))
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if scope != "" {
			if err := s.auth.RequireScope(token, scope); err != nil {
				s.respondError(w, r, err)
				return
			}
		}
		next(w, r, token)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"name": "marketplace-mock",
		"endpoints": map[string]string{
			"auth":     "/oauth/v2/token",
			"stores":   "/v1/eats/stores",
			"orders":   "/v1/eats/orders",
			"pos_data": "/v1/eats/stores/{store_id}/pos_data",
			"webhooks": "/webhooks/events",
			"simulate": "/simulate/order",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
