package rest

import (
	"fmt"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-marketplace/core"
)

type storeView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func newStoreView(store core.Store) storeView {
	return storeView{
		ID:     store.StoreID,
		Name:   store.Name,
		Status: string(store.Status),
	}
}

func (s *Server) handleListStores(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	stores, err := s.service.ListStores(r.Context(), token.ClientID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	views := make([]storeView, 0, len(stores))
	for _, store := range stores {
		views = append(views, newStoreView(store))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"stores": views})
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	store, err := s.service.GetStore(r.Context(), mux.Vars(r)["store_id"])
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newStoreView(store))
}

func (s *Server) handleSetStoreStatus(w http.ResponseWriter, r *http.Request, _ core.AccessToken) {
	storeID := mux.Vars(r)["store_id"]
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status == "" {
		_ = r.ParseForm()
		status = strings.TrimSpace(r.PostFormValue("status"))
	}
	store, err := s.service.SetStoreStatus(r.Context(), storeID, core.StoreStatus(strings.ToLower(status)))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Store %s status set to %s", store.StoreID, store.Status),
	})
}

// integrationRequest is the POST/PATCH body for pos_data. Every field is
// optional; POST applies activation defaults for the absent ones.
type integrationRequest struct {
	IntegratorStoreID       *string                 `json:"integrator_store_id"`
	IntegratorBrandID       *string                 `json:"integrator_brand_id"`
	MerchantStoreID         *string                 `json:"merchant_store_id"`
	IsOrderManager          *bool                   `json:"is_order_manager"`
	RequireManualAcceptance *bool                   `json:"require_manual_acceptance"`
	IntegrationEnabled      *bool                   `json:"integration_enabled"`
	StoreConfigurationData  *string                 `json:"store_configuration_data"`
	WebhooksConfig          *core.WebhookCategories `json:"webhooks_config"`
}

func (req integrationRequest) upsertInput(storeID string, clientID string) core.UpsertIntegrationInput {
	in := core.UpsertIntegrationInput{
		StoreID:        storeID,
		ClientID:       clientID,
		IsOrderManager: true,
	}
	if req.IntegratorStoreID != nil {
		in.IntegratorStoreID = *req.IntegratorStoreID
	}
	if req.IntegratorBrandID != nil {
		in.IntegratorBrandID = *req.IntegratorBrandID
	}
	if req.MerchantStoreID != nil {
		in.MerchantStoreID = *req.MerchantStoreID
	}
	if req.IsOrderManager != nil {
		in.IsOrderManager = *req.IsOrderManager
	}
	if req.RequireManualAcceptance != nil {
		in.RequireManualAcceptance = *req.RequireManualAcceptance
	}
	if req.StoreConfigurationData != nil {
		in.StoreConfigurationData = *req.StoreConfigurationData
	}
	if req.WebhooksConfig != nil {
		in.WebhooksConfig = *req.WebhooksConfig
	}
	return in
}

func (req integrationRequest) patch() core.IntegrationPatch {
	return core.IntegrationPatch{
		IntegratorStoreID:       req.IntegratorStoreID,
		IntegratorBrandID:       req.IntegratorBrandID,
		MerchantStoreID:         req.MerchantStoreID,
		IsOrderManager:          req.IsOrderManager,
		RequireManualAcceptance: req.RequireManualAcceptance,
		IntegrationEnabled:      req.IntegrationEnabled,
		StoreConfigurationData:  req.StoreConfigurationData,
		WebhooksConfig:          req.WebhooksConfig,
	}
}

type allowedCustomerRequests struct {
	AllowSingleUseItems      bool `json:"allow_single_use_items_requests"`
	AllowSpecialInstructions bool `json:"allow_special_instruction_requests"`
}

type integrationView struct {
	IntegratorStoreID       string                  `json:"integrator_store_id"`
	IntegratorBrandID       string                  `json:"integrator_brand_id"`
	MerchantStoreID         string                  `json:"merchant_store_id"`
	IsOrderManager          bool                    `json:"is_order_manager"`
	RequireManualAcceptance bool                    `json:"require_manual_acceptance"`
	IntegrationEnabled      bool                    `json:"integration_enabled"`
	StoreConfigurationData  string                  `json:"store_configuration_data"`
	WebhooksConfig          core.WebhookCategories  `json:"webhooks_config"`
	AllowedCustomerRequests allowedCustomerRequests `json:"allowed_customer_requests"`
}

func newIntegrationView(integration core.StoreIntegration) integrationView {
	config := integration.WebhooksConfig
	if config == nil {
		config = core.WebhookCategories{}
	}
	return integrationView{
		IntegratorStoreID:       integration.IntegratorStoreID,
		IntegratorBrandID:       integration.IntegratorBrandID,
		MerchantStoreID:         integration.MerchantStoreID,
		IsOrderManager:          integration.IsOrderManager,
		RequireManualAcceptance: integration.RequireManualAcceptance,
		IntegrationEnabled:      integration.IntegrationEnabled,
		StoreConfigurationData:  integration.StoreConfigurationData,
		WebhooksConfig:          config,
	}
}

func (s *Server) handleActivateIntegration(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	var req integrationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	storeID := mux.Vars(r)["store_id"]
	if _, err := s.service.ActivateIntegration(r.Context(), req.upsertInput(storeID, token.ClientID)); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Integration activated successfully"})
}

func (s *Server) handleUpdateIntegration(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	var req integrationRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	storeID := mux.Vars(r)["store_id"]
	if _, err := s.ownedIntegration(r, storeID, token); err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.UpdateIntegration(r.Context(), storeID, req.patch()); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Integration updated successfully"})
}

func (s *Server) handleGetIntegration(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	integration, err := s.ownedIntegration(r, mux.Vars(r)["store_id"], token)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, newIntegrationView(integration))
}

func (s *Server) handleRemoveIntegration(w http.ResponseWriter, r *http.Request, token core.AccessToken) {
	storeID := mux.Vars(r)["store_id"]
	if _, err := s.ownedIntegration(r, storeID, token); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.service.RemoveIntegration(r.Context(), storeID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Integration removed successfully"})
}

// ownedIntegration resolves the store's integration and hides rows that
// belong to a different client behind a not-found.
func (s *Server) ownedIntegration(r *http.Request, storeID string, token core.AccessToken) (core.StoreIntegration, error) {
	integration, err := s.service.GetIntegration(r.Context(), storeID)
	if err != nil {
		return core.StoreIntegration{}, err
	}
	if integration.ClientID != token.ClientID {
		return core.StoreIntegration{}, goerrors.New(
			fmt.Sprintf("rest: integration for store %s not found", storeID),
			goerrors.CategoryNotFound,
		)
	}
	return integration, nil
}
