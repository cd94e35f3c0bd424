package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-marketplace/core"
)

func webhookEventToRecord(event core.WebhookEvent) *webhookEventRecord {
	record := &webhookEventRecord{
		EventID:    strings.TrimSpace(event.EventID),
		EventType:  string(event.EventType),
		StoreID:    strings.TrimSpace(event.StoreID),
		ClientID:   strings.TrimSpace(event.ClientID),
		Payload:    append([]byte(nil), event.Payload...),
		WebhookURL: strings.TrimSpace(event.WebhookURL),
		Status:     string(event.Status),
		Attempts:   event.Attempts,
		LastError:  event.LastError,
		CreatedAt:  event.CreatedAt,
		UpdatedAt:  event.UpdatedAt,
	}
	if orderID := strings.TrimSpace(event.OrderID); orderID != "" {
		record.OrderID = &orderID
	}
	record.LastAttemptAt = copyTime(event.LastAttemptAt)
	record.NextRetryAt = copyTime(event.NextRetryAt)
	return record
}

func webhookEventToDomain(record *webhookEventRecord) core.WebhookEvent {
	if record == nil {
		return core.WebhookEvent{}
	}
	event := core.WebhookEvent{
		EventID:    record.EventID,
		EventType:  core.EventType(record.EventType),
		StoreID:    record.StoreID,
		ClientID:   record.ClientID,
		Payload:    append([]byte(nil), record.Payload...),
		WebhookURL: record.WebhookURL,
		Status:     core.EventStatus(record.Status),
		Attempts:   record.Attempts,
		LastError:  record.LastError,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if record.OrderID != nil {
		event.OrderID = strings.TrimSpace(*record.OrderID)
	}
	event.LastAttemptAt = copyTime(record.LastAttemptAt)
	event.NextRetryAt = copyTime(record.NextRetryAt)
	return event
}

func integrationToDomain(record *storeIntegrationRecord) core.StoreIntegration {
	if record == nil {
		return core.StoreIntegration{}
	}
	return core.StoreIntegration{
		ID:                      record.ID,
		StoreID:                 record.StoreID,
		ClientID:                record.ClientID,
		IntegratorStoreID:       record.IntegratorStoreID,
		IntegratorBrandID:       record.IntegratorBrandID,
		MerchantStoreID:         record.MerchantStoreID,
		IsOrderManager:          record.IsOrderManager,
		RequireManualAcceptance: record.RequireManualAcceptance,
		IntegrationEnabled:      record.IntegrationEnabled,
		StoreConfigurationData:  record.StoreConfigurationData,
		WebhooksConfig:          categoriesFromMap(record.WebhooksConfig),
		CreatedAt:               record.CreatedAt,
		UpdatedAt:               record.UpdatedAt,
	}
}

func categoriesToMap(categories core.WebhookCategories) map[string]any {
	if len(categories) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(categories))
	for category, flag := range categories {
		out[category] = map[string]any{"is_enabled": flag.IsEnabled}
	}
	return out
}

func categoriesFromMap(raw map[string]any) core.WebhookCategories {
	if len(raw) == 0 {
		return core.WebhookCategories{}
	}
	out := make(core.WebhookCategories, len(raw))
	for category, value := range raw {
		flag, ok := value.(map[string]any)
		if !ok {
			continue
		}
		enabled, ok := flag["is_enabled"].(bool)
		if !ok {
			continue
		}
		out[category] = core.CategoryFlag{IsEnabled: enabled}
	}
	return out
}

func storeToDomain(record *storeRecord) core.Store {
	if record == nil {
		return core.Store{}
	}
	return core.Store{
		StoreID:    record.StoreID,
		ClientID:   record.ClientID,
		Name:       record.Name,
		Status:     core.StoreStatus(record.Status),
		WebhookURL: record.WebhookURL,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
}

func orderToDomain(record *orderRecord) core.Order {
	if record == nil {
		return core.Order{}
	}
	return core.Order{
		OrderID:   record.OrderID,
		StoreID:   record.StoreID,
		Status:    core.OrderStatus(record.Status),
		Data:      copyAnyMap(record.OrderData),
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

func tokenToDomain(record *tokenRecord) core.AccessToken {
	if record == nil {
		return core.AccessToken{}
	}
	return core.AccessToken{
		Token:     record.AccessToken,
		ClientID:  record.ClientID,
		GrantType: record.GrantType,
		Scope:     record.Scope,
		ExpiresAt: record.ExpiresAt,
	}
}

func copyTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
