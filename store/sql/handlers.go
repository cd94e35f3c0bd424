package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func webhookEventHandlers() repository.ModelHandlers[*webhookEventRecord] {
	return repository.ModelHandlers[*webhookEventRecord]{
		NewRecord: func() *webhookEventRecord {
			return &webhookEventRecord{}
		},
		GetID: func(record *webhookEventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.EventID)
		},
		SetID: func(record *webhookEventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.EventID = id.String()
		},
		GetIdentifier: func() string {
			return "event_id"
		},
		GetIdentifierValue: func(record *webhookEventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.EventID)
		},
	}
}

func storeIntegrationHandlers() repository.ModelHandlers[*storeIntegrationRecord] {
	return repository.ModelHandlers[*storeIntegrationRecord]{
		NewRecord: func() *storeIntegrationRecord {
			return &storeIntegrationRecord{}
		},
		GetID: func(record *storeIntegrationRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *storeIntegrationRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *storeIntegrationRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func storeHandlers() repository.ModelHandlers[*storeRecord] {
	return repository.ModelHandlers[*storeRecord]{
		NewRecord: func() *storeRecord {
			return &storeRecord{}
		},
		GetID: func(record *storeRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.StoreID)
		},
		SetID: func(record *storeRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.StoreID = id.String()
		},
		GetIdentifier: func() string {
			return "store_id"
		},
		GetIdentifierValue: func(record *storeRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.StoreID)
		},
	}
}

func orderHandlers() repository.ModelHandlers[*orderRecord] {
	return repository.ModelHandlers[*orderRecord]{
		NewRecord: func() *orderRecord {
			return &orderRecord{}
		},
		GetID: func(record *orderRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.OrderID)
		},
		SetID: func(record *orderRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.OrderID = id.String()
		},
		GetIdentifier: func() string {
			return "order_id"
		},
		GetIdentifierValue: func(record *orderRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.OrderID)
		},
	}
}

func clientHandlers() repository.ModelHandlers[*clientRecord] {
	return repository.ModelHandlers[*clientRecord]{
		NewRecord: func() *clientRecord {
			return &clientRecord{}
		},
		GetID: func(record *clientRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ClientID)
		},
		SetID: func(record *clientRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ClientID = id.String()
		},
		GetIdentifier: func() string {
			return "client_id"
		},
		GetIdentifierValue: func(record *clientRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ClientID)
		},
	}
}

func tokenHandlers() repository.ModelHandlers[*tokenRecord] {
	return repository.ModelHandlers[*tokenRecord]{
		NewRecord: func() *tokenRecord {
			return &tokenRecord{}
		},
		GetID: func(record *tokenRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.AccessToken)
		},
		SetID: func(record *tokenRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.AccessToken = id.String()
		},
		GetIdentifier: func() string {
			return "access_token"
		},
		GetIdentifierValue: func(record *tokenRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.AccessToken)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}
