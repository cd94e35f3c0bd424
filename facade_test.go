package marketplace

import (
	"context"
	"testing"

	marketcommand "github.com/goliatone/go-marketplace/command"
	"github.com/goliatone/go-marketplace/core"
	marketquery "github.com/goliatone/go-marketplace/query"
)

type stubCommandQueryService struct {
	marketcommand.MutatingService
	marketquery.EventReader
	marketquery.StoreReader
	marketquery.OrderReader

	triggered []core.TriggerRequest
	stores    []core.Store
}

func (s *stubCommandQueryService) TriggerEvent(_ context.Context, req core.TriggerRequest) (core.TriggerResult, error) {
	s.triggered = append(s.triggered, req)
	return core.TriggerResult{Triggered: true, EventID: "event_1"}, nil
}

func (s *stubCommandQueryService) ListStores(context.Context, string) ([]core.Store, error) {
	return s.stores, nil
}

func TestNewFacade_RequiresService(t *testing.T) {
	if _, err := NewFacade(nil); err == nil {
		t.Fatal("expected error for nil service")
	}
}

func TestFacade_WiresCommandsAndQueries(t *testing.T) {
	service := &stubCommandQueryService{
		stores: []core.Store{{StoreID: "store_123"}},
	}
	facade, err := NewFacade(service)
	if err != nil {
		t.Fatalf("build facade: %v", err)
	}

	commands := facade.Commands()
	if commands.TriggerEvent == nil || commands.SetStoreStatus == nil {
		t.Fatalf("expected command handlers to be wired: %#v", commands)
	}
	queries := facade.Queries()
	if queries.ListStores == nil || queries.GetOrder == nil {
		t.Fatalf("expected query handlers to be wired: %#v", queries)
	}

	err = commands.TriggerEvent.Execute(context.Background(), marketcommand.TriggerEventMessage{
		Request: core.TriggerRequest{
			EventType: core.EventOrderNotification,
			StoreID:   "store_123",
		},
	})
	if err != nil {
		t.Fatalf("execute trigger command: %v", err)
	}
	if len(service.triggered) != 1 {
		t.Fatalf("expected delegation to service, got %d calls", len(service.triggered))
	}

	stores, err := queries.ListStores.Query(context.Background(), marketquery.ListStoresMessage{ClientID: "demo_client_id"})
	if err != nil {
		t.Fatalf("query stores: %v", err)
	}
	if len(stores) != 1 || stores[0].StoreID != "store_123" {
		t.Fatalf("unexpected stores: %#v", stores)
	}

	if facade.Service() != service {
		t.Fatalf("expected service accessor to round-trip")
	}
}
