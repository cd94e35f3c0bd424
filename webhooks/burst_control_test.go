package webhooks

import (
	"context"
	"testing"
	"time"
)

func TestBurstController_NoneAllowsEverything(t *testing.T) {
	controller := NewBurstController(BurstOptions{Mode: BurstModeNone})
	for i := 0; i < 5; i++ {
		if decision := controller.Allow(context.Background(), "store_1:orders.notification"); !decision.Allow {
			t.Fatalf("expected none mode to allow all")
		}
	}
}

func TestBurstController_CoalescesWithinWindow(t *testing.T) {
	current := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	controller := NewBurstController(BurstOptions{
		Mode:   BurstModeCoalesce,
		Window: 2 * time.Second,
		Now:    func() time.Time { return current },
	})

	if decision := controller.Allow(context.Background(), "store_1:orders.notification"); !decision.Allow {
		t.Fatalf("expected first trigger allowed")
	}

	current = current.Add(500 * time.Millisecond)
	decision := controller.Allow(context.Background(), "store_1:orders.notification")
	if decision.Allow {
		t.Fatalf("expected duplicate inside window to coalesce")
	}
	if decision.Metadata["coalesced"] != true {
		t.Fatalf("expected coalesce metadata, got %v", decision.Metadata)
	}

	if decision := controller.Allow(context.Background(), "store_2:orders.notification"); !decision.Allow {
		t.Fatalf("expected different key allowed")
	}

	current = current.Add(3 * time.Second)
	if decision := controller.Allow(context.Background(), "store_1:orders.notification"); !decision.Allow {
		t.Fatalf("expected trigger outside window allowed")
	}
}

func TestBurstController_EmptyKeyPasses(t *testing.T) {
	controller := NewBurstController(BurstOptions{Mode: BurstModeCoalesce})
	if decision := controller.Allow(context.Background(), "  "); !decision.Allow {
		t.Fatalf("expected blank key to pass")
	}
}
