package core

import (
	stderrors "errors"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestMapError_AssignsStableCodes(t *testing.T) {
	mapped := MapError(stderrors.New("webhooks: event evt_123 not found"))
	if mapped.TextCode != MarketplaceErrorEventNotFound {
		t.Fatalf("expected event not found text code, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", mapped.Code)
	}

	mapped = MapError(stderrors.New("auth: invalid client credentials"))
	if mapped.TextCode != MarketplaceErrorInvalidClient {
		t.Fatalf("expected invalid client code, got %q", mapped.TextCode)
	}
	if mapped.Category != goerrors.CategoryAuth {
		t.Fatalf("expected auth category, got %q", mapped.Category)
	}

	mapped = MapError(stderrors.New("auth: token missing scope eats.store"))
	if mapped.Code != http.StatusUnauthorized && mapped.Code != http.StatusForbidden {
		t.Fatalf("expected auth-class status, got %d", mapped.Code)
	}
}

func TestMapError_PreservesExistingEnvelope(t *testing.T) {
	original := goerrors.New("store st_1 not found", goerrors.CategoryNotFound).
		WithTextCode(MarketplaceErrorStoreNotFound)

	mapped := MapError(original)
	if mapped.TextCode != MarketplaceErrorStoreNotFound {
		t.Fatalf("expected original text code preserved, got %q", mapped.TextCode)
	}
	if mapped.Code != http.StatusNotFound {
		t.Fatalf("expected envelope to fill status code, got %d", mapped.Code)
	}
}

func TestMapError_ConflictMapsTo409(t *testing.T) {
	mapped := MapError(goerrors.New("event evt_1 is retrying and cannot be rearmed", goerrors.CategoryConflict))
	if mapped.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", mapped.Code)
	}
	if mapped.TextCode != MarketplaceErrorConflict {
		t.Fatalf("expected conflict text code, got %q", mapped.TextCode)
	}
}

func TestMapError_NilIsNil(t *testing.T) {
	if MapError(nil) != nil {
		t.Fatalf("expected nil mapping for nil error")
	}
}
