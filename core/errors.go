package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	MarketplaceErrorBadInput          = "MARKETPLACE_BAD_INPUT"
	MarketplaceErrorEventNotFound     = "MARKETPLACE_EVENT_NOT_FOUND"
	MarketplaceErrorStoreNotFound     = "MARKETPLACE_STORE_NOT_FOUND"
	MarketplaceErrorOrderNotFound     = "MARKETPLACE_ORDER_NOT_FOUND"
	MarketplaceErrorNotFound          = "MARKETPLACE_NOT_FOUND"
	MarketplaceErrorInvalidClient     = "MARKETPLACE_INVALID_CLIENT"
	MarketplaceErrorInvalidToken      = "MARKETPLACE_INVALID_TOKEN"
	MarketplaceErrorInsufficientScope = "MARKETPLACE_INSUFFICIENT_SCOPE"
	MarketplaceErrorDeliveryFailed    = "MARKETPLACE_DELIVERY_FAILED"
	MarketplaceErrorConflict          = "MARKETPLACE_CONFLICT"
	MarketplaceErrorInternal          = "MARKETPLACE_INTERNAL_ERROR"
)

// MapError normalizes any error into a goerrors envelope carrying an HTTP
// status code and a stable text code. Errors that already carry an
// envelope keep their category; only missing fields are filled in.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "event") && strings.Contains(msg, "not found"):
		return newMarketplaceError(err.Error(), goerrors.CategoryNotFound, MarketplaceErrorEventNotFound)
	case strings.Contains(msg, "store") && strings.Contains(msg, "not found"):
		return newMarketplaceError(err.Error(), goerrors.CategoryNotFound, MarketplaceErrorStoreNotFound)
	case strings.Contains(msg, "order") && strings.Contains(msg, "not found"):
		return newMarketplaceError(err.Error(), goerrors.CategoryNotFound, MarketplaceErrorOrderNotFound)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no rows"):
		return newMarketplaceError(err.Error(), goerrors.CategoryNotFound, MarketplaceErrorNotFound)
	case strings.Contains(msg, "invalid client"), strings.Contains(msg, "client credentials"):
		return newMarketplaceError(err.Error(), goerrors.CategoryAuth, MarketplaceErrorInvalidClient)
	case strings.Contains(msg, "token"):
		return newMarketplaceError(err.Error(), goerrors.CategoryAuth, MarketplaceErrorInvalidToken)
	case strings.Contains(msg, "scope"):
		return newMarketplaceError(err.Error(), goerrors.CategoryAuthz, MarketplaceErrorInsufficientScope)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "unknown"):
		return newMarketplaceError(err.Error(), goerrors.CategoryBadInput, MarketplaceErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureErrorEnvelope(mapped)
}

func newMarketplaceError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatusFor(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return MarketplaceErrorBadInput
	case goerrors.CategoryNotFound:
		return MarketplaceErrorNotFound
	case goerrors.CategoryAuth:
		return MarketplaceErrorInvalidToken
	case goerrors.CategoryAuthz:
		return MarketplaceErrorInsufficientScope
	case goerrors.CategoryConflict:
		return MarketplaceErrorConflict
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return MarketplaceErrorDeliveryFailed
	default:
		return MarketplaceErrorInternal
	}
}

func httpStatusFor(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
