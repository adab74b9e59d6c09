package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors classifying every failure the basket core can surface.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("forbidden")
	ErrCapacity     = errors.New("capacity exceeded")
	ErrImmutable    = errors.New("immutable entity")
	ErrInternal     = errors.New("internal error")
)

// AppError represents a structured application error with HTTP status mapping.
// Details carries structured context (limits, offending IDs, field errors) so
// callers can render a useful message instead of parsing the text.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// InvalidInput creates a 400 validation error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// InvalidPrice signals a manual price value that does not match the strict
// monetary pattern or undercuts the minimum chargeable amount.
func InvalidPrice(value string) *AppError {
	return &AppError{
		Code:    "INVALID_PRICE",
		Message: fmt.Sprintf("invalid price value %q", value),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"value": value},
		Err:     ErrInvalidInput,
	}
}

// AttributeNotAssigned signals attribute IDs that are not associated with the
// product being added. This is the authorization guard against injecting
// arbitrary price-bearing attributes.
func AttributeNotAssigned(listType string, ids []string) *AppError {
	return &AppError{
		Code:    "ATTRIBUTE_NOT_ASSIGNED",
		Message: fmt.Sprintf("attributes [%s] are not assigned to the product as %q", strings.Join(ids, ", "), listType),
		Status:  http.StatusForbidden,
		Details: map[string]any{"list_type": listType, "attribute_ids": ids},
		Err:     ErrForbidden,
	}
}

// AttributeCountMismatch signals that fewer catalog attributes were resolved
// than requested, usually because an attribute was deleted or disabled.
func AttributeCountMismatch(requested, resolved int) *AppError {
	return &AppError{
		Code:    "ATTRIBUTE_COUNT_MISMATCH",
		Message: fmt.Sprintf("requested %d attributes but resolved %d", requested, resolved),
		Status:  http.StatusNotFound,
		Details: map[string]any{"requested": requested, "resolved": resolved},
		Err:     ErrNotFound,
	}
}

// ProductNotAllowed signals a product without any visible category link.
func ProductNotAllowed(code string) *AppError {
	return &AppError{
		Code:    "PRODUCT_NOT_ALLOWED",
		Message: fmt.Sprintf("product %q is not available for ordering", code),
		Status:  http.StatusForbidden,
		Details: map[string]any{"product_code": code},
		Err:     ErrForbidden,
	}
}

// NoUniqueArticle signals that more than one article of a selection matches
// the chosen variant attributes.
func NoUniqueArticle(code string) *AppError {
	return &AppError{
		Code:    "NO_UNIQUE_ARTICLE",
		Message: fmt.Sprintf("selection %q matches more than one article for the chosen attributes", code),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"product_code": code},
		Err:     ErrInvalidInput,
	}
}

// NoArticleFound signals that no article of a selection matches the chosen
// variant attributes.
func NoArticleFound(code string) *AppError {
	return &AppError{
		Code:    "NO_ARTICLE_FOUND",
		Message: fmt.Sprintf("no article of selection %q matches the chosen attributes", code),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"product_code": code},
		Err:     ErrInvalidInput,
	}
}

// InsufficientStock signals that the requested quantity was clamped to the
// available stock level. The clamped quantity is still committed.
func InsufficientStock(code string, requested, available float64) *AppError {
	return &AppError{
		Code:    "INSUFFICIENT_STOCK",
		Message: fmt.Sprintf("only %v of product %q in stock, requested %v", available, code, requested),
		Status:  http.StatusConflict,
		Details: map[string]any{"product_code": code, "requested": requested, "available": available},
		Err:     ErrCapacity,
	}
}

// CouponLimitReached signals that the basket already holds the configured
// number of coupon codes.
func CouponLimitReached(limit int) *AppError {
	return &AppError{
		Code:    "COUPON_LIMIT_REACHED",
		Message: fmt.Sprintf("number of coupon codes exceeds the limit of %d", limit),
		Status:  http.StatusConflict,
		Details: map[string]any{"limit": limit},
		Err:     ErrCapacity,
	}
}

// OrderLimitReached signals too many finalized orders within the trailing
// rate-limit window. A denial-of-service guard, not a business rule.
func OrderLimitReached(limit, count int) *AppError {
	return &AppError{
		Code:    "ORDER_LIMIT_REACHED",
		Message: fmt.Sprintf("tried to place %d orders within the limit of %d, please retry later", count+1, limit),
		Status:  http.StatusConflict,
		Details: map[string]any{"limit": limit, "count": count},
		Err:     ErrCapacity,
	}
}

// ImmutableLineItem signals an edit or delete of a line item flagged as not
// customer-editable, e.g. a bundle sub-item.
func ImmutableLineItem(position int) *AppError {
	return &AppError{
		Code:    "IMMUTABLE_LINE_ITEM",
		Message: fmt.Sprintf("line item at position %d cannot be changed", position),
		Status:  http.StatusConflict,
		Details: map[string]any{"position": position},
		Err:     ErrImmutable,
	}
}

// ProviderConfigInvalid signals service provider configuration errors. The
// offending keys stay attached so forms can re-display them, distinguishing
// unknown keys from invalid values.
func ProviderConfigInvalid(serviceCode string, fields map[string]string) *AppError {
	details := make(map[string]any, len(fields)+1)
	details["service_code"] = serviceCode
	for k, v := range fields {
		details[k] = v
	}
	return &AppError{
		Code:    "PROVIDER_CONFIG_INVALID",
		Message: fmt.Sprintf("invalid configuration for service %q", serviceCode),
		Status:  http.StatusBadRequest,
		Details: details,
		Err:     ErrInvalidInput,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrCapacity), errors.Is(err, ErrImmutable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
