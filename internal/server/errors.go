package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/vendo/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/vendo/internal/checkout/domain"
	entitlementdomain "github.com/smallbiznis/vendo/internal/entitlement/domain"
	"github.com/smallbiznis/vendo/internal/providers/payment"
	"github.com/smallbiznis/vendo/internal/providers/restclient"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	storagedomain "github.com/smallbiznis/vendo/internal/storage/domain"
	webhookdomain "github.com/smallbiznis/vendo/internal/webhook/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTooManyCheckouts = errors.New("too_many_checkouts")
	ErrAlreadyPurchased = errors.New("already_purchased")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, entitlementdomain.ErrUnauthenticated):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, entitlementdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrTooManyCheckouts):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many checkout attempts",
		}
	case errors.Is(err, ErrAlreadyPurchased):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   "item_ids",
				Code:    "already_purchased",
				Message: "item already purchased",
			}},
		}
	case errors.Is(err, checkoutdomain.ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   "item_ids",
				Code:    "invalid_request",
				Message: "invalid request",
			}},
		}
	case errors.Is(err, checkoutdomain.ErrItemNotPurchasable):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   "item_ids",
				Code:    "item_not_purchasable",
				Message: "item cannot be purchased",
			}},
		}
	case errors.Is(err, checkoutdomain.ErrPriceConversion):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{{
				Field:   "item_ids",
				Code:    "price_conversion",
				Message: "item price cannot be converted exactly",
			}},
		}
	case errors.Is(err, webhookdomain.ErrInvalidSignature):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_signature",
			Message: "invalid signature",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, checkoutdomain.ErrProvider):
		return http.StatusBadGateway, errorPayload{
			Type:    "provider_error",
			Message: "payment provider error",
		}
	case isUnavailableError(err):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, checkoutdomain.ErrItemNotFound),
		errors.Is(err, catalogdomain.ErrItemNotFound),
		errors.Is(err, entitlementdomain.ErrNotFound),
		errors.Is(err, storagedomain.ErrBlobNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isUnavailableError(err error) bool {
	switch {
	case errors.Is(err, purchasedomain.ErrLedgerUnavailable),
		errors.Is(err, catalogdomain.ErrCatalogUnavailable),
		errors.Is(err, storagedomain.ErrStorageUnavailable),
		errors.Is(err, restclient.ErrNotConfigured),
		errors.Is(err, payment.ErrNotConfigured),
		errors.Is(err, webhookdomain.ErrNotConfigured):
		return true
	default:
		return false
	}
}

// classifyErrorForLog maps an error to (type, code) fields for the request
// log without leaking internals.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "server_error", payload.Type
	case status >= http.StatusBadRequest:
		return "client_error", payload.Type
	default:
		return "", ""
	}
}
