package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/beautycare/backend/internal/domain"
)

// ErrorInfo is the error body of every failed response
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error     ErrorInfo `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
}

// errorStatus maps domain errors onto an HTTP status and a stable code
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrDeadlineExceeded):
		return http.StatusGatewayTimeout, "DEADLINE_EXCEEDED"
	case errors.Is(err, domain.ErrInvalidQuantity):
		return http.StatusBadRequest, "INVALID_QUANTITY"
	case errors.Is(err, domain.ErrInvalidCallback):
		return http.StatusBadRequest, "INVALID_CALLBACK"
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrProfileNotFound):
		return http.StatusNotFound, "PROFILE_NOT_FOUND"
	case errors.Is(err, domain.ErrSelectionEmpty):
		return http.StatusUnprocessableEntity, "SELECTION_EMPTY"
	case errors.Is(err, domain.ErrAffiliateInvalid):
		return http.StatusUnprocessableEntity, "AFFILIATE_INVALID"
	case errors.Is(err, domain.ErrCatalogLoad):
		return http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE"
	case errors.Is(err, domain.ErrCartStoreUnavailable):
		return http.StatusServiceUnavailable, "CART_STORE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// userMessage is what the chat layer shows for an error
func userMessage(code string, err error) string {
	switch code {
	case "SELECTION_EMPTY":
		return "Nothing matched your profile yet. Try retaking the test."
	case "INTERNAL_ERROR", "CART_STORE_UNAVAILABLE", "CATALOG_UNAVAILABLE":
		return "Something went wrong on our side. Your cart is safe, please try again later."
	case "DEADLINE_EXCEEDED":
		return "The request took too long. Please try again."
	}
	return err.Error()
}

func respondError(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	c.JSON(status, errorResponse{
		Error:     ErrorInfo{Code: code, Message: userMessage(code, err)},
		RequestID: c.GetString("request_id"),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:     ErrorInfo{Code: "INVALID_REQUEST", Message: message},
		RequestID: c.GetString("request_id"),
	})
}
