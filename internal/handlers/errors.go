package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// lockRetryAfterSeconds is advertised when an account lock could not be
// acquired; the request made no change and may be retried.
const lockRetryAfterSeconds = "1"

type errorMapping struct {
	status int
	code   string
}

var errorMappings = map[error]errorMapping{
	apperrors.ErrValidation:          {http.StatusBadRequest, "VALIDATION_ERROR"},
	apperrors.ErrInvalidQuantity:     {http.StatusBadRequest, "INVALID_QUANTITY"},
	apperrors.ErrInvalidAmount:       {http.StatusBadRequest, "INVALID_AMOUNT"},
	apperrors.ErrUnknownActionType:   {http.StatusBadRequest, "UNKNOWN_ACTION_TYPE"},
	apperrors.ErrUnauthorized:        {http.StatusUnauthorized, "UNAUTHORIZED"},
	apperrors.ErrInsufficientBalance: {http.StatusPaymentRequired, "INSUFFICIENT_BALANCE"},
	apperrors.ErrForbidden:           {http.StatusForbidden, "FORBIDDEN"},
	apperrors.ErrNotFound:            {http.StatusNotFound, "NOT_FOUND"},
	apperrors.ErrTransactionNotFound: {http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	apperrors.ErrDuplicate:           {http.StatusConflict, "DUPLICATE"},
	apperrors.ErrDuplicateReference:  {http.StatusConflict, "DUPLICATE_REFERENCE"},
	apperrors.ErrAlreadyRefunded:     {http.StatusConflict, "ALREADY_REFUNDED"},
	apperrors.ErrNotRefundable:       {http.StatusConflict, "NOT_REFUNDABLE"},
	apperrors.ErrIdempotencyConflict: {http.StatusConflict, "IDEMPOTENCY_CONFLICT"},
	apperrors.ErrUsageLimitExceeded:  {http.StatusTooManyRequests, "USAGE_LIMIT_EXCEEDED"},
	apperrors.ErrLockTimeout:         {http.StatusServiceUnavailable, "LOCK_TIMEOUT"},
}

// respondError turns a service error into its HTTP response. Client errors
// are logged at warn, everything else at error with the internal detail
// kept out of the body.
func respondError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	kind := apperrors.Kind(err)
	mapping, ok := errorMappings[kind]
	if !ok {
		logger.Error(msg, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "INTERNAL", Message: msg})
		return
	}

	resp := dto.ErrorResponse{Error: mapping.code, Message: err.Error()}
	if appErr, found := apperrors.Details(err); found {
		if appErr.Message != "" {
			resp.Message = appErr.Message
		}
		resp.Field = appErr.Field
		resp.Details = appErr.Details
	}
	if mapping.status == http.StatusServiceUnavailable {
		c.Header("Retry-After", lockRetryAfterSeconds)
	}

	logger.Warn(msg, slog.String("error", err.Error()), slog.String("kind", mapping.code))
	c.JSON(mapping.status, resp)
}

// respondBindError reports a request that failed JSON or query binding.
func respondBindError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Failed to bind request", slog.String("error", err.Error()))
	resp := dto.ErrorResponse{Error: "VALIDATION_ERROR", Message: "Invalid request format: " + err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		resp.Field = lowerFirst(fe.Field())
		resp.Message = "field " + resp.Field + " failed the '" + fe.Tag() + "' check"
	}
	c.JSON(http.StatusBadRequest, resp)
}

// respondValidation reports a request value the handler itself rejected.
func respondValidation(c *gin.Context, logger *slog.Logger, field, message string) {
	logger.Warn("Request validation failed", slog.String("field", field), slog.String("reason", message))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "VALIDATION_ERROR", Message: message, Field: field})
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
