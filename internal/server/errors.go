package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	processtemplatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
	representingcountrydomain "github.com/smallbiznis/pathway/internal/representingcountry/domain"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
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
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
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

// classifyErrorForLog reports the response type and code of a handler error
// for the request log line.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
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

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isOrganizationValidationError(err),
		isAuditValidationError(err),
		isProcessTemplateValidationError(err),
		isRepresentingCountryValidationError(err),
		isWorkflowValidationError(err):
		return true
	default:
		return false
	}
}

// isNotFoundError covers every missing link of the ownership chain. The
// response body is generic so another tenant's ids are not confirmed.
func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, organizationdomain.ErrNotFound),
		errors.Is(err, organizationdomain.ErrMemberNotFound),
		errors.Is(err, processtemplatedomain.ErrNotFound),
		errors.Is(err, representingcountrydomain.ErrNotFound),
		errors.Is(err, workflowdomain.ErrRepresentingCountryNotFound),
		errors.Is(err, workflowdomain.ErrStatusNotFound),
		errors.Is(err, workflowdomain.ErrSubStatusNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch {
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidTargetType):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	case strings.HasPrefix(code, "duplicate_"):
		return strings.TrimPrefix(code, "duplicate_")
	case code == workflowdomain.ErrSystemStatusLocked.Error():
		return "status_id"
	case code == organizationdomain.ErrLastOwner.Error():
		return "role"
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch {
	case code == "invalid_request":
		return "invalid request"
	case strings.HasPrefix(code, "duplicate_"):
		return "already exists"
	case code == workflowdomain.ErrSystemStatusLocked.Error():
		return "the New status cannot be renamed or deleted"
	case code == organizationdomain.ErrLastOwner.Error():
		return "organization needs at least one owner"
	default:
		return "invalid value"
	}
}
