package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	ruledomain "github.com/smallbiznis/affina/internal/commissionrule/domain"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
	productdomain "github.com/smallbiznis/affina/internal/product/domain"
	signupdomain "github.com/smallbiznis/affina/internal/signup/domain"
	tenantdomain "github.com/smallbiznis/affina/internal/tenant/domain"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
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
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
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
		code := err.Error()
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: strings.ReplaceAll(code, "_", " "),
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, trackingdomain.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
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
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidSlug),
		errors.Is(err, signupdomain.ErrInvalidName),
		errors.Is(err, signupdomain.ErrInvalidSlug),
		errors.Is(err, signupdomain.ErrInvalidEmail),
		errors.Is(err, productdomain.ErrInvalidName),
		errors.Is(err, productdomain.ErrInvalidSKU),
		errors.Is(err, productdomain.ErrInvalidPrice),
		errors.Is(err, productdomain.ErrInvalidPercent),
		errors.Is(err, productdomain.ErrInvalidStatus),
		errors.Is(err, productdomain.ErrInvalidID),
		errors.Is(err, tierdomain.ErrInvalidTierName),
		errors.Is(err, tierdomain.ErrInvalidPercent),
		errors.Is(err, tierdomain.ErrInvalidMinSales),
		errors.Is(err, tierdomain.ErrInvalidID),
		errors.Is(err, ruledomain.ErrInvalidName),
		errors.Is(err, ruledomain.ErrInvalidType),
		errors.Is(err, ruledomain.ErrInvalidValue),
		errors.Is(err, ruledomain.ErrInvalidValueType),
		errors.Is(err, ruledomain.ErrInvalidStatus),
		errors.Is(err, ruledomain.ErrInvalidDateRange),
		errors.Is(err, ruledomain.ErrInvalidID),
		errors.Is(err, commissiondomain.ErrInvalidAffiliate),
		errors.Is(err, commissiondomain.ErrInvalidProduct),
		errors.Is(err, commissiondomain.ErrInvalidTier),
		errors.Is(err, affiliatedomain.ErrInvalidEmail),
		errors.Is(err, affiliatedomain.ErrInvalidProducts),
		errors.Is(err, affiliatedomain.ErrInvalidToken),
		errors.Is(err, affiliatedomain.ErrInvalidUser),
		errors.Is(err, affiliatedomain.ErrInvalidID),
		errors.Is(err, trackingdomain.ErrInvalidEventType),
		errors.Is(err, trackingdomain.ErrInvalidCode),
		errors.Is(err, trackingdomain.ErrInvalidAmount),
		errors.Is(err, trackingdomain.ErrInvalidAffiliate),
		errors.Is(err, campaigndomain.ErrInvalidName),
		errors.Is(err, campaigndomain.ErrInvalidStatus),
		errors.Is(err, campaigndomain.ErrInvalidDates),
		errors.Is(err, campaigndomain.ErrInvalidBudget),
		errors.Is(err, campaigndomain.ErrInvalidID),
		errors.Is(err, campaigndomain.ErrInvalidInfluencer):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, tierdomain.ErrInvalidTenant),
		errors.Is(err, ruledomain.ErrInvalidTenant),
		errors.Is(err, commissiondomain.ErrInvalidTenant),
		errors.Is(err, productdomain.ErrInvalidTenant),
		errors.Is(err, affiliatedomain.ErrInvalidTenant),
		errors.Is(err, trackingdomain.ErrInvalidTenant),
		errors.Is(err, campaigndomain.ErrInvalidTenant):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, tenantdomain.ErrSlugTaken),
		errors.Is(err, signupdomain.ErrSlugTaken),
		errors.Is(err, tierdomain.ErrTierNameTaken),
		errors.Is(err, affiliatedomain.ErrInviteAccepted),
		errors.Is(err, affiliatedomain.ErrInviteExpired),
		errors.Is(err, affiliatedomain.ErrAcceptInProgress),
		errors.Is(err, campaigndomain.ErrAlreadyJoined),
		errors.Is(err, campaigndomain.ErrCampaignInactive):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, tierdomain.ErrNotFound),
		errors.Is(err, ruledomain.ErrNotFound),
		errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, affiliatedomain.ErrNotFound),
		errors.Is(err, trackingdomain.ErrNotFound),
		errors.Is(err, campaigndomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}
