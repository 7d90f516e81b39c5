package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"exhibitcore/internal/receipt"
	"exhibitcore/internal/transfer"
	"exhibitcore/pkg/domain"
)

type errorResponse struct {
	Error      string              `json:"error"`
	Fields     []domain.FieldError `json:"fields,omitempty"`
	Position   int                 `json:"position,omitempty"`
	Violations []violationResponse `json:"violations,omitempty"`
}

type violationResponse struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	EntityID string `json:"entityId,omitempty"`
}

// statusFor maps the domain error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var (
		tooLarge   *http.MaxBytesError
		oversized  transfer.TooLargeError
		validation domain.ValidationError
		format     domain.FormatError
		notFound   domain.NotFoundError
		transition domain.InvalidTransitionError
		collected  domain.AlreadyCollectedError
		rule       domain.RuleViolationError
		exhausted  domain.SerialExhaustedError
		persist    domain.PersistenceError
	)
	switch {
	case errors.As(err, &tooLarge), errors.As(err, &oversized):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &format):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &transition), errors.As(err, &collected), errors.As(err, &rule),
		errors.Is(err, receipt.ErrNotCollected):
		return http.StatusConflict
	case errors.As(err, &exhausted):
		return http.StatusUnprocessableEntity
	case errors.As(err, &persist):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}
	var (
		validation domain.ValidationError
		format     domain.FormatError
		rule       domain.RuleViolationError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		resp.Error = "import payload exceeds the size limit"
	case errors.As(err, &validation):
		resp.Fields = validation.Fields
	case errors.As(err, &format):
		resp.Position = format.Position
	case errors.As(err, &rule):
		for _, v := range rule.Result.Violations {
			resp.Violations = append(resp.Violations, violationResponse{
				Rule: v.Rule, Severity: string(v.Severity), Message: v.Message, EntityID: v.EntityID,
			})
		}
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		if status == http.StatusInternalServerError {
			resp.Error = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, resp)
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}
