package response

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/rewriter"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

// FromError maps a service error onto a JSON error response.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		quota      *domain.QuotaError
	)

	switch {
	case errors.As(err, &validation):
		WriteErrorWithDetails(w, http.StatusBadRequest, validation.Error(), CodeInvalidInput, validation.Field)
	case errors.Is(err, domain.ErrInvalidInput):
		BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, domain.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, "Invalid username or password", CodeInvalidCredentials)
	case errors.As(err, &quota):
		QuotaExceeded(w, quota.Usage.RemainingUses)
	case errors.Is(err, domain.ErrQuotaExceeded):
		QuotaExceeded(w, 0)
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "Not found")
	case errors.Is(err, domain.ErrDuplicateUsername):
		WriteError(w, http.StatusBadRequest, "Username already exists", CodeUsernameExists)
	case errors.Is(err, domain.ErrRewriteFailed):
		details := strings.TrimPrefix(err.Error(), domain.ErrRewriteFailed.Error()+": ")
		WriteErrorWithDetails(w, http.StatusInternalServerError, MessageRewriteFailed, rewriteCode(err), details)
	default:
		logger.ErrorContext(r.Context(), "Unhandled request error", "error", err, "path", r.URL.Path)
		InternalError(w, "Internal server error")
	}
}

func rewriteCode(err error) string {
	switch {
	case errors.Is(err, rewriter.ErrRateLimited):
		return CodeRewriteRateLimited
	case errors.Is(err, rewriter.ErrInvalidCredentials):
		return CodeRewriteInvalidCredentials
	default:
		return CodeRewriteFailed
	}
}
