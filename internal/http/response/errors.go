package response

import (
	"encoding/json"
	"net/http"

	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// QuotaResponse is the 403 body sent to a guest whose allowance is spent.
type QuotaResponse struct {
	ErrorResponse
	RemainingUses int `json:"remainingUses"`
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	JSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// WriteErrorWithDetails writes a structured JSON error response with additional details
func WriteErrorWithDetails(w http.ResponseWriter, statusCode int, message, code, details string) {
	JSON(w, statusCode, ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// Common error codes
const (
	CodeInvalidInput              = "INVALID_INPUT"
	CodeUnauthorized              = "UNAUTHORIZED"
	CodeInvalidCredentials        = "INVALID_CREDENTIALS"
	CodeQuotaExceeded             = "QUOTA_EXCEEDED"
	CodeNotFound                  = "NOT_FOUND"
	CodeUsernameExists            = "USERNAME_EXISTS"
	CodeRewriteRateLimited        = "REWRITE_RATE_LIMITED"
	CodeRewriteInvalidCredentials = "REWRITE_INVALID_CREDENTIALS"
	CodeRewriteFailed             = "REWRITE_FAILED"
	CodeInternalError             = "INTERNAL_ERROR"
)

const (
	MessageQuotaExceeded = "Guest usage limit reached. Please sign up for unlimited transformations."
	MessageRewriteFailed = "Error transforming text. Please try again later."
)

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

func QuotaExceeded(w http.ResponseWriter, remaining int) {
	if remaining < 0 {
		remaining = 0
	}
	JSON(w, http.StatusForbidden, QuotaResponse{
		ErrorResponse: ErrorResponse{Error: MessageQuotaExceeded, Code: CodeQuotaExceeded},
		RemainingUses: remaining,
	})
}
