package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/middleware"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/response"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/service"
)

func caller(r *http.Request) service.Caller {
	return service.Caller{
		AccountID: middleware.AccountID(r),
		GuestID:   middleware.GuestID(r),
	}
}

// decodeJSON reads the request body into dst. A field of the wrong type is
// reported as invalid input naming the field.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		response.WriteErrorWithDetails(w, http.StatusBadRequest, "Invalid value for "+typeErr.Field, response.CodeInvalidInput, typeErr.Field)
		return false
	}
	response.BadRequest(w, "Invalid JSON format")
	return false
}
