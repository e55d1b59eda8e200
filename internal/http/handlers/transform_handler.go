package handlers

import (
	"net/http"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/response"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/service"
)

type TransformHandler struct {
	Svc service.TransformService
}

func NewTransformHandler(svc service.TransformService) *TransformHandler {
	return &TransformHandler{Svc: svc}
}

// Transform handles POST /api/transform for accounts and guests alike.
func (h *TransformHandler) Transform(w http.ResponseWriter, r *http.Request) {
	var in domain.TransformRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	res, err := h.Svc.Transform(r.Context(), caller(r), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}

// History lists the signed-in account's transformations, oldest first.
func (h *TransformHandler) History(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.History(r.Context(), caller(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.Transformation{}
	}

	response.JSON(w, http.StatusOK, items)
}
