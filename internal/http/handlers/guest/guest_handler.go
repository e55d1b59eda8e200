package guest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/middleware"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/response"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/service"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

type Handler struct {
	Identity service.IdentityService
	Sessions *middleware.Sessions
}

func NewHandler(identity service.IdentityService, sessions *middleware.Sessions) *Handler {
	return &Handler{Identity: identity, Sessions: sessions}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/init", h.init)   // resolve or mint the guest id
	r.Get("/usage", h.usage) // current counters
	return r
}

func (h *Handler) init(w http.ResponseWriter, r *http.Request) {
	view, err := h.Identity.ResolveGuest(r.Context(), middleware.GuestID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	// Re-issue on every call so an active guest's session keeps rolling.
	if err := h.Sessions.Issue(w, middleware.AccountID(r), view.GuestID); err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue guest session", "error", err, "guest_id", view.GuestID)
		response.InternalError(w, "Failed to create session")
		return
	}

	response.JSON(w, http.StatusOK, view)
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	guestID := middleware.GuestID(r)
	if guestID == "" {
		response.BadRequest(w, "No guest session")
		return
	}

	view, err := h.Identity.GuestUsage(r.Context(), guestID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, view)
}
