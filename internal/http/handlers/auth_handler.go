package handlers

import (
	"net/http"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/middleware"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/http/response"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/service"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

type AuthHandler struct {
	Svc      service.AuthService
	Sessions *middleware.Sessions
}

func NewAuthHandler(svc service.AuthService, sessions *middleware.Sessions) *AuthHandler {
	return &AuthHandler{Svc: svc, Sessions: sessions}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	acct, err := h.Svc.Register(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	// Signing up keeps the browser's guest id in the session.
	if !h.signIn(w, r, acct) {
		return
	}
	response.JSON(w, http.StatusCreated, acct.ToAccountInfo())
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in domain.LoginRequest
	if !decodeJSON(w, r, &in) {
		return
	}

	acct, err := h.Svc.Login(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if !h.signIn(w, r, acct) {
		return
	}
	response.JSON(w, http.StatusOK, acct.ToAccountInfo())
}

// Logout drops the account from the session and keeps the guest id.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if guestID := middleware.GuestID(r); guestID != "" {
		if err := h.Sessions.Issue(w, 0, guestID); err != nil {
			logger.ErrorContext(r.Context(), "Failed to issue session", "error", err)
			response.InternalError(w, "Failed to update session")
			return
		}
	} else {
		h.Sessions.Clear(w)
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// Me returns the signed-in account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	acct, err := h.Svc.GetAccount(r.Context(), middleware.AccountID(r))
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, acct.ToAccountInfo())
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request, acct *domain.Account) bool {
	if err := h.Sessions.Issue(w, acct.ID, middleware.GuestID(r)); err != nil {
		logger.ErrorContext(r.Context(), "Failed to issue session", "error", err, "account_id", acct.ID)
		response.InternalError(w, "Failed to create session")
		return false
	}
	return true
}
