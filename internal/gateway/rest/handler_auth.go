package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storefrontbase/storefront/internal/identity"
	"github.com/storefrontbase/storefront/pkg/model"
)

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req identity.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Email and password are required")
		return
	}

	tokenPair, err := h.accounts.SignIn(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
		case errors.Is(err, identity.ErrAccountDisabled):
			writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Account is disabled")
		case model.IsCanceled(err):
			w.WriteHeader(StatusClientClosedRequest)
		default:
			writeInternalError(w, err, "Login failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, tokenPair)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req identity.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}

	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Missing refresh token")
		return
	}

	tokenPair, err := h.accounts.Refresh(r.Context(), req)
	if err != nil {
		if model.IsCanceled(err) {
			w.WriteHeader(StatusClientClosedRequest)
			return
		}
		writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid or expired refresh token")
		return
	}

	writeJSON(w, http.StatusOK, tokenPair)
}
