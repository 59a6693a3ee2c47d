package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"crmpush/internal/auth"

	"github.com/rs/zerolog/hlog"
)

type Authenticator interface {
	Authenticate(ctx context.Context, name, secret string) (*auth.APIClient, error)
}

type AuthHandler struct {
	Clients Authenticator
	JWT     *auth.JWT
}

type tokenReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

type tokenDTO struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenReq
	if err := decodeJSON(w, r, &req); err != nil {
		if isTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if strings.TrimSpace(req.ClientID) == "" || req.ClientSecret == "" {
		writeError(w, http.StatusBadRequest, "client_id and client_secret are required")
		return
	}

	client, err := h.Clients.Authenticate(r.Context(), req.ClientID, req.ClientSecret)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("authenticate client")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, exp, err := h.JWT.Sign(client.Name)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, tokenDTO{AccessToken: token, TokenType: "bearer", ExpiresAt: exp})
}
