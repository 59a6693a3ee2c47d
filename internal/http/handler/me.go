package handler

import (
	"net/http"

	"crmpush/internal/auth"
)

type MeHandler struct{}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	name, _ := auth.ClientFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"client": name,
	})
}
