package http

import (
	"encoding/json"
	"net/http"

	"github.com/evalua/evalua/internal/auth/service"
	"github.com/evalua/evalua/pkg/authsdk"
	"github.com/evalua/evalua/pkg/slogx"
)

// LogoutHandler serves POST /v1/auth/logout.
type LogoutHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Revokes the presented refresh token. Idempotent: unknown or already-revoked tokens still return 204.
//	@Tags			Auth
//	@Accept			json
//	@Param			body	body	authsdk.LogoutRequest	true	"Refresh token"
//	@Success		204		"no content"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.RefreshToken == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, req.RefreshToken); err != nil {
		log.Error("logout failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
