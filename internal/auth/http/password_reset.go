package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/evalua/evalua/internal/auth/service"
	"github.com/evalua/evalua/internal/auth/store"
	"github.com/evalua/evalua/pkg/authsdk"
	"github.com/evalua/evalua/pkg/httpx"
	"github.com/evalua/evalua/pkg/slogx"
)

// PasswordResetHandler serves the three password-reset endpoints: issuance
// (admin-only), validation, and completion.
type PasswordResetHandler struct {
	AuthService *service.AuthService
}

// HandleIssue godoc
//
//	@Summary		Issue password reset token
//	@Description	Mints a single-use reset token for the given user and invalidates any prior outstanding one. Token delivery is out of band.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		authsdk.ResetIssueRequest	true	"Target user"
//	@Success		200		{object}	authsdk.ResetIssueResponse	"reset_token, expires_at"
//	@Failure		400		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		404		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/v1/auth/password-reset [post].
func (h *PasswordResetHandler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ResetIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.UserID == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	token, err := h.AuthService.RequestPasswordReset(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			authsdk.ErrNotFound.WriteError(w)
			return
		}
		log.Error("reset issuance failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	expiresAt := time.Now().UTC().Add(h.AuthService.Resets.TTL)

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.ResetIssueResponse{
		ResetToken: token,
		ExpiresAt:  expiresAt.Format(time.RFC3339),
	})
}

// HandleValidate godoc
//
//	@Summary		Validate password reset token
//	@Description	Reports whether a reset token is currently usable without consuming it. Expired tokens are removed on sight.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.ResetValidateRequest	true	"Reset token"
//	@Success		200		{object}	authsdk.ResetValidateResponse	"valid, user_id"
//	@Failure		400		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse			"error, error_description"
//	@Router			/v1/auth/password-reset/validate [post].
func (h *PasswordResetHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ResetValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.Token == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	userID, err := h.AuthService.ValidatePasswordReset(ctx, req.Token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			// An unusable token is a negative answer, not an error.
			httpx.WriteJSON(w, http.StatusOK, authsdk.ResetValidateResponse{Valid: false})
			return
		}
		log.Error("reset validation failed", "err", err)
		authsdk.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.ResetValidateResponse{
		Valid:  true,
		UserID: userID,
	})
}

// HandleComplete godoc
//
//	@Summary		Complete password reset
//	@Description	Consumes the reset token, sets the new password, and revokes the user's active refresh tokens. The token is single-use.
//	@Tags			PasswordReset
//	@Accept			json
//	@Param			body	body	authsdk.ResetCompleteRequest	true	"Token and new password"
//	@Success		204		"no content"
//	@Failure		400		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/auth/password-reset/complete [post].
func (h *PasswordResetHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.ResetCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		authsdk.ErrInvalidJSONBody.WriteError(w)
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	err := h.AuthService.ResetPassword(ctx, req.Token, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			authsdk.ErrInvalidToken.WriteError(w)
		case errors.Is(err, service.ErrPasswordConfirmation),
			errors.Is(err, service.ErrPasswordTooShort):
			authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeValidationFailed, err.Error()).WriteError(w)
		default:
			log.Error("reset completion failed", "err", err)
			authsdk.ErrServerError.WriteError(w)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
