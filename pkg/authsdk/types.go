package authsdk

// ErrorResponse is the wire form of an error body, used for parsing HTTP
// error responses. Server code writes errors through APIError instead.
type ErrorResponse struct {
	// Error is the machine-readable error code.
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error.
	ErrorDescription string `json:"error_description"`
}

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest is the body of POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest is the body of POST /v1/auth/logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	// AccessToken is the JWT used to authenticate API requests.
	AccessToken string `json:"access_token"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	// Present it exactly once: refresh rotates it.
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresAt is the access token's absolute expiry, RFC3339.
	ExpiresAt string `json:"expires_at"`
}

// ResetIssueRequest is the body of POST /v1/auth/password-reset.
type ResetIssueRequest struct {
	UserID string `json:"user_id"`
}

// ResetIssueResponse carries the freshly minted reset token. The service
// returns it to the caller (an admin) for out-of-band delivery.
type ResetIssueResponse struct {
	ResetToken string `json:"reset_token"`

	// ExpiresAt is the token's absolute expiry, RFC3339.
	ExpiresAt string `json:"expires_at"`
}

// ResetValidateRequest is the body of POST /v1/auth/password-reset/validate.
type ResetValidateRequest struct {
	Token string `json:"token"`
}

// ResetValidateResponse reports whether a reset token is currently usable.
type ResetValidateResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
}

// ResetCompleteRequest is the body of POST /v1/auth/password-reset/complete.
type ResetCompleteRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// HealthResponse is the body of /livez and /readyz. Checks is only present
// on /readyz.
type HealthResponse struct {
	// Status is the overall health status ("ok" or "degraded").
	Status string `json:"status"`

	// Uptime is the service uptime as a duration string.
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string.
	Version string `json:"version,omitempty"`

	// Checks holds per-dependency readiness results.
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical service dependencies.
type HealthChecks struct {
	// Database is the database connection status.
	Database string `json:"database"`
}
