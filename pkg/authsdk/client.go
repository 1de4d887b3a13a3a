package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a small SDK for the evalua auth service. It covers the
// unauthenticated credential flows; authenticated platform calls carry the
// access token themselves.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a client with a sane default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login exchanges credentials for an access/refresh pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/login", LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh rotates a refresh token. The token sent here is dead afterwards;
// keep the one in the response.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	err := c.postJSON(ctx, "/v1/auth/refresh", RefreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes a refresh token. Safe to repeat.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.postJSON(ctx, "/v1/auth/logout", LogoutRequest{RefreshToken: refreshToken}, nil)
}

// ValidateResetToken asks whether a reset token is currently usable without
// consuming it.
func (c *Client) ValidateResetToken(ctx context.Context, token string) (*ResetValidateResponse, error) {
	var out ResetValidateResponse
	err := c.postJSON(ctx, "/v1/auth/password-reset/validate", ResetValidateRequest{Token: token}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CompletePasswordReset consumes the reset token and sets the new password.
func (c *Client) CompletePasswordReset(ctx context.Context, token, newPassword, confirm string) error {
	return c.postJSON(ctx, "/v1/auth/password-reset/complete", ResetCompleteRequest{
		Token:           token,
		NewPassword:     newPassword,
		ConfirmPassword: confirm,
	}, nil)
}

// Livez reports basic service health.
func (c *Client) Livez(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/livez", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := parseErrorResponse(resp, body); err != nil {
		return nil, err
	}

	var out HealthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if err := parseErrorResponse(resp, body); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
