package authsdk

import (
	"context"
	"net/http"
)

// Login submits credentials. When the identity has TOTP enabled and no code
// was supplied, the response has RequiresTOTP set and no session is created.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/login", req)
}

// LoginTOTP completes a pending second factor challenge.
func (c *SDKClient) LoginTOTP(ctx context.Context, req LoginTOTPRequest) (*LoginResponse, error) {
	return c.login(ctx, "/v1/auth/login/totp", req)
}

func (c *SDKClient) login(ctx context.Context, path string, body any) (*LoginResponse, error) {
	var out LoginResponse
	if err := c.call(ctx, http.MethodPost, path, body, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out.SessionEstablished {
		c.SetCSRFToken(out.CSRFToken)
	}
	return &out, nil
}
