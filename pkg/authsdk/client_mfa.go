package authsdk

import (
	"context"
	"net/http"
)

// EnrollTOTP starts enrollment. TOTP is not active until ConfirmTOTP succeeds.
func (s *Session) EnrollTOTP(ctx context.Context) (*TOTPEnrollResponse, error) {
	var out TOTPEnrollResponse
	if err := s.client.call(ctx, http.MethodPost, "/v1/mfa/totp/enroll", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmTOTP activates TOTP and returns the one-time recovery codes.
func (s *Session) ConfirmTOTP(ctx context.Context, req TOTPConfirmRequest) (*TOTPConfirmResponse, error) {
	var out TOTPConfirmResponse
	if err := s.client.call(ctx, http.MethodPost, "/v1/mfa/totp/confirm", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// DisableTOTP requires a current code or an unused recovery code.
func (s *Session) DisableTOTP(ctx context.Context, code string) error {
	return s.client.call(ctx, http.MethodDelete, "/v1/mfa/totp", TOTPDisableRequest{Code: code}, nil, http.StatusOK)
}

// RegenerateRecoveryCodes replaces every recovery code. It needs a current
// TOTP code; a recovery code is not accepted here.
func (s *Session) RegenerateRecoveryCodes(ctx context.Context, code string) (*TOTPConfirmResponse, error) {
	var out TOTPConfirmResponse
	req := RecoveryCodesRequest{Code: code}
	if err := s.client.call(ctx, http.MethodPost, "/v1/mfa/recovery-codes", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
