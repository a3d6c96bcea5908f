package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// SetRole requires manage_identities and strict rank over both roles.
func (s *Session) SetRole(ctx context.Context, identityID, role string) (*IdentityResponse, error) {
	var out IdentityResponse
	path := "/v1/identities/" + url.PathEscape(identityID) + "/role"
	if err := s.client.call(ctx, http.MethodPut, path, SetRoleRequest{Role: role}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*IdentityResponse, error) {
	var out IdentityResponse
	if err := s.client.call(ctx, http.MethodPatch, "/v1/identities/me", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword ends every other session of the caller.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.client.call(ctx, http.MethodPost, "/v1/identities/me/password", req, nil, http.StatusOK)
}
