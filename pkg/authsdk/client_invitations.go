package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// ValidateInvitation checks a token without consuming it.
func (c *SDKClient) ValidateInvitation(ctx context.Context, token string) (*ValidateInvitationResponse, error) {
	var out ValidateInvitationResponse
	path := "/v1/invitations/validate?token=" + url.QueryEscape(token)
	if err := c.call(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register consumes an invitation and creates the identity.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*IdentityResponse, error) {
	var out IdentityResponse
	if err := c.call(ctx, http.MethodPost, "/v1/register", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateInvitation requires manage_invitations.
func (s *Session) CreateInvitation(ctx context.Context, req CreateInvitationRequest) (*CreateInvitationResponse, error) {
	var out CreateInvitationResponse
	if err := s.client.call(ctx, http.MethodPost, "/v1/invitations", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListInvitations returns the caller's pending invitations, or every pending
// invitation for board and admin.
func (s *Session) ListInvitations(ctx context.Context) (*ListInvitationsResponse, error) {
	var out ListInvitationsResponse
	if err := s.client.call(ctx, http.MethodGet, "/v1/invitations", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) DeleteInvitation(ctx context.Context, id string) error {
	return s.client.call(ctx, http.MethodDelete, "/v1/invitations/"+url.PathEscape(id), nil, nil, http.StatusOK)
}
