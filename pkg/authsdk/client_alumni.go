package authsdk

import (
	"context"
	"net/http"
)

// RequestAlumniStatus asks the board to validate the caller as alumni.
func (s *Session) RequestAlumniStatus(ctx context.Context) error {
	return s.client.call(ctx, http.MethodPost, "/v1/alumni/request", nil, nil, http.StatusOK)
}

func (s *Session) PendingAlumni(ctx context.Context) (*PendingAlumniResponse, error) {
	var out PendingAlumniResponse
	if err := s.client.call(ctx, http.MethodGet, "/v1/alumni/pending", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ValidateAlumni(ctx context.Context, req AlumniValidateRequest) error {
	return s.client.call(ctx, http.MethodPost, "/v1/alumni/validate", req, nil, http.StatusOK)
}
