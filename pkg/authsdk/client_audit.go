package authsdk

import (
	"context"
	"net/http"
	"strconv"
)

// RecentAudit returns up to limit audit entries, newest first. A zero limit
// uses the server default.
func (s *Session) RecentAudit(ctx context.Context, limit int) (*ListAuditResponse, error) {
	path := "/v1/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out ListAuditResponse
	if err := s.client.call(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
