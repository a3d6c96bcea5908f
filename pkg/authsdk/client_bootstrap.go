package authsdk

import (
	"context"
	"net/http"
)

// Bootstrap creates the first admin identity. It only succeeds on an empty
// service and requires the operator's bootstrap token.
func (c *SDKClient) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (*IdentityResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/v1/bootstrap", req, map[string]string{
		BootstrapTokenHeader: token,
	})
	if err != nil {
		return nil, err
	}

	var out IdentityResponse
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}
