// internal/common/auth/session.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SessionProvider answers the single question the search core cares about:
// is the call carrying this token authorized. Everything else about identity
// lives outside this service.
type SessionProvider interface {
	Authorized(ctx context.Context, token string) bool
}

// IntrospectClient validates tokens against an external identity provider's
// introspection endpoint.
type IntrospectClient struct {
	introspectURL string
	httpClient    *http.Client
}

type introspectResponse struct {
	Active bool `json:"active"`
}

// NewIntrospectClient creates a new instance of IntrospectClient.
func NewIntrospectClient(introspectURL string, timeout time.Duration) *IntrospectClient {
	return &IntrospectClient{
		introspectURL: strings.TrimSuffix(introspectURL, "/"),
		httpClient:    &http.Client{Timeout: timeout},
	}
}

// Authorized checks the token with the identity provider. Any transport or
// decode failure counts as unauthorized; this boundary never errors out.
func (c *IntrospectClient) Authorized(ctx context.Context, token string) bool {
	if token == "" {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.introspectURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	res, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return false
	}

	var body introspectResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return false
	}
	return body.Active
}

// AllowAll is the SessionProvider used when authentication is disabled.
type AllowAll struct{}

func (AllowAll) Authorized(context.Context, string) bool { return true }
