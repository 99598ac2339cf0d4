package gcp

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	"github.com/sgl-project/gcs2drive/pkg/logging"
)

// Credentials implements auth.Credentials on top of an oauth2 token source.
type Credentials struct {
	tokenSource oauth2.TokenSource
	authType    auth.AuthType
	projectID   string
	logger      logging.Interface
}

var _ auth.Credentials = (*Credentials)(nil)

// NewCredentials wraps an existing token source. The source is reused so tokens
// are only refreshed when they expire.
func NewCredentials(ts oauth2.TokenSource, authType auth.AuthType, projectID string, logger logging.Interface) *Credentials {
	return &Credentials{
		tokenSource: oauth2.ReuseTokenSource(nil, ts),
		authType:    authType,
		projectID:   projectID,
		logger:      logging.OrNop(logger),
	}
}

// Type returns the authentication type
func (c *Credentials) Type() auth.AuthType {
	return c.authType
}

// Token retrieves the access token
func (c *Credentials) Token(ctx context.Context) (string, error) {
	token, err := c.tokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	return token.AccessToken, nil
}

// SignRequest sets the Authorization header of req
func (c *Credentials) SignRequest(ctx context.Context, req *http.Request) error {
	token, err := c.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	token.SetAuthHeader(req)
	return nil
}

// TokenSource returns the underlying token source
func (c *Credentials) TokenSource() oauth2.TokenSource {
	return c.tokenSource
}

// ProjectID returns the GCP project ID
func (c *Credentials) ProjectID() string {
	return c.projectID
}

// ClientOption returns a client option for use with Google API clients
func ClientOption(creds auth.Credentials) option.ClientOption {
	return option.WithTokenSource(creds.TokenSource())
}

// ServiceAccountConfig is the subset of a service-account key file that is validated before use
type ServiceAccountConfig struct {
	Type        string `json:"type"`
	ProjectID   string `json:"project_id"`
	PrivateKey  string `json:"private_key"`
	ClientEmail string `json:"client_email"`
}

// Validate validates the service account configuration
func (c *ServiceAccountConfig) Validate() error {
	if c.Type != "service_account" {
		return fmt.Errorf("invalid service account type: %q", c.Type)
	}
	if c.PrivateKey == "" {
		return fmt.Errorf("private_key is required")
	}
	if c.ClientEmail == "" {
		return fmt.Errorf("client_email is required")
	}
	return nil
}
