package auth

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// AuthType represents the type of authentication mechanism
type AuthType string

const (
	// ServiceAccount reads a service-account key file.
	ServiceAccount AuthType = "ServiceAccount"
	// ApplicationDefault resolves credentials from the environment (GOOGLE_APPLICATION_CREDENTIALS,
	// gcloud config or the metadata server).
	ApplicationDefault AuthType = "ApplicationDefault"
)

const (
	// DriveScope grants read/write access to Drive files, including shared drives.
	DriveScope = "https://www.googleapis.com/auth/drive"
	// StorageScope grants full control over Cloud Storage objects, deletes included.
	StorageScope = "https://www.googleapis.com/auth/devstorage.full_control"
)

// DefaultScopes are requested when the configuration does not list any.
var DefaultScopes = []string{DriveScope, StorageScope}

// Credentials represents authentication credentials
type Credentials interface {
	// Type returns the authentication type
	Type() AuthType

	// Token returns an access token
	Token(ctx context.Context) (string, error)

	// SignRequest signs an HTTP request with appropriate auth headers
	SignRequest(ctx context.Context, req *http.Request) error

	// TokenSource returns the shared token source. It is safe for concurrent use.
	TokenSource() oauth2.TokenSource

	// ProjectID returns the project the credentials belong to, if known.
	ProjectID() string
}

// Config represents the configuration for authentication
type Config struct {
	// KeyFile is the service-account key file. Empty means application default credentials.
	KeyFile string   `mapstructure:"secret_file"`
	Scopes  []string `mapstructure:"scopes"`
}

// AuthType derives the mechanism from the configured fields.
func (c Config) AuthType() AuthType {
	if c.KeyFile != "" {
		return ServiceAccount
	}
	return ApplicationDefault
}

// ScopesOrDefault returns the configured scopes, falling back to DefaultScopes.
func (c Config) ScopesOrDefault() []string {
	if len(c.Scopes) == 0 {
		return DefaultScopes
	}
	return c.Scopes
}

// Factory creates credentials
type Factory interface {
	Create(ctx context.Context, config Config) (Credentials, error)
}

// HTTPTransport wraps http.RoundTripper with authentication
type HTTPTransport struct {
	Base        http.RoundTripper
	Credentials Credentials
}

// RoundTrip implements http.RoundTripper
func (t *HTTPTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	// The original request must not be modified
	r := req.Clone(req.Context())
	if err := t.Credentials.SignRequest(req.Context(), r); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	return base.RoundTrip(r)
}

// NewHTTPClient returns a client whose requests are signed by creds.
func NewHTTPClient(creds Credentials) *http.Client {
	return &http.Client{Transport: &HTTPTransport{Credentials: creds}}
}
