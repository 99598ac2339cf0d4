package gcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"golang.org/x/oauth2/google"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	"github.com/sgl-project/gcs2drive/pkg/logging"
)

// Factory creates GCP credentials
type Factory struct {
	fs     afero.Fs
	logger logging.Interface

	// findDefault is swapped in tests, the real one probes the environment and metadata server.
	findDefault func(ctx context.Context, scopes ...string) (*google.Credentials, error)
}

var _ auth.Factory = (*Factory)(nil)

// NewFactory creates a new GCP auth factory. Key files are read from fs.
func NewFactory(fs afero.Fs, logger logging.Interface) *Factory {
	return &Factory{
		fs:          fs,
		logger:      logging.OrNop(logger),
		findDefault: google.FindDefaultCredentials,
	}
}

// Create creates GCP credentials based on config
func (f *Factory) Create(ctx context.Context, config auth.Config) (auth.Credentials, error) {
	var (
		creds *google.Credentials
		err   error
	)

	scopes := config.ScopesOrDefault()
	switch config.AuthType() {
	case auth.ServiceAccount:
		creds, err = f.createServiceAccountCredentials(ctx, config.KeyFile, scopes)
	default:
		creds, err = f.findDefault(ctx, scopes...)
		if err != nil {
			err = fmt.Errorf("failed to find default credentials: %w", err)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP credentials: %w", err)
	}

	f.logger.
		WithField("auth_type", config.AuthType()).
		WithField("project_id", creds.ProjectID).
		Debug("Created GCP credentials")

	return NewCredentials(creds.TokenSource, config.AuthType(), creds.ProjectID, f.logger), nil
}

func (f *Factory) createServiceAccountCredentials(ctx context.Context, keyFile string, scopes []string) (*google.Credentials, error) {
	data, err := afero.ReadFile(f.fs, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("service account key file %s is empty", keyFile)
	}

	var saConfig ServiceAccountConfig
	if err := json.Unmarshal(data, &saConfig); err != nil {
		return nil, fmt.Errorf("failed to parse service account key file: %w", err)
	}
	if err := saConfig.Validate(); err != nil {
		return nil, err
	}

	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create credentials from JSON: %w", err)
	}
	return creds, nil
}
