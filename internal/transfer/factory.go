package transfer

import (
	"context"

	"github.com/spf13/afero"
	"google.golang.org/api/option"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/storage/gcp"
)

// Factory builds GCS and Drive clients from shared credentials.
type Factory struct {
	credentials    auth.Credentials
	fs             afero.Fs
	logger         logging.Interface
	storageOptions []option.ClientOption
	driveOptions   []drive.Option
}

var _ ClientFactory = (*Factory)(nil)

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithStorageOptions passes extra options to every GCS client
func WithStorageOptions(opts ...option.ClientOption) FactoryOption {
	return func(f *Factory) {
		f.storageOptions = append(f.storageOptions, opts...)
	}
}

// WithDriveOptions passes extra options to every Drive client
func WithDriveOptions(opts ...drive.Option) FactoryOption {
	return func(f *Factory) {
		f.driveOptions = append(f.driveOptions, opts...)
	}
}

// NewFactory creates a Factory
func NewFactory(credentials auth.Credentials, fs afero.Fs, logger logging.Interface, opts ...FactoryOption) *Factory {
	f := &Factory{
		credentials: credentials,
		fs:          fs,
		logger:      logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// New creates clients owned by a single transfer
func (f *Factory) New(ctx context.Context) (*Clients, error) {
	source, err := gcp.New(ctx, f.credentials, f.fs, f.logger, f.storageOptions...)
	if err != nil {
		return nil, err
	}

	driveOpts := append([]drive.Option{drive.WithLogger(f.logger)}, f.driveOptions...)
	client, err := drive.New(ctx, auth.NewHTTPClient(f.credentials), driveOpts...)
	if err != nil {
		_ = source.Close()
		return nil, err
	}

	return &Clients{
		Source:      source,
		Destination: &driveDestination{client: client},
	}, nil
}

// driveDestination adapts *drive.Client to Destination
type driveDestination struct {
	client *drive.Client
}

func (d *driveDestination) OpenSession(ctx context.Context, name, folderID string, totalSize int64) (UploadSession, error) {
	session, err := d.client.OpenSession(ctx, name, folderID, totalSize)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (d *driveDestination) Checksums(ctx context.Context, fileID string) (*drive.Checksums, error) {
	return d.client.Checksums(ctx, fileID)
}
