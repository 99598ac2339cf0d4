package gcp

import (
	"context"
	"fmt"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"github.com/spf13/afero"
	"google.golang.org/api/option"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	authgcp "github.com/sgl-project/gcs2drive/pkg/auth/gcp"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	pkgstorage "github.com/sgl-project/gcs2drive/pkg/storage"
)

// GCSStorage implements storage.Object for Google Cloud Storage.
// Ranged downloads are written through fs.
type GCSStorage struct {
	client objectClient
	fs     afero.Fs
	logger logging.Interface
}

var _ pkgstorage.Object = (*GCSStorage)(nil)

// New creates a GCS client authenticated with credentials. Extra client options are
// appended after the token source, so tests can point the client at a fake endpoint.
func New(ctx context.Context, credentials auth.Credentials, fs afero.Fs, logger logging.Interface, opts ...option.ClientOption) (*GCSStorage, error) {
	var clientOpts []option.ClientOption
	if credentials != nil {
		clientOpts = append(clientOpts, authgcp.ClientOption(credentials))
	}
	clientOpts = append(clientOpts, opts...)

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return newWithClient(sdkClient{client}, fs, logger), nil
}

func newWithClient(client objectClient, fs afero.Fs, logger logging.Interface) *GCSStorage {
	return &GCSStorage{
		client: client,
		fs:     fs,
		logger: logging.OrNop(logger),
	}
}

// Stat reads size, MD5, CRC32C and generation of the object
func (s *GCSStorage) Stat(ctx context.Context, uri pkgstorage.ObjectURI) (*pkgstorage.ObjectDescriptor, error) {
	attrs, err := s.client.Bucket(uri.BucketName).Object(uri.ObjectName).Attrs(ctx)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, pkgstorage.NewError("stat", uri.String(), fmt.Errorf("%w: %v", pkgstorage.ErrNotFound, err))
		}
		return nil, pkgstorage.NewError("stat", uri.String(), err)
	}

	descriptor := &pkgstorage.ObjectDescriptor{
		Name:        attrs.Name,
		Size:        attrs.Size,
		MD5:         attrs.MD5,
		CRC32C:      attrs.CRC32C,
		Generation:  attrs.Generation,
		ContentType: attrs.ContentType,
	}

	s.logger.
		WithField("object", uri.String()).
		WithField("size", attrs.Size).
		WithField("generation", attrs.Generation).
		Debug("Read object metadata")

	return descriptor, nil
}

// DownloadRange copies bytes [start, end] of the object into target
func (s *GCSStorage) DownloadRange(ctx context.Context, uri pkgstorage.ObjectURI, target string, start, end int64) error {
	if start < 0 || end < start {
		return pkgstorage.NewError("download", uri.String(),
			fmt.Errorf("%w: bytes %d-%d", pkgstorage.ErrInvalidRange, start, end))
	}
	length := end - start + 1

	reader, err := s.client.Bucket(uri.BucketName).Object(uri.ObjectName).NewRangeReader(ctx, start, length)
	if err != nil {
		if isNotFoundErr(err) {
			err = fmt.Errorf("%w: %v", pkgstorage.ErrNotFound, err)
		}
		return pkgstorage.NewError("download", uri.String(), err)
	}
	defer func() { _ = reader.Close() }()

	file, err := s.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create scratch file %s: %w", target, err)
	}

	written, err := io.Copy(file, reader)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close scratch file %s: %w", target, closeErr)
	}
	if err != nil {
		return pkgstorage.NewError("download", uri.String(), err)
	}
	if written != length {
		return pkgstorage.NewError("download", uri.String(),
			fmt.Errorf("%w: got %d of %d bytes", pkgstorage.ErrPartialContent, written, length))
	}

	s.logger.
		WithField("target", target).
		WithField("bytes", written).
		Debugf("Downloaded bytes %d-%d of %s", start, end, uri.String())

	return nil
}

// Delete removes the object
func (s *GCSStorage) Delete(ctx context.Context, uri pkgstorage.ObjectURI) error {
	if err := s.client.Bucket(uri.BucketName).Object(uri.ObjectName).Delete(ctx); err != nil {
		if isNotFoundErr(err) {
			err = fmt.Errorf("%w: %v", pkgstorage.ErrNotFound, err)
		}
		return pkgstorage.NewError("delete", uri.String(), err)
	}
	return nil
}

// Close closes the GCS client
func (s *GCSStorage) Close() error {
	return s.client.Close()
}
