// Package drive talks to the Google Drive v3 API: resumable uploads over raw HTTP and
// file metadata through the generated client.
package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pkg/errors"
	drivev3 "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sgl-project/gcs2drive/pkg/logging"
)

// DefaultUploadURL is the media upload endpoint of Drive v3
const DefaultUploadURL = "https://www.googleapis.com/upload/drive/v3/files"

// Client opens resumable sessions and reads file checksums.
type Client struct {
	httpClient *http.Client
	service    *drivev3.Service
	uploadURL  string
	logger     logging.Interface
}

type clientOptions struct {
	uploadURL      string
	logger         logging.Interface
	serviceOptions []option.ClientOption
}

// Option configures a Client
type Option func(*clientOptions)

// WithUploadURL overrides DefaultUploadURL
func WithUploadURL(uploadURL string) Option {
	return func(o *clientOptions) {
		o.uploadURL = uploadURL
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Interface) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithServiceOptions passes extra options to the generated Drive service, e.g. an endpoint.
func WithServiceOptions(opts ...option.ClientOption) Option {
	return func(o *clientOptions) {
		o.serviceOptions = append(o.serviceOptions, opts...)
	}
}

// New creates a Client. httpClient must already authenticate its requests.
func New(ctx context.Context, httpClient *http.Client, opts ...Option) (*Client, error) {
	o := clientOptions{uploadURL: DefaultUploadURL}
	for _, opt := range opts {
		opt(&o)
	}

	// A 308 from a resumable session is a progress report, never a redirect to follow.
	noRedirect := *httpClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	serviceOpts := append([]option.ClientOption{option.WithHTTPClient(&noRedirect)}, o.serviceOptions...)
	service, err := drivev3.NewService(ctx, serviceOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Drive service")
	}

	return &Client{
		httpClient: &noRedirect,
		service:    service,
		uploadURL:  o.uploadURL,
		logger:     logging.OrNop(o.logger),
	}, nil
}

// OpenSession starts a resumable upload of totalSize bytes named name inside folderID.
func (c *Client) OpenSession(ctx context.Context, name, folderID string, totalSize int64) (*Session, error) {
	u, err := url.Parse(c.uploadURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid upload URL %q", c.uploadURL)
	}
	q := u.Query()
	q.Set("uploadType", "resumable")
	q.Set("supportsAllDrives", "true")
	u.RawQuery = q.Encode()

	body, err := json.Marshal(fileMetadata{Name: name, Parents: []string{folderID}})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode file metadata")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build session request")
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(totalSize, 10))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open resumable session")
	}
	defer func() { _ = resp.Body.Close() }()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, errors.Wrap(err, "failed to open resumable session")
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, errors.WithStack(ErrNoSessionURL)
	}

	c.logger.
		WithField("name", name).
		WithField("folder", folderID).
		WithField("size", totalSize).
		Debug("Opened resumable upload session")

	return &Session{
		client:    c,
		url:       location,
		totalSize: totalSize,
	}, nil
}

// Checksums reads the MD5, SHA-1 and SHA-256 Drive computed for fileID
func (c *Client) Checksums(ctx context.Context, fileID string) (*Checksums, error) {
	file, err := c.service.Files.Get(fileID).
		SupportsAllDrives(true).
		Fields("md5Checksum", "sha1Checksum", "sha256Checksum").
		Context(ctx).
		Do()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get metadata of file %s", fileID)
	}

	return &Checksums{
		MD5:    file.Md5Checksum,
		SHA1:   file.Sha1Checksum,
		SHA256: file.Sha256Checksum,
	}, nil
}
