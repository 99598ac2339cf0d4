package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
)

// StatusResumeIncomplete is what Drive answers while a session still expects bytes
const StatusResumeIncomplete = http.StatusPermanentRedirect

var rangeHeader = regexp.MustCompile(`^bytes=([0-9]+)-([0-9]+)$`)

// Session is one resumable upload. Ranges must be uploaded in increasing order.
type Session struct {
	client    *Client
	url       string
	totalSize int64
}

// URL returns the opaque session URL Drive handed out
func (s *Session) URL() string {
	return s.url
}

// TotalSize returns the size declared when the session was opened
func (s *Session) TotalSize() int64 {
	return s.totalSize
}

// UploadRange sends bytes [start, end] read from body.
func (s *Session) UploadRange(ctx context.Context, body io.Reader, start, end int64) (Outcome, error) {
	if start < 0 || end < start || end >= s.totalSize {
		return Outcome{}, errors.Errorf("invalid range %d-%d for %d bytes", start, end, s.totalSize)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, body)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to build upload request")
	}
	req.ContentLength = end - start + 1
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, s.totalSize))

	return s.do(req, end+1)
}

// Finalize asks Drive to complete the session without sending bytes.
// This is how a zero byte upload is committed.
func (s *Session) Finalize(ctx context.Context) (Outcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.url, http.NoBody)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "failed to build finalize request")
	}
	req.ContentLength = 0
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", s.totalSize))

	return s.do(req, s.totalSize)
}

// do sends req and maps the response to an Outcome. want is the number of
// bytes Drive must hold once the request succeeded.
func (s *Session) do(req *http.Request, want int64) (Outcome, error) {
	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return Outcome{}, errors.Wrapf(err, "failed to upload %s", req.Header.Get("Content-Range"))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == StatusResumeIncomplete {
		persisted, err := persistedBytes(resp.Header.Get("Range"))
		if err != nil {
			return Outcome{}, err
		}
		if persisted < want {
			return Outcome{}, errors.Wrapf(ErrIncompletePersist, "persisted %d of %d bytes", persisted, want)
		}

		s.client.logger.
			WithField("persisted", persisted).
			WithField("total", s.totalSize).
			Debug("Upload incomplete")

		return Outcome{State: Incomplete, Persisted: persisted}, nil
	}

	if err := googleapi.CheckResponse(resp); err != nil {
		return Outcome{}, errors.Wrapf(err, "failed to upload %s", req.Header.Get("Content-Range"))
	}

	var file File
	if err := json.NewDecoder(resp.Body).Decode(&file); err != nil {
		return Outcome{}, errors.Wrap(err, "failed to decode uploaded file")
	}
	if file.ID == "" {
		return Outcome{}, errors.WithStack(ErrMissingFileID)
	}

	s.client.logger.
		WithField("file_id", file.ID).
		WithField("total", s.totalSize).
		Debug("Upload complete")

	return Outcome{State: Complete, Persisted: s.totalSize, File: &file}, nil
}

// persistedBytes turns "bytes=0-x" into x+1. No header means nothing was persisted.
func persistedBytes(header string) (int64, error) {
	if header == "" {
		return 0, nil
	}
	groups := rangeHeader.FindStringSubmatch(header)
	if groups == nil {
		return 0, errors.Errorf("malformed Range header %q", header)
	}
	last, err := strconv.ParseInt(groups[2], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed Range header %q", header)
	}
	return last + 1, nil
}
