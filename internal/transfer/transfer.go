package transfer

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/afero"

	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/scratch"
	"github.com/sgl-project/gcs2drive/pkg/storage"
)

const mb = 1024 * 1024

var (
	// ErrProtocol is returned when Drive's answers contradict the chunk plan.
	ErrProtocol = errors.New("transfer: unexpected upload state")

	// ErrMissingChecksum is returned when Drive reports no MD5 for the uploaded file.
	ErrMissingChecksum = errors.New("transfer: destination reported no md5 checksum")
)

// Status is the verified outcome of a transfer
type Status string

const (
	StatusTransferred      Status = "transferred"
	StatusChecksumMismatch Status = "checksum_mismatch"
)

// Request names the object to copy
type Request struct {
	Bucket string `json:"bucket" form:"bucket"`
	Object string `json:"filename" form:"filename"`
}

// Result is returned to the caller once the upload is complete
type Result struct {
	Status  Status `json:"status"`
	DriveID string `json:"drive_id"`
}

// UploadSession is one resumable upload
type UploadSession interface {
	UploadRange(ctx context.Context, body io.Reader, start, end int64) (drive.Outcome, error)
	Finalize(ctx context.Context) (drive.Outcome, error)
}

// Destination opens upload sessions and reads back checksums
type Destination interface {
	OpenSession(ctx context.Context, name, folderID string, totalSize int64) (UploadSession, error)
	Checksums(ctx context.Context, fileID string) (*drive.Checksums, error)
}

// Clients are the collaborators of a single transfer
type Clients struct {
	Source      storage.Object
	Destination Destination
}

// Close releases the clients
func (c *Clients) Close() error {
	if c.Source == nil {
		return nil
	}
	return c.Source.Close()
}

// ClientFactory builds fresh clients for every transfer
type ClientFactory interface {
	New(ctx context.Context) (*Clients, error)
}

// Transferrer copies one object from GCS to Drive per call.
type Transferrer struct {
	config  *Config
	factory ClientFactory
	fs      afero.Fs
	metrics *Metrics
	logger  logging.Interface
}

// NewTransferrer creates a Transferrer. Scratch files are written to fs.
func NewTransferrer(config *Config, factory ClientFactory, fs afero.Fs, metrics *Metrics) *Transferrer {
	return &Transferrer{
		config:  config,
		factory: factory,
		fs:      fs,
		metrics: metrics,
		logger:  logging.OrNop(config.AnotherLogger),
	}
}

// Transfer copies the requested object into the configured Drive folder and verifies it.
// Transfer errors abort immediately, nothing is retried.
func (t *Transferrer) Transfer(ctx context.Context, req Request) (*Result, error) {
	begin := time.Now()

	uri, err := storage.NewObjectURI(req.Bucket, req.Object)
	if err != nil {
		return nil, err
	}
	logger := t.logger.WithField("object", uri.String())

	result, err := t.transfer(ctx, uri, logger)

	status := statusFailed
	if err == nil {
		status = string(result.Status)
	}
	if t.metrics != nil {
		t.metrics.RecordTransfer(status, time.Since(begin))
	}

	if err != nil {
		logger.WithError(err).Error("Transfer failed")
		return nil, err
	}
	logger.
		WithField("drive_id", result.DriveID).
		WithField("status", result.Status).
		Infof("Transfer finished in %s", time.Since(begin).Round(time.Millisecond))
	return result, nil
}

func (t *Transferrer) transfer(ctx context.Context, uri storage.ObjectURI, logger logging.Interface) (*Result, error) {
	clients, err := t.factory.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create clients: %w", err)
	}
	defer func() {
		if err := clients.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close clients")
		}
	}()

	descriptor, err := clients.Source.Stat(ctx, uri)
	if err != nil {
		return nil, err
	}

	plan, err := NewPlan(descriptor.Size, t.config.ChunkSize)
	if err != nil {
		return nil, err
	}
	logger.Infof("Object size %.2f MB, %d chunk(s) of %.2f MB",
		float64(descriptor.Size)/mb, plan.Count, float64(plan.ChunkSize)/mb)

	area, err := scratch.New(t.fs, t.config.ScratchDir, logger)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := area.Sweep(); err != nil {
			logger.WithError(err).Warn("Scratch directory was not fully cleaned up")
		}
	}()

	session, err := clients.Destination.OpenSession(ctx, uri.ObjectName, t.config.DriveFolder, descriptor.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload session: %w", err)
	}

	file, err := t.upload(ctx, clients.Source, session, area, uri, plan, logger)
	if err != nil {
		return nil, err
	}

	status, err := t.verify(ctx, clients.Destination, descriptor, file.ID, logger)
	if err != nil {
		return nil, err
	}

	if status == StatusTransferred && t.config.Move {
		if err := clients.Source.Delete(ctx, uri); err != nil {
			return nil, fmt.Errorf("transferred to Drive file %s but failed to delete the source: %w", file.ID, err)
		}
		logger.Info("Deleted source object")
	}

	return &Result{Status: status, DriveID: file.ID}, nil
}

// upload relays every chunk and returns the file created by the final one.
func (t *Transferrer) upload(ctx context.Context, source storage.Object, session UploadSession,
	area *scratch.Area, uri storage.ObjectURI, plan Plan, logger logging.Interface) (*drive.File, error) {
	var (
		outcome drive.Outcome
		err     error
	)

	if plan.Count == 0 {
		logger.Info("Empty object, finalizing upload")
		if outcome, err = session.Finalize(ctx); err != nil {
			return nil, fmt.Errorf("failed to finalize empty upload: %w", err)
		}
	}

	for _, chunk := range plan.Chunks() {
		if outcome, err = t.uploadChunk(ctx, source, session, area, uri, plan, chunk, logger); err != nil {
			return nil, err
		}

		switch {
		case chunk.Last && outcome.State != drive.Complete:
			return nil, fmt.Errorf("%w: upload still %s after the last chunk", ErrProtocol, outcome.State)
		case !chunk.Last && outcome.State == drive.Complete:
			return nil, fmt.Errorf("%w: upload completed at chunk %d of %d", ErrProtocol, chunk.Index+1, plan.Count)
		}
	}

	if outcome.State != drive.Complete || outcome.File == nil || outcome.File.ID == "" {
		return nil, fmt.Errorf("%w: no file id after the upload", ErrProtocol)
	}
	return outcome.File, nil
}

func (t *Transferrer) uploadChunk(ctx context.Context, source storage.Object, session UploadSession,
	area *scratch.Area, uri storage.ObjectURI, plan Plan, chunk Chunk, logger logging.Interface) (drive.Outcome, error) {
	if chunk.Last {
		logger.Info("Process last chunk")
	} else {
		logger.Infof("Process chunk %d/%d", chunk.Index+1, plan.Count)
	}

	path := area.Path(uri.BaseName(), chunk.Index)
	defer func() { _ = area.Remove(path) }()

	if err := source.DownloadRange(ctx, uri, path, chunk.Start, chunk.End); err != nil {
		return drive.Outcome{}, fmt.Errorf("failed to download chunk %d: %w", chunk.Index, err)
	}
	if size, err := area.Size(path); err == nil {
		logger.Debugf("Chunk %d downloaded to %s (%.2f MB)", chunk.Index, path, float64(size)/mb)
	}

	f, err := area.Open(path)
	if err != nil {
		return drive.Outcome{}, fmt.Errorf("failed to open chunk %d: %w", chunk.Index, err)
	}
	defer func() { _ = f.Close() }()

	begin := time.Now()
	outcome, err := session.UploadRange(ctx, f, chunk.Start, chunk.End)
	if err != nil {
		return drive.Outcome{}, fmt.Errorf("failed to upload chunk %d (bytes %d-%d): %w", chunk.Index, chunk.Start, chunk.End, err)
	}
	if t.metrics != nil {
		t.metrics.RecordChunkUpload(chunk.Size(), time.Since(begin))
	}
	return outcome, nil
}

// verify compares the source MD5 with the one Drive computed.
func (t *Transferrer) verify(ctx context.Context, destination Destination, descriptor *storage.ObjectDescriptor,
	fileID string, logger logging.Interface) (Status, error) {
	sums, err := destination.Checksums(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("failed to read checksums of %s: %w", fileID, err)
	}

	logger.
		WithField("md5", sums.MD5).
		WithField("sha1", sums.SHA1).
		WithField("sha256", sums.SHA256).
		Info("Drive checksums")

	if sums.MD5 == "" {
		return "", fmt.Errorf("%w: file %s", ErrMissingChecksum, fileID)
	}
	destinationMD5, err := hex.DecodeString(sums.MD5)
	if err != nil {
		return "", fmt.Errorf("%w: md5 %q is not hex: %v", ErrProtocol, sums.MD5, err)
	}

	if !descriptor.HasMD5() {
		logger.Warn("Source object has no MD5, integrity cannot be verified")
		return StatusChecksumMismatch, nil
	}
	if !bytes.Equal(descriptor.MD5, destinationMD5) {
		logger.
			WithField("source_md5", hex.EncodeToString(descriptor.MD5)).
			Warn("Checksum mismatch")
		return StatusChecksumMismatch, nil
	}
	return StatusTransferred, nil
}
