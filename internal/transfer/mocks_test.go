package transfer

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/storage"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) Stat(ctx context.Context, uri storage.ObjectURI) (*storage.ObjectDescriptor, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.ObjectDescriptor), args.Error(1)
}

func (m *MockSource) DownloadRange(ctx context.Context, uri storage.ObjectURI, target string, start, end int64) error {
	args := m.Called(ctx, uri, target, start, end)
	return args.Error(0)
}

func (m *MockSource) Delete(ctx context.Context, uri storage.ObjectURI) error {
	args := m.Called(ctx, uri)
	return args.Error(0)
}

func (m *MockSource) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockDestination struct {
	mock.Mock
}

func (m *MockDestination) OpenSession(ctx context.Context, name, folderID string, totalSize int64) (UploadSession, error) {
	args := m.Called(ctx, name, folderID, totalSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(UploadSession), args.Error(1)
}

func (m *MockDestination) Checksums(ctx context.Context, fileID string) (*drive.Checksums, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*drive.Checksums), args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) UploadRange(ctx context.Context, body io.Reader, start, end int64) (drive.Outcome, error) {
	args := m.Called(ctx, body, start, end)
	return args.Get(0).(drive.Outcome), args.Error(1)
}

func (m *MockSession) Finalize(ctx context.Context) (drive.Outcome, error) {
	args := m.Called(ctx)
	return args.Get(0).(drive.Outcome), args.Error(1)
}

type MockClientFactory struct {
	mock.Mock
}

func (m *MockClientFactory) New(ctx context.Context) (*Clients, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Clients), args.Error(1)
}
