package server

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/sgl-project/gcs2drive/internal/transfer"
	"github.com/sgl-project/gcs2drive/pkg/auth"
	authgcp "github.com/sgl-project/gcs2drive/pkg/auth/gcp"
	"github.com/sgl-project/gcs2drive/pkg/drive"
	"github.com/sgl-project/gcs2drive/pkg/drive/drivetest"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/storage"
	gdtesting "github.com/sgl-project/gcs2drive/pkg/testing"
)

type fakeTransferrer struct {
	requests []transfer.Request
	result   *transfer.Result
	err      error
}

func (f *fakeTransferrer) Transfer(_ context.Context, req transfer.Request) (*transfer.Result, error) {
	f.requests = append(f.requests, req)
	return f.result, f.err
}

type failingCheck struct{}

func (failingCheck) Name() string                { return "always-failing" }
func (failingCheck) Check(_ *http.Request) error { return errors.New("disk gone") }

// memorySource serves a single object from memory
type memorySource struct {
	fs      afero.Fs
	data    []byte
	missing bool
	deleted int
}

func (m *memorySource) Stat(_ context.Context, uri storage.ObjectURI) (*storage.ObjectDescriptor, error) {
	if m.missing {
		return nil, storage.NewError("stat", uri.String(), storage.ErrNotFound)
	}
	sum := md5.Sum(m.data)
	return &storage.ObjectDescriptor{Name: uri.ObjectName, Size: int64(len(m.data)), MD5: sum[:]}, nil
}

func (m *memorySource) DownloadRange(_ context.Context, _ storage.ObjectURI, target string, start, end int64) error {
	return afero.WriteFile(m.fs, target, m.data[start:end+1], 0o600)
}

func (m *memorySource) Delete(_ context.Context, _ storage.ObjectURI) error {
	m.deleted++
	return nil
}

func (m *memorySource) Close() error { return nil }

// memorySourceFactory pairs a real Drive client with an in-memory source
type memorySourceFactory struct {
	source  *memorySource
	factory *transfer.Factory
}

func (f *memorySourceFactory) New(ctx context.Context) (*transfer.Clients, error) {
	clients, err := f.factory.New(ctx)
	if err != nil {
		return nil, err
	}
	_ = clients.Source.Close()
	clients.Source = f.source
	return clients, nil
}

func newTestServer(transferrer Transferrer, checks ...HealthChecker) *Server {
	config, err := NewConfig(WithAnotherLog(logging.NewTestLogger()))
	Expect(err).NotTo(HaveOccurred())
	return NewServer(config, transferrer, prometheus.NewRegistry(), nil, checks...)
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

var _ = Describe("Server", func() {
	var (
		transferrer *fakeTransferrer
		server      *Server
	)

	BeforeEach(func() {
		transferrer = &fakeTransferrer{
			result: &transfer.Result{Status: transfer.StatusTransferred, DriveID: "drive-1"},
		}
		server = newTestServer(transferrer)
	})

	Context("when parameters are missing", func() {
		It("rejects a request without bucket", func() {
			rec := serve(server, httptest.NewRequest(http.MethodGet, "/?filename=a.txt", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(Equal("Bucket is missing"))
			Expect(transferrer.requests).To(BeEmpty())
		})

		It("rejects a request without file name", func() {
			rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(Equal("File name is missing"))
			Expect(transferrer.requests).To(BeEmpty())
		})

		It("checks the bucket first", func() {
			rec := serve(server, httptest.NewRequest(http.MethodPost, "/", nil))

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(rec.Body.String()).To(Equal("Bucket is missing"))
		})

		It("rejects a malformed JSON body", func() {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
			req.Header.Set("Content-Type", "application/json")

			rec := serve(server, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(transferrer.requests).To(BeEmpty())
		})
	})

	Context("when parameters are present", func() {
		expected := transfer.Request{Bucket: "b", Object: "dir/a.txt"}

		It("reads the query string", func() {
			rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=dir%2Fa.txt", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(transferrer.requests).To(ConsistOf(expected))

			var result transfer.Result
			Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
			Expect(result).To(Equal(transfer.Result{Status: transfer.StatusTransferred, DriveID: "drive-1"}))
		})

		It("reads a JSON body", func() {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"bucket":"b","filename":"dir/a.txt"}`))
			req.Header.Set("Content-Type", "application/json")

			rec := serve(server, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(transferrer.requests).To(ConsistOf(expected))
		})

		It("reads a form body", func() {
			form := url.Values{"bucket": {"b"}, "filename": {"dir/a.txt"}}
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := serve(server, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(transferrer.requests).To(ConsistOf(expected))
		})

		It("falls back to the query string for values missing from the body", func() {
			req := httptest.NewRequest(http.MethodPost, "/?filename=dir%2Fa.txt", strings.NewReader(`{"bucket":"b"}`))
			req.Header.Set("Content-Type", "application/json")

			rec := serve(server, req)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(transferrer.requests).To(ConsistOf(expected))
		})

		It("reports a checksum mismatch as a successful response", func() {
			transferrer.result = &transfer.Result{Status: transfer.StatusChecksumMismatch, DriveID: "drive-2"}

			rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=a", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(MatchJSON(`{"status":"checksum_mismatch","drive_id":"drive-2"}`))
		})

		It("returns the transfer error as plain text", func() {
			transferrer.result = nil
			transferrer.err = errors.New("failed to stat gs://b/a: object not found")

			rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=a", nil))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(Equal("failed to stat gs://b/a: object not found"))
		})
	})

	Context("health and metrics", func() {
		It("reports ok when every check passes", func() {
			server = newTestServer(transferrer, NewScratchHealthCheck(GinkgoT().TempDir()))

			rec := serve(server, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(Equal("ok"))
		})

		It("names the failing check", func() {
			server = newTestServer(transferrer, failingCheck{})

			rec := serve(server, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(rec.Body.String()).To(ContainSubstring("always-failing failed: disk gone"))
		})

		It("exposes the transfer metrics", func() {
			registry := prometheus.NewRegistry()
			metrics := transfer.NewMetrics(registry)
			metrics.RecordTransfer(string(transfer.StatusTransferred), 0)

			config, err := NewConfig()
			Expect(err).NotTo(HaveOccurred())
			server = NewServer(config, transferrer, registry, nil)

			rec := serve(server, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Body.String()).To(ContainSubstring(`gcs2drive_transfers_total{status="transferred"} 1`))
		})
	})
})

var _ = Describe("Server with the fake Drive", func() {
	var (
		drv         *drivetest.Server
		source      *memorySource
		transferrer *transfer.Transferrer
		server      *Server
		data        []byte
	)

	BeforeEach(func() {
		drv = drivetest.NewServer()
		DeferCleanup(drv.Close)

		fs := afero.NewMemMapFs()
		data = make([]byte, 2*transfer.ChunkGranularity+10)
		for i := range data {
			data[i] = byte(i % 253)
		}
		source = &memorySource{fs: fs, data: data}

		creds := authgcp.NewCredentials(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
			auth.ApplicationDefault, "test-project", nil)
		factory := transfer.NewFactory(creds, fs, logging.NewTestLogger(),
			transfer.WithDriveOptions(
				drive.WithUploadURL(drv.UploadURL()),
				drive.WithServiceOptions(option.WithEndpoint(drv.Endpoint())),
			),
		)

		config, err := transfer.NewConfig(
			transfer.WithDriveFolder("folder-1"),
			transfer.WithChunkSize(transfer.ChunkGranularity),
			transfer.WithScratchDir("/scratch"),
			transfer.WithMove(true),
			transfer.WithAnotherLog(logging.NewTestLogger()),
		)
		Expect(err).NotTo(HaveOccurred())

		transferrer = transfer.NewTransferrer(config, &memorySourceFactory{source: source, factory: factory},
			fs, transfer.NewMetrics(prometheus.NewRegistry()))
		server = newTestServer(transferrer)
	})

	It("copies the object in three ranges and deletes the source", func() {
		rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=exports/a.bin", nil))
		Expect(rec.Code).To(Equal(http.StatusOK), rec.Body.String())

		var result transfer.Result
		Expect(json.Unmarshal(rec.Body.Bytes(), &result)).To(Succeed())
		Expect(result.Status).To(Equal(transfer.StatusTransferred))

		stored, ok := drv.File(result.DriveID)
		Expect(ok).To(BeTrue())
		Expect(stored.Name).To(Equal("exports/a.bin"))
		Expect(stored.Data).To(Equal(data))
		Expect(source.deleted).To(Equal(1))
	})

	It("keeps the source on a checksum mismatch", func() {
		bogus := "00000000000000000000000000000000"
		drv.MD5Override = &bogus

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=a.bin", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"checksum_mismatch"`))
		Expect(source.deleted).To(BeZero())
	})

	It("surfaces Drive failures as 500", func() {
		drv.FailPutAt = 2
		drv.FailPutStatus = http.StatusServiceUnavailable

		rec := serve(server, httptest.NewRequest(http.MethodGet, "/?bucket=b&filename=a.bin", nil))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(drv.Files()).To(BeEmpty())
		Expect(source.deleted).To(BeZero())
	})

	It("classifies a missing source object", func() {
		source.missing = true

		_, err := transferrer.Transfer(context.Background(), transfer.Request{Bucket: "b", Object: "a.bin"})
		Expect(err).To(gdtesting.BeNotFoundError())
		Expect(drv.Requests()).To(BeEmpty())
	})

	It("classifies a short persist reported by Drive", func() {
		drv.PersistShortfall = 1

		_, err := transferrer.Transfer(context.Background(), transfer.Request{Bucket: "b", Object: "a.bin"})
		Expect(err).To(gdtesting.BeIncompletePersistError())
		Expect(source.deleted).To(BeZero())
	})
})
