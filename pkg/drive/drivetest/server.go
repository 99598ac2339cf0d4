// Package drivetest provides an in-process fake of the Drive v3 resumable upload
// and files.get endpoints.
package drivetest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
)

var contentRange = regexp.MustCompile(`^bytes (?:([0-9]+)-([0-9]+)|\*)/([0-9]+)$`)

// StoredFile is a file created by a completed upload
type StoredFile struct {
	ID       string
	Name     string
	Parents  []string
	MimeType string
	Data     []byte
}

type upload struct {
	name     string
	parents  []string
	total    int64
	received []byte
	fileID   string
}

// Server is a fake Drive. The exported knobs must be set before requests are made.
type Server struct {
	*httptest.Server

	// OpenStatus, when non-zero, is returned by the session POST instead of a session.
	OpenStatus int
	// OmitLocation drops the Location header from the session response.
	OmitLocation bool
	// PersistShortfall is subtracted from the persisted byte count reported with 308.
	PersistShortfall int64
	// FailPutAt, when non-zero, makes the n-th PUT (1-based) answer FailPutStatus.
	FailPutAt     int
	FailPutStatus int
	// MD5Override replaces the MD5 reported by files.get when set.
	MD5Override *string

	mu       sync.Mutex
	uploads  map[string]*upload
	files    map[string]*StoredFile
	requests []string
	puts     int
	nextID   int
}

// NewServer starts a fake Drive
func NewServer() *Server {
	s := &Server{
		uploads: make(map[string]*upload),
		files:   make(map[string]*StoredFile),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /upload/drive/v3/files", s.openSession)
	mux.HandleFunc("PUT /upload/drive/v3/files", s.putRange)
	mux.HandleFunc("GET /drive/v3/files/{id}", s.getFile)
	s.Server = httptest.NewServer(mux)
	return s
}

// UploadURL is the resumable upload endpoint of the fake
func (s *Server) UploadURL() string {
	return s.URL + "/upload/drive/v3/files"
}

// Endpoint is the base path of the generated Drive client
func (s *Server) Endpoint() string {
	return s.URL + "/drive/v3/"
}

// Requests lists the requests seen so far, e.g. "POST session 1000" or "PUT bytes 0-399/1000"
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Files returns the files created so far
func (s *Server) Files() []*StoredFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]*StoredFile, 0, len(s.files))
	for _, f := range s.files {
		files = append(files, f)
	}
	return files
}

// File returns a created file by id
func (s *Server) File(id string) (*StoredFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	return f, ok
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, err := strconv.ParseInt(r.Header.Get("X-Upload-Content-Length"), 10, 64)
	s.requests = append(s.requests, fmt.Sprintf("POST session %d", total))
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing X-Upload-Content-Length")
		return
	}
	if r.URL.Query().Get("uploadType") != "resumable" || r.URL.Query().Get("supportsAllDrives") != "true" {
		writeError(w, http.StatusBadRequest, "unexpected query "+r.URL.RawQuery)
		return
	}
	if s.OpenStatus != 0 {
		writeError(w, s.OpenStatus, "session rejected")
		return
	}

	var meta struct {
		Name    string   `json:"name"`
		Parents []string `json:"parents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&meta); err != nil {
		writeError(w, http.StatusBadRequest, "invalid metadata")
		return
	}

	s.nextID++
	id := fmt.Sprintf("upload-%d", s.nextID)
	s.uploads[id] = &upload{name: meta.Name, parents: meta.Parents, total: total}

	if !s.OmitLocation {
		w.Header().Set("Location", s.UploadURL()+"?uploadType=resumable&upload_id="+id)
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) putRange(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := r.Header.Get("Content-Range")
	s.requests = append(s.requests, "PUT "+header)
	s.puts++

	u, ok := s.uploads[r.URL.Query().Get("upload_id")]
	if !ok {
		writeError(w, http.StatusNotFound, "no such upload")
		return
	}
	if s.FailPutAt != 0 && s.puts == s.FailPutAt {
		writeError(w, s.FailPutStatus, "injected failure")
		return
	}

	groups := contentRange.FindStringSubmatch(header)
	if groups == nil {
		writeError(w, http.StatusBadRequest, "malformed Content-Range "+header)
		return
	}
	total, _ := strconv.ParseInt(groups[3], 10, 64)
	if total != u.total {
		writeError(w, http.StatusBadRequest, "total size changed")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if groups[1] != "" {
		start, _ := strconv.ParseInt(groups[1], 10, 64)
		end, _ := strconv.ParseInt(groups[2], 10, 64)
		if start != int64(len(u.received)) || end-start+1 != int64(len(body)) {
			writeError(w, http.StatusBadRequest, "range does not continue the upload")
			return
		}
		u.received = append(u.received, body...)
	}

	if int64(len(u.received)) < u.total {
		persisted := int64(len(u.received)) - s.PersistShortfall
		if persisted > 0 {
			w.Header().Set("Range", fmt.Sprintf("bytes=0-%d", persisted-1))
		}
		w.WriteHeader(http.StatusPermanentRedirect)
		return
	}

	if u.fileID == "" {
		s.nextID++
		u.fileID = fmt.Sprintf("file-%d", s.nextID)
		s.files[u.fileID] = &StoredFile{
			ID:       u.fileID,
			Name:     u.name,
			Parents:  u.parents,
			MimeType: "application/octet-stream",
			Data:     u.received,
		}
	}
	f := s.files[u.fileID]
	writeJSON(w, http.StatusOK, map[string]string{"id": f.ID, "name": f.Name, "mimeType": f.MimeType})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := r.PathValue("id")
	s.requests = append(s.requests, "GET "+id)

	f, ok := s.files[id]
	if !ok {
		writeError(w, http.StatusNotFound, "File not found: "+id)
		return
	}
	if r.URL.Query().Get("supportsAllDrives") != "true" {
		writeError(w, http.StatusBadRequest, "supportsAllDrives is required")
		return
	}

	md5sum := md5.Sum(f.Data)
	sha1sum := sha1.Sum(f.Data)
	sha256sum := sha256.Sum256(f.Data)
	md5hex := hex.EncodeToString(md5sum[:])
	if s.MD5Override != nil {
		md5hex = *s.MD5Override
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"md5Checksum":    md5hex,
		"sha1Checksum":   hex.EncodeToString(sha1sum[:]),
		"sha256Checksum": hex.EncodeToString(sha256sum[:]),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    status,
			"message": message,
		},
	})
}
