package drive

import (
	"github.com/pkg/errors"
)

var (
	// ErrNoSessionURL is returned when the session response carries no Location header.
	ErrNoSessionURL = errors.New("drive: resumable session response has no Location header")

	// ErrIncompletePersist is returned when Drive acknowledged fewer bytes than were sent.
	ErrIncompletePersist = errors.New("drive: fewer bytes persisted than sent")

	// ErrMissingFileID is returned when a completed upload does not name the created file.
	ErrMissingFileID = errors.New("drive: completed upload has no file id")
)

// State is the result of one range upload
type State int

const (
	// Incomplete means Drive answered 308 and expects more bytes.
	Incomplete State = iota
	// Complete means Drive created the file.
	Complete
)

func (s State) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// File is the Drive file created by a completed upload
type File struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
}

// Outcome of a range upload. Persisted is meaningful for both states,
// File only for Complete.
type Outcome struct {
	State     State
	Persisted int64
	File      *File
}

// Checksums are the content hashes Drive computed for a file, hex encoded
type Checksums struct {
	MD5    string
	SHA1   string
	SHA256 string
}

type fileMetadata struct {
	Name    string   `json:"name"`
	Parents []string `json:"parents,omitempty"`
}
