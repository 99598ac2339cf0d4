package server

import (
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sys/unix"
)

// HealthChecker is a named readiness probe
type HealthChecker interface {
	Name() string
	Check(req *http.Request) error
}

type ScratchHealthCheck struct {
	scratchDir string
}

func NewScratchHealthCheck(scratchDir string) ScratchHealthCheck {
	if scratchDir == "" {
		scratchDir = os.TempDir()
	}
	return ScratchHealthCheck{
		scratchDir: scratchDir,
	}
}

func (h ScratchHealthCheck) Name() string {
	return "scratch-dir"
}

func (h ScratchHealthCheck) Check(_ *http.Request) error {
	dirInfo, err := os.Stat(h.scratchDir)
	if err != nil {
		return err
	}

	if !dirInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", h.scratchDir)
	}

	// chunks are downloaded here, so the directory must be writable
	return unix.Access(h.scratchDir, unix.W_OK)
}
