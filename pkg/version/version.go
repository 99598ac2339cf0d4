// Package version carries build information stamped in by the linker:
//
//	-ldflags "-X github.com/sgl-project/gcs2drive/pkg/version.GitVersion=v1.2.0 -X ...GitCommit=abc123"
package version

import "fmt"

var (
	GitVersion = "unknown"
	GitCommit  = "unknown"
)

// String formats the build information for --version
func String() string {
	return fmt.Sprintf("gitVersion=%s, gitCommit=%s", GitVersion, GitCommit)
}
