package contracts

import (
	"fmt"
	"runtime"
)

// Version of the release. The combined CSV layout is versioned separately
// because downstream sheets depend on its column order.
const (
	Version           = "0.3.0"
	DataFormatVersion = "v1"
)

// Set with -ldflags "-X seafoodpulse/pkg/contracts.GitCommit=..."
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// BuildString is the one-line build description printed by --version
func BuildString() string {
	return fmt.Sprintf("SeafoodPulse %s (commit %s, built %s, %s %s/%s, data format %s)",
		Version, GitCommit, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH, DataFormatVersion)
}
