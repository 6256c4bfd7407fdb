// Package version carries build identification, stamped at link time:
//
//	go build -ldflags "-X github.com/banshee-data/dwell.report/internal/version.Version=v1.2.3"
package version

var (
	Version   = "dev"
	GitSHA    = "unknown"
	BuildTime = "unknown"
)
