// Package version contains build version information.
// Values other than Version are set at build time via -ldflags "-X ...".
package version

var (
	// Version is the released application version.
	Version = "0.1.0"
	// GitCommit is the git commit hash.
	GitCommit = "unknown"
	// BuildDate is the build date.
	BuildDate = "unknown"
)

// Info returns the build information as reported by /version.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"commit":     GitCommit,
		"build_date": BuildDate,
	}
}
