// Package version carries build metadata set through -ldflags -X.
package version

var (
	// Version is the release tag.
	Version = "v1.0.0"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// UserAgent is sent on every outbound request.
func UserAgent() string {
	return "chouftv/" + Version
}
