// Package version provides centralized version information for EasyServer.
package version

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X easyserver/internal/version.Version=1.0.0 -X easyserver/internal/version.Commit=abc123"
var (
	// Version is the semantic version of EasyServer
	Version = "0.2.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// ServerName is the product token sent in the Server header
const ServerName = "EasyServer"

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	return ServerName + " version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}

// ServerHeader returns the Server response header value
func ServerHeader() string {
	return ServerName + "/" + Version
}
