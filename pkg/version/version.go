// Package version holds build metadata set with -ldflags -X.
package version

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func Full() string {
	return Version + " (" + Commit + ") built on " + Date
}

// Attrs returns the build metadata as slog key/value pairs.
func Attrs() []any {
	return []any{"version", Version, "commit", Commit, "built", Date}
}
