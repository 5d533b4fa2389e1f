// Package buildinfo carries version stamps injected at link time, e.g.
// -ldflags "-X routeplan/internal/buildinfo.Version=v1.2.3".
package buildinfo

var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

// Info returns the stamps for the debug and docs endpoints.
func Info() map[string]string {
    return map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}
