// pantry/version/version.go
package version

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/dalemusser/formguard/httputil"
	"github.com/go-chi/chi/v5"
)

// Set with -ldflags "-X github.com/dalemusser/formguard/pantry/version.Version=1.0.0".
// Commit and BuildTime fall back to the VCS stamp embedded by the toolchain.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info is the /version response body.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// Get returns the build information of the running binary.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		fillFromBuildInfo(&info, bi.Settings)
	}
	return info
}

func fillFromBuildInfo(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
}

// Mount serves Get as JSON at GET /version.
func Mount(r chi.Router) {
	info := Get()
	r.Method(http.MethodGet, "/version", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, info)
	}))
}

// String returns "dev" or "1.2.3 (abc123, built 2024-01-15T10:30:00Z)".
func String() string {
	info := Get()
	if info.Version == "dev" {
		return "dev"
	}
	return info.Version + " (" + info.Commit + ", built " + info.BuildTime + ")"
}
