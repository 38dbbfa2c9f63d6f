package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set at build time with
// -ldflags "-X github.com/guiyumin/igget/internal/core/version.Version=..."
// Commit and Date fall back to the VCS stamp go build embeds.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

// Info describes the running binary
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Get returns the build information of the running binary
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fillFromSettings(bi.Settings)
	}
	return info
}

func (i *Info) fillFromSettings(settings []debug.BuildSetting) {
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if i.Commit == "" {
				i.Commit = s.Value
			}
		case "vcs.time":
			if i.Date == "" {
				i.Date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(i.Commit) > 12 {
		i.Commit = i.Commit[:12]
	}
	if dirty && i.Commit != "" {
		i.Commit += "-dirty"
	}
}

// String renders one line such as "igget v1.2.0 (abc123def456, 2025-01-02T03:04:05Z) linux/amd64"
func (i Info) String() string {
	s := "igget v" + i.Version
	switch {
	case i.Commit != "" && i.Date != "":
		s += fmt.Sprintf(" (%s, %s)", i.Commit, i.Date)
	case i.Commit != "":
		s += fmt.Sprintf(" (%s)", i.Commit)
	}
	return s + " " + i.Platform
}
