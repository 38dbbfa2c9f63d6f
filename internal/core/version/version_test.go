package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"bare", Info{Version: "dev", Platform: "linux/amd64"}, "igget vdev linux/amd64"},
		{"commit", Info{Version: "1.2.0", Commit: "abc123", Platform: "darwin/arm64"}, "igget v1.2.0 (abc123) darwin/arm64"},
		{"commit and date", Info{Version: "1.2.0", Commit: "abc123", Date: "2025-01-02T03:04:05Z", Platform: "linux/amd64"},
			"igget v1.2.0 (abc123, 2025-01-02T03:04:05Z) linux/amd64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestFillFromSettings(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
		{Key: "vcs.modified", Value: "true"},
	}

	var i Info
	i.fillFromSettings(settings)
	assert.Equal(t, "0123456789ab-dirty", i.Commit)
	assert.Equal(t, "2025-01-02T03:04:05Z", i.Date)

	// ldflags values win over the VCS stamp
	i = Info{Commit: "release1", Date: "today"}
	i.fillFromSettings(settings)
	assert.Equal(t, "release1-dirty", i.Commit)
	assert.Equal(t, "today", i.Date)
}
