package version

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	origVersion, origCommit, origTime := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = origVersion, origCommit, origTime }()

	Version = "v1.4.0"
	GitCommit = "0123456789abcdef"
	BuildTime = "2024-05-01T10:00:00Z"

	info := GetBuildInfo()
	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), info.BuildTime)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.True(t, info.Release)
	assert.Equal(t, "v1.4.0 (0123456)", GetShortVersion())
}

func TestShortVersion(t *testing.T) {
	tests := []struct {
		version, commit, expected string
	}{
		{"v1.0.0", "abcdef0123", "v1.0.0 (abcdef0)"},
		{"dev", "abcdef0123", "dev-abcdef0"},
		{"dev-abcdef0", "abcdef0123", "dev-abcdef0"},
		{"v1.0.0", "unknown", "v1.0.0"},
		{"v1.0.0", "abc", "v1.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, shortVersion(tt.version, tt.commit))
		})
	}
}

func TestParseBuildTime(t *testing.T) {
	assert.True(t, parseBuildTime("").IsZero())
	assert.True(t, parseBuildTime("unknown").IsZero())
	assert.True(t, parseBuildTime("yesterday").IsZero())
	assert.Equal(t, 2024, parseBuildTime("2024-01-02 03:04:05").Year())
	assert.Equal(t, time.Month(1), parseBuildTime("2024-01-02T03:04:05").Month())
}
