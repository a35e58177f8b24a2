package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion_LinkerValue(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.4.0"
	assert.Equal(t, "v1.4.0", GetVersion())
	assert.True(t, IsRelease())
}

func TestGetShortVersion(t *testing.T) {
	oldV, oldC := Version, GitCommit
	defer func() { Version, GitCommit = oldV, oldC }()

	Version = "v1.4.0"
	GitCommit = "0123456789abcdef"
	assert.Equal(t, "v1.4.0 (0123456)", GetShortVersion())

	GitCommit = "abc"
	assert.Equal(t, "v1.4.0", GetShortVersion())
}

func TestParseBuildTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T10:20:30Z", time.Date(2026, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"2026-03-01 10:20:30", time.Date(2026, 3, 1, 10, 20, 30, 0, time.UTC)},
		{"unknown", time.Time{}},
		{"", time.Time{}},
		{"yesterday", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, tt.want.Equal(parseBuildTime(tt.in)))
		})
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
