package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfoString(t *testing.T) {
	assert.Equal(t, "1.2.0", Info{Version: "1.2.0"}.String())
	assert.Equal(t, "1.2.0 (abcdef1)", Info{Version: "1.2.0", Commit: "abcdef1234567"}.String())
	assert.Equal(t, "abc", Info{Commit: "abc"}.ShortCommit())
}

func TestGetReportsGoVersion(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
