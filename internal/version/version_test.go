package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func override(t *testing.T, v, commit string) {
	t.Helper()
	origVersion, origCommit := Version, GitCommit
	Version, GitCommit = v, commit
	t.Cleanup(func() {
		Version, GitCommit = origVersion, origCommit
	})
}

func TestShort(t *testing.T) {
	override(t, "1.2.3", "")
	assert.Equal(t, "1.2.3", Short())

	override(t, "1.2.3", "1234567890abcdef1234567890abcdef12345678")
	assert.Equal(t, "1.2.3+1234567890ab", Short())

	override(t, "1.2.3", "abc123")
	assert.Equal(t, "1.2.3+abc123", Short())
}

func TestColoredWithoutColor(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, v := range []string{"0.1.0-dev", "1.0.0", "2.0.0-alpha", "1.0.0-beta.1", "1.2.3-rc.1+build.123", "dev"} {
		override(t, v, "")
		assert.Equal(t, v, Colored(), v)
	}
}

func BenchmarkShort(b *testing.B) {
	GitCommit = "abc123def456abc"
	for i := 0; i < b.N; i++ {
		_ = Short()
	}
}
