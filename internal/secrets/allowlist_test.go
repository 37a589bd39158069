package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ragchat/internal/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAllowlist(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		path := writeFile(t, "allow.toml", `
[allowlist]
paths = ['''fixtures/.*''']
regexes = ['''DEMO_[A-Z]+''', '''example\.com''']
`)
		a, err := LoadAllowlist(path)
		require.NoError(t, err)
		assert.Equal(t, []string{`DEMO_[A-Z]+`, `example\.com`}, a.Regexes)
		assert.True(t, a.SkipsPath("fixtures/keys.md"))
		assert.False(t, a.SkipsPath("docs/equipe.md"))
	})

	t.Run("missing file", func(t *testing.T) {
		a, err := LoadAllowlist(filepath.Join(t.TempDir(), "nope.toml"))
		require.NoError(t, err)
		assert.Empty(t, a.Regexes)
	})

	t.Run("invalid toml", func(t *testing.T) {
		_, err := LoadAllowlist(writeFile(t, "bad.toml", "[allowlist\nregexes = "))
		assert.ErrorIs(t, err, ErrInvalidTOML)
	})

	t.Run("invalid regex", func(t *testing.T) {
		_, err := LoadAllowlist(writeFile(t, "re.toml", "[allowlist]\nregexes = ['''(''']\n"))
		assert.ErrorIs(t, err, ErrInvalidRegex)
	})
}

func TestFromIngestConfig(t *testing.T) {
	path := writeFile(t, "allow.toml", "[allowlist]\nregexes = ['''EXAMPLE''']\n")

	cfg, err := FromIngestConfig(config.IngestConfig{ScrubSecrets: true, AllowlistPath: path})
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.Gitleaks)
	assert.Equal(t, []string{"EXAMPLE"}, cfg.AllowList)

	cfg, err = FromIngestConfig(config.IngestConfig{})
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}
