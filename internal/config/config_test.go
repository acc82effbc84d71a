package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ale-uy/profilerag/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "career_profile", cfg.Collection.Name)
	assert.Equal(t, "cosine", cfg.Collection.Distance)
	assert.Equal(t, "data", cfg.Sources.DataDir)
	assert.Equal(t, []string{"CV", "projects", "repos"}, cfg.Sources.Dirs)
	assert.Equal(t, 1000, cfg.Chunking.WindowSize)
	assert.Equal(t, 200, cfg.Chunking.Overlap)
	assert.Equal(t, "localhost", cfg.Qdrant.Host)
	assert.Equal(t, 6334, cfg.Qdrant.Port)
	assert.Equal(t, "gemini", cfg.Embeddings.Provider)
	assert.Equal(t, "text-embedding-004", cfg.Embeddings.Model)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
	assert.Equal(t, 5, cfg.LLM.TopK)
	assert.Equal(t, 60*time.Second, cfg.LLM.Timeout.Duration())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profilerag.yaml")
	content := `
collection:
  name: test_profile
chunking:
  window_size: 500
  overlap: 50
qdrant:
  host: qdrant.internal
  port: 7334
embeddings:
  provider: tei
  base_url: http://tei:8080
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test_profile", cfg.Collection.Name)
	assert.Equal(t, 500, cfg.Chunking.WindowSize)
	assert.Equal(t, 50, cfg.Chunking.Overlap)
	assert.Equal(t, "qdrant.internal", cfg.Qdrant.Host)
	assert.Equal(t, 7334, cfg.Qdrant.Port)
	assert.Equal(t, "tei", cfg.Embeddings.Provider)
	// Unset fields still get defaults.
	assert.Equal(t, "cosine", cfg.Collection.Distance)
	assert.Equal(t, 100, cfg.Embeddings.BatchSize)
}

func TestLoadExplicitZeroOverlap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profilerag.yaml")
	content := `
chunking:
  window_size: 150
  overlap: 0
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	// Zero overlap with an explicit window is a valid setting and must not
	// be replaced by the default.
	assert.Equal(t, 150, cfg.Chunking.WindowSize)
	assert.Equal(t, 0, cfg.Chunking.Overlap)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "career_profile", cfg.Collection.Name)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profilerag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("qdrant:\n  host: from_file\n"), 0o644))

	t.Setenv("QDRANT_HOST", "from_env")
	t.Setenv("EMBEDDINGS_API_KEY", "secret-key")
	t.Setenv("LLM_TOP_K", "7")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from_env", cfg.Qdrant.Host)
	assert.Equal(t, "secret-key", cfg.Embeddings.APIKey.Value())
	assert.Equal(t, 7, cfg.LLM.TopK)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("collection: [unclosed"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "overlap equals window",
			yaml: "chunking:\n  window_size: 100\n  overlap: 100\n",
		},
		{
			name: "negative window",
			yaml: "chunking:\n  window_size: -5\n",
		},
		{
			name: "bad distance",
			yaml: "collection:\n  distance: manhattan\n",
		},
		{
			name: "bad port",
			yaml: "qdrant:\n  port: 99999\n",
		},
		{
			name: "negative batch size",
			yaml: "embeddings:\n  batch_size: -1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "cfg.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := config.Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSourcesPathsPreserveOrder(t *testing.T) {
	s := config.SourcesConfig{DataDir: "data", Dirs: []string{"CV", "projects", "repos"}}
	assert.Equal(t, []string{
		filepath.Join("data", "CV"),
		filepath.Join("data", "projects"),
		filepath.Join("data", "repos"),
	}, s.Paths())
}

func TestSecretRedaction(t *testing.T) {
	s := config.Secret("super-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%s", s))
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "super-secret")
	assert.Equal(t, "super-secret", s.Value())
	assert.True(t, s.IsSet())

	empty := config.Secret("")
	assert.Equal(t, "", empty.String())
	assert.False(t, empty.IsSet())
}

func TestDurationParsing(t *testing.T) {
	var d config.Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	assert.Error(t, d.UnmarshalText([]byte("-5s")))
	assert.Error(t, d.UnmarshalText([]byte("not a duration")))
}
