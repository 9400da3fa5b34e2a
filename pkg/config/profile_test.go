package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadProfile(t *testing.T) {
	path := writeProfile(t, `
input: page.html
output: page.soft.html
tone:
  backend: llm
  level: max
  concurrency: 5
  timeout: 45s
  exclude_tags: [nav, footer]
llm:
  model: local-model
  max_input_tokens: 1024
`)

	profile, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, "page.html", profile.Input)
	assert.Equal(t, "page.soft.html", profile.Output)
	assert.Equal(t, path, profile.Path)

	m, err := NewDefaultManager(NewMemoryStore())
	require.NoError(t, err)
	require.NoError(t, profile.Apply(m))

	section, _ := m.GetSection(SectionIDTone)
	settings := section.(*ToneSection).Settings()
	assert.Equal(t, BackendLLM, settings.Backend)
	assert.Equal(t, "max", settings.Level)
	assert.Equal(t, 5, settings.Concurrency)
	assert.Equal(t, 45*time.Second, settings.Timeout)
	assert.Equal(t, []string{"nav", "footer"}, settings.ExcludeTags)
	assert.Equal(t, 15, settings.BatchSize, "unset keys keep their values")

	section, _ = m.GetSection(SectionIDLLM)
	llm := section.(*LLMSection)
	assert.Equal(t, "local-model", llm.GetModel())
	assert.Equal(t, 1024, llm.GetMaxInputTokens())
}

func TestLoadProfile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := LoadProfile(writeProfile(t, "tone: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("input and url together", func(t *testing.T) {
		_, err := LoadProfile(writeProfile(t, "input: a.html\nurl: https://example.com\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})
}

func TestProfile_Apply(t *testing.T) {
	t.Run("invalid value is reported", func(t *testing.T) {
		m, err := NewDefaultManager(NewMemoryStore())
		require.NoError(t, err)

		p := &Profile{Tone: map[string]any{"level": "gentle"}}
		err = p.Apply(m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "level")
	})

	t.Run("empty profile changes nothing", func(t *testing.T) {
		m, err := NewDefaultManager(NewMemoryStore())
		require.NoError(t, err)

		require.NoError(t, (&Profile{}).Apply(m))
		section, _ := m.GetSection(SectionIDTone)
		assert.Equal(t, defaultToneSettings(), section.(*ToneSection).Settings())
	})

	t.Run("section not registered", func(t *testing.T) {
		m := NewManager(NewMemoryStore())
		err := (&Profile{LLM: map[string]any{"model": "x"}}).Apply(m)
		assert.Error(t, err)
	})
}
