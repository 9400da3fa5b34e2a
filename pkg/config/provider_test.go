package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MONOMIND_API_KEY", "OPENAI_API_KEY",
		"MONOMIND_BASE_URL", "OPENAI_BASE_URL",
		"MONOMIND_MODEL",
	} {
		t.Setenv(key, "")
	}
}

func TestResolveLLM(t *testing.T) {
	fileSection := func() *LLMSection {
		s := NewLLMSection()
		s.SetModel("file-model")
		s.SetBaseURL("https://file.url")
		s.SetAPIKey("file-key")
		return s
	}

	tests := []struct {
		name    string
		flags   LLMOptions
		env     map[string]string
		section *LLMSection
		want    LLMOptions
		wantErr error
	}{
		{
			name:  "flags only",
			flags: LLMOptions{Model: "cli-model", BaseURL: "https://cli.url", APIKey: "cli-key"},
			want:  LLMOptions{Model: "cli-model", BaseURL: "https://cli.url", APIKey: "cli-key"},
		},
		{
			name:    "config file only",
			section: fileSection(),
			want:    LLMOptions{Model: "file-model", BaseURL: "https://file.url", APIKey: "file-key"},
		},
		{
			name:    "flags override config file",
			flags:   LLMOptions{Model: "cli-model", APIKey: "cli-key"},
			section: fileSection(),
			want:    LLMOptions{Model: "cli-model", BaseURL: "https://file.url", APIKey: "cli-key"},
		},
		{
			name:    "environment overrides config file",
			env:     map[string]string{"OPENAI_API_KEY": "env-key", "MONOMIND_MODEL": "env-model"},
			section: fileSection(),
			want:    LLMOptions{Model: "env-model", BaseURL: "https://file.url", APIKey: "env-key"},
		},
		{
			name: "monomind variables win over openai ones",
			env: map[string]string{
				"MONOMIND_API_KEY":  "mm-key",
				"OPENAI_API_KEY":    "oa-key",
				"MONOMIND_BASE_URL": "https://mm.url",
				"OPENAI_BASE_URL":   "https://oa.url",
			},
			want: LLMOptions{Model: DefaultModel, BaseURL: "https://mm.url", APIKey: "mm-key"},
		},
		{
			name:    "missing key",
			flags:   LLMOptions{Model: "cli-model"},
			wantErr: ErrMissingAPIKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearLLMEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := ResolveLLM(tt.flags, tt.section)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Cleanup(resetGlobal)

	store := NewMemoryStore()
	require.NoError(t, store.SetSection(SectionIDLLM, map[string]interface{}{
		"model":    "file-model",
		"base_url": "https://file.url/v1/",
		"api_key":  "file-key",
	}))
	require.NoError(t, InitializeWith(store))

	provider, err := BuildProvider(LLMOptions{})
	require.NoError(t, err)
	assert.Equal(t, "file-model", provider.GetModel())
	assert.Equal(t, "https://file.url/v1", provider.GetBaseURL())

	provider, err = BuildProvider(LLMOptions{Model: "cli-model"})
	require.NoError(t, err)
	assert.Equal(t, "cli-model", provider.GetModel())
}

func TestBuildProvider_WithoutGlobalConfig(t *testing.T) {
	clearLLMEnv(t)
	resetGlobal()

	_, err := BuildProvider(LLMOptions{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	provider, err := BuildProvider(LLMOptions{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, provider.GetModel())
}

func TestInitialize_FileConfigFeedsProvider(t *testing.T) {
	clearLLMEnv(t)
	t.Cleanup(resetGlobal)

	path := filepath.Join(t.TempDir(), "config.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.SetSection(SectionIDLLM, map[string]interface{}{"api_key": "disk-key"}))
	require.NoError(t, store.Save())

	require.NoError(t, Initialize(path))
	assert.Equal(t, "disk-key", GetLLM().GetAPIKey())

	_, err = BuildProvider(LLMOptions{})
	assert.NoError(t, err)
}
