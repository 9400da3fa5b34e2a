package config

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMSection(t *testing.T) {
	section := NewLLMSection()
	assert.Equal(t, SectionIDLLM, section.ID())
	assert.Equal(t, "LLM Settings", section.Title())
	assert.NotEmpty(t, section.Description())
	assert.Equal(t, defaultMaxInputTokens, section.GetMaxInputTokens())
	assert.Empty(t, section.GetModel())
}

func TestLLMSection_Data(t *testing.T) {
	section := NewLLMSection()
	section.SetModel("local-model")
	section.SetBaseURL("http://localhost:11434/v1")

	assert.Equal(t, map[string]any{
		"model":            "local-model",
		"base_url":         "http://localhost:11434/v1",
		"api_key":          "",
		"max_input_tokens": defaultMaxInputTokens,
	}, section.Data())
}

func TestLLMSection_SetData(t *testing.T) {
	tests := []struct {
		name       string
		data       map[string]any
		wantModel  string
		wantURL    string
		wantTokens int
		wantErr    bool
	}{
		{
			name: "full data",
			data: map[string]any{
				"model":            "gpt-4o",
				"base_url":         "https://custom.api.com",
				"api_key":          "sk-custom",
				"max_input_tokens": float64(512),
			},
			wantModel:  "gpt-4o",
			wantURL:    "https://custom.api.com",
			wantTokens: 512,
		},
		{
			name:       "partial data keeps defaults",
			data:       map[string]any{"model": "claude-3"},
			wantModel:  "claude-3",
			wantTokens: defaultMaxInputTokens,
		},
		{
			name:       "nil data",
			wantTokens: defaultMaxInputTokens,
		},
		{
			name:    "fractional token limit",
			data:    map[string]any{"max_input_tokens": 1.5},
			wantErr: true,
		},
		{
			name:    "token limit of wrong type",
			data:    map[string]any{"max_input_tokens": "many"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewLLMSection()
			err := section.SetData(tt.data)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, section.GetModel())
			assert.Equal(t, tt.wantURL, section.GetBaseURL())
			assert.Equal(t, tt.wantTokens, section.GetMaxInputTokens())
		})
	}
}

func TestLLMSection_Validate(t *testing.T) {
	section := NewLLMSection()
	assert.NoError(t, section.Validate())

	section.MaxInputTokens = 0
	assert.NoError(t, section.Validate(), "zero disables the limit")

	section.MaxInputTokens = -1
	assert.Error(t, section.Validate())
}

func TestLLMSection_Reset(t *testing.T) {
	section := NewLLMSection()
	require.NoError(t, section.SetData(map[string]any{
		"model":            "custom-model",
		"base_url":         "https://custom.api.com",
		"api_key":          "sk-custom",
		"max_input_tokens": 10,
	}))

	section.Reset()

	assert.Empty(t, section.GetModel())
	assert.Empty(t, section.GetBaseURL())
	assert.Empty(t, section.GetAPIKey())
	assert.Equal(t, defaultMaxInputTokens, section.GetMaxInputTokens())
}

func TestLLMSection_ThreadSafety(t *testing.T) {
	section := NewLLMSection()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			section.SetModel("model")
			_ = section.GetModel()
			section.SetAPIKey("key")
			_ = section.Data()
		}()
	}
	wg.Wait()
}

func TestLLMSection_IntegrationWithManager(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	manager := NewManager(store)
	section := NewLLMSection()
	require.NoError(t, manager.RegisterSection(section))

	section.SetModel("gpt-4o")
	section.SetAPIKey("sk-test")
	require.NoError(t, manager.SaveAll())

	newStore, err := NewFileStore(path)
	require.NoError(t, err)
	newSection := NewLLMSection()
	newManager := NewManager(newStore)
	require.NoError(t, newManager.RegisterSection(newSection))
	require.NoError(t, newManager.LoadAll())

	assert.Equal(t, "gpt-4o", newSection.GetModel())
	assert.Equal(t, "sk-test", newSection.GetAPIKey())
	assert.Equal(t, defaultMaxInputTokens, newSection.GetMaxInputTokens())
}
