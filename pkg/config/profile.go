package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is a YAML run description for the CLI. Its section maps overlay
// the persisted config for one run and are never saved.
//
//	input: page.html
//	output: page.soft.html
//	tone:
//	  backend: llm
//	  level: max
//	  exclude_tags: [nav, footer]
//	llm:
//	  model: gpt-4o-mini
type Profile struct {
	Input  string `yaml:"input"`
	URL    string `yaml:"url"`
	Output string `yaml:"output"`

	Tone map[string]any `yaml:"tone"`
	LLM  map[string]any `yaml:"llm"`

	// Path is the file the profile was read from.
	Path string `yaml:"-"`
}

// LoadProfile reads and validates a YAML profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	profile := &Profile{}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	profile.Path = path

	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate checks fields that do not belong to a section.
func (p *Profile) Validate() error {
	if p.Input != "" && p.URL != "" {
		return fmt.Errorf("input and url are mutually exclusive")
	}
	return nil
}

// Apply overlays the profile's section maps onto the manager's sections and
// validates the result.
func (p *Profile) Apply(m *Manager) error {
	overlays := map[string]map[string]any{
		SectionIDTone: p.Tone,
		SectionIDLLM:  p.LLM,
	}

	for id, data := range overlays {
		if len(data) == 0 {
			continue
		}
		section, ok := m.GetSection(id)
		if !ok {
			return fmt.Errorf("profile sets %q but no such section is registered", id)
		}
		if err := section.SetData(data); err != nil {
			return fmt.Errorf("profile section %s: %w", id, err)
		}
		if err := section.Validate(); err != nil {
			return fmt.Errorf("profile section %s: %w", id, err)
		}
	}
	return nil
}
