package config

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// SectionIDTone is the identifier for the tone settings section
	SectionIDTone = "tone"

	BackendDictionary = "dictionary"
	BackendLLM        = "llm"

	defaultBackend     = BackendDictionary
	defaultLevel       = "medium"
	defaultConcurrency = 3
	defaultBatchSize   = 15
	defaultTimeout     = 20 * time.Second
)

// ToneSettings is a point-in-time copy of the tone section.
type ToneSettings struct {
	Backend         string
	StyleDirective  string
	Level           string
	Concurrency     int
	BatchSize       int
	Timeout         time.Duration
	MaxAttempts     int
	ExcludeTags     []string
	ExcludePatterns []string
}

// ToneSection manages how pages are softened.
type ToneSection struct {
	settings ToneSettings
	mu       sync.RWMutex
}

func defaultToneSettings() ToneSettings {
	return ToneSettings{
		Backend:     defaultBackend,
		Level:       defaultLevel,
		Concurrency: defaultConcurrency,
		BatchSize:   defaultBatchSize,
		Timeout:     defaultTimeout,
	}
}

// NewToneSection creates a new tone section with default settings.
func NewToneSection() *ToneSection {
	return &ToneSection{settings: defaultToneSettings()}
}

// ID returns the section identifier.
func (s *ToneSection) ID() string {
	return SectionIDTone
}

// Title returns the section title.
func (s *ToneSection) Title() string {
	return "Tone Settings"
}

// Description returns the section description.
func (s *ToneSection) Description() string {
	return "Choose the rewrite backend, style directive, softening level and how many rewrite calls run at once."
}

// Data returns the current configuration data.
func (s *ToneSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"backend":          s.settings.Backend,
		"style_directive":  s.settings.StyleDirective,
		"level":            s.settings.Level,
		"concurrency":      s.settings.Concurrency,
		"batch_size":       s.settings.BatchSize,
		"timeout":          s.settings.Timeout.String(),
		"max_attempts":     s.settings.MaxAttempts,
		"exclude_tags":     toAnySlice(s.settings.ExcludeTags),
		"exclude_patterns": toAnySlice(s.settings.ExcludePatterns),
	}
}

// SetData updates the configuration from the provided data.
func (s *ToneSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	for key, value := range data {
		var err error
		switch key {
		case "backend":
			next.Backend, err = asString(key, value)
		case "style_directive":
			next.StyleDirective, err = asString(key, value)
		case "level":
			next.Level, err = asString(key, value)
		case "concurrency":
			next.Concurrency, err = asInt(key, value)
		case "batch_size":
			next.BatchSize, err = asInt(key, value)
		case "max_attempts":
			next.MaxAttempts, err = asInt(key, value)
		case "timeout":
			next.Timeout, err = asDuration(key, value)
		case "exclude_tags":
			next.ExcludeTags, err = asStrings(key, value)
		case "exclude_patterns":
			next.ExcludePatterns, err = asStrings(key, value)
		default:
			// Ignore unknown keys for forward compatibility
			continue
		}
		if err != nil {
			return err
		}
	}

	s.settings = next
	return nil
}

// Validate validates the current configuration.
func (s *ToneSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.settings.Backend {
	case BackendDictionary, BackendLLM:
	default:
		return fmt.Errorf("backend must be %q or %q, got %q", BackendDictionary, BackendLLM, s.settings.Backend)
	}
	switch s.settings.Level {
	case "soft", "medium", "max":
	default:
		return fmt.Errorf("level must be soft, medium or max, got %q", s.settings.Level)
	}
	if s.settings.Concurrency < 1 || s.settings.Concurrency > 32 {
		return fmt.Errorf("concurrency must be between 1 and 32, got %d", s.settings.Concurrency)
	}
	if s.settings.BatchSize < 1 {
		return fmt.Errorf("batch_size must be positive, got %d", s.settings.BatchSize)
	}
	if s.settings.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", s.settings.Timeout)
	}
	if s.settings.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must not be negative, got %d", s.settings.MaxAttempts)
	}
	return nil
}

// Reset resets the section to default configuration.
func (s *ToneSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = defaultToneSettings()
}

// Settings returns a copy of the current settings.
func (s *ToneSection) Settings() ToneSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.settings
	out.ExcludeTags = append([]string(nil), s.settings.ExcludeTags...)
	out.ExcludePatterns = append([]string(nil), s.settings.ExcludePatterns...)
	return out
}

// SetBackend sets the rewrite backend.
func (s *ToneSection) SetBackend(backend string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Backend = backend
}

// SetLevel sets the softening level.
func (s *ToneSection) SetLevel(level string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Level = level
}

func asString(key string, value any) (string, error) {
	v, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
	}
	return strings.TrimSpace(v), nil
}

func asInt(key string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		// JSON numbers come as float64
		if v != float64(int(v)) {
			return 0, fmt.Errorf("invalid value for %s: %v is not a whole number", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected number, got %T", key, value)
	}
}

func asDuration(key string, value any) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case float64:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	case int:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}

func asStrings(key string, value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid item type in %s: expected string, got %T", key, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid value type for %s: expected list, got %T", key, value)
	}
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
