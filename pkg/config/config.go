package config

import (
	"sync"
)

var (
	// globalManager is the process-wide configuration manager
	globalManager *Manager
	globalMu      sync.Mutex
)

// Initialize loads the JSON config at configPath (or the default location
// when empty) and installs it as the global manager.
func Initialize(configPath string) error {
	store, err := NewFileStore(configPath)
	if err != nil {
		return err
	}
	return InitializeWith(store)
}

// InitializeWith installs a manager over an arbitrary store with the tone and
// llm sections registered and loaded.
func InitializeWith(store Store) error {
	manager, err := NewDefaultManager(store)
	if err != nil {
		return err
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = manager
	return nil
}

// NewDefaultManager builds a manager with every MonoMind section registered
// and loads store into them.
func NewDefaultManager(store Store) (*Manager, error) {
	manager := NewManager(store)

	if err := manager.RegisterSection(NewToneSection()); err != nil {
		return nil, err
	}
	if err := manager.RegisterSection(NewLLMSection()); err != nil {
		return nil, err
	}

	if err := manager.LoadAll(); err != nil {
		return nil, err
	}
	return manager, nil
}

// Global returns the global configuration manager.
// Panics if Initialize has not been called.
func Global() *Manager {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalManager == nil {
		panic("config not initialized: call config.Initialize first")
	}

	return globalManager
}

// IsInitialized returns true if the global configuration has been initialized.
func IsInitialized() bool {
	globalMu.Lock()
	defer globalMu.Unlock()
	return globalManager != nil
}

// GetTone returns the tone section from global config.
// Returns nil if config is not initialized.
func GetTone() *ToneSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDTone)
	if !ok {
		return nil
	}
	tone, _ := section.(*ToneSection)
	return tone
}

// GetLLM returns the LLM settings section from global config.
// Returns nil if config is not initialized.
func GetLLM() *LLMSection {
	if !IsInitialized() {
		return nil
	}
	section, ok := Global().GetSection(SectionIDLLM)
	if !ok {
		return nil
	}
	llm, _ := section.(*LLMSection)
	return llm
}

func resetGlobal() {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = nil
}
