// Package preferences persists the handful of flat string values the client
// keeps between runs.
package preferences

import (
	"maps"
	"sync"
)

const (
	KeyOnboardingComplete = "onboardingComplete"
	KeyUserName           = "userName"
	KeySelectedLanguage   = "selectedLanguage"
	KeyGreeted            = "greeted"

	DefaultLanguage = "en-US"
	// True is the stored form of a set boolean flag. Unset flags are absent.
	True = "true"
)

// Store is a flat key/value store. Get reports whether the key is present.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Memory keeps preferences for the lifetime of the process only.
type Memory struct {
	values map[string]string
	mu     sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.values)
}

// Flag reads a boolean flag stored as [True].
func Flag(store Store, key string) bool {
	value, ok := store.Get(key)
	return ok && value == True
}

// SetFlag stores a set flag as [True] and removes an unset one.
func SetFlag(store Store, key string, set bool) error {
	if set {
		return store.Set(key, True)
	}
	return store.Delete(key)
}

// Language returns the persisted language or [DefaultLanguage].
func Language(store Store) string {
	if value, ok := store.Get(KeySelectedLanguage); ok && value != "" {
		return value
	}
	return DefaultLanguage
}
