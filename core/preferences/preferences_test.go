package preferences

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFlagRoundTripRemovesUnsetKey(t *testing.T) {
	store := NewMemory()
	if Flag(store, KeyOnboardingComplete) {
		t.Fatalf("expected flag to be unset initially")
	}

	if err := SetFlag(store, KeyOnboardingComplete, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if value, _ := store.Get(KeyOnboardingComplete); value != "true" {
		t.Fatalf("expected stored value %q, got %q", "true", value)
	}

	if err := SetFlag(store, KeyOnboardingComplete, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := store.Get(KeyOnboardingComplete); ok {
		t.Fatalf("expected unset flag to be absent")
	}
}

func TestLanguageDefaultsToEnglishUS(t *testing.T) {
	store := NewMemory()
	if got := Language(store); got != DefaultLanguage {
		t.Fatalf("expected %q, got %q", DefaultLanguage, got)
	}
	_ = store.Set(KeySelectedLanguage, "de-DE")
	if got := Language(store); got != "de-DE" {
		t.Fatalf("expected %q, got %q", "de-DE", got)
	}
}

func TestFilePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.yaml")

	first, err := OpenFile(path)
	if err != nil {
		t.Fatalf("expected missing file to open, got %v", err)
	}
	if err := first.Set(KeyUserName, "Ana"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := first.Set(KeySelectedLanguage, "hr-HR"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := first.Delete(KeySelectedLanguage); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := OpenFile(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if name, ok := second.Get(KeyUserName); !ok || name != "Ana" {
		t.Fatalf("expected persisted user name, got %q (present %v)", name, ok)
	}
	if _, ok := second.Get(KeySelectedLanguage); ok {
		t.Fatalf("expected deleted key to stay deleted")
	}
}

func TestOpenFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.yaml")
	if err := os.WriteFile(path, []byte("userName: [unterminated"), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	if _, err := OpenFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
