package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File is a [Store] backed by a YAML document. Every write rewrites the whole
// file through a temporary file in the same directory.
type File struct {
	path   string
	memory *Memory
}

// OpenFile loads preferences from path. A missing file is an empty store.
func OpenFile(path string) (*File, error) {
	f := &File{path: path, memory: NewMemory()}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse preferences %s: %w", path, err)
	}
	for key, value := range values {
		f.memory.values[key] = value
	}
	return f, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Get(key string) (string, bool) {
	return f.memory.Get(key)
}

func (f *File) Set(key, value string) error {
	if err := f.memory.Set(key, value); err != nil {
		return err
	}
	return f.save()
}

func (f *File) Delete(key string) error {
	if err := f.memory.Delete(key); err != nil {
		return err
	}
	return f.save()
}

func (f *File) save() error {
	data, err := yaml.Marshal(f.memory.snapshot())
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create preferences directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".preferences-*")
	if err != nil {
		return fmt.Errorf("failed to create preferences file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace preferences: %w", err)
	}
	return nil
}
