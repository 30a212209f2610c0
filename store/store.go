// Package store persists hotkey bindings on local disk.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"sharkhost/log"
)

const (
	fileName  = "hotkeys.json"
	envConfig = "SHARKHOST_CONFIG_PATH"
	appDir    = "sharkhost"
)

const (
	ActionMute   = "mute"
	ActionDeafen = "deafen"
)

// Bindings maps each action to its accelerator. An empty string means unbound.
type Bindings struct {
	Mute   string `json:"mute"`
	Deafen string `json:"deafen"`
}

func (b Bindings) Get(action string) string {
	switch action {
	case ActionMute:
		return b.Mute
	case ActionDeafen:
		return b.Deafen
	}
	return ""
}

// With returns a copy of b with action set to accel. Unknown actions leave b unchanged.
func (b Bindings) With(action, accel string) Bindings {
	switch action {
	case ActionMute:
		b.Mute = accel
	case ActionDeafen:
		b.Deafen = accel
	}
	return b
}

func KnownAction(action string) bool {
	return action == ActionMute || action == ActionDeafen
}

// Store is the persistence contract the dispatcher depends on.
type Store interface {
	Load() Bindings
	Save(Bindings) error
}

// File keeps bindings in a single JSON document.
type File struct {
	mu   sync.Mutex
	path string
}

func New(dir string) *File {
	return &File{path: filepath.Join(dir, fileName)}
}

func (f *File) Path() string {
	return f.path
}

// Load never fails: a missing or unreadable file yields empty bindings.
func (f *File) Load() Bindings {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warnf("hotkey store read failed: %v", err)
		}
		return Bindings{}
	}
	var b Bindings
	if err := json.Unmarshal(data, &b); err != nil {
		log.Warnf("hotkey store corrupt, using defaults: %v", err)
		return Bindings{}
	}
	return b
}

// Save writes through a temp file in the same directory and renames it over
// the target, so readers never see a partial document.
func (f *File) Save(b Bindings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bindings: %w", err)
	}
	if err := writeAtomic(f.path, data); err != nil {
		return err
	}
	log.BindingsSaved(f.path, b.Mute, b.Deafen)
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ResolveDir picks the config directory: flag, then SHARKHOST_CONFIG_PATH,
// then the OS user config directory.
func ResolveDir(flagPath string) (string, error) {
	p := flagPath
	if p == "" {
		p = os.Getenv(envConfig)
	}
	if p != "" {
		if filepath.IsAbs(p) {
			return p, nil
		}
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, p), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appDir), nil
}
