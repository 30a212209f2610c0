package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys the primary surface reads its hotkeys from.
const (
	KeyMute   = "sharkord_hotkey_mute"
	KeyDeafen = "sharkord_hotkey_deafen"
)

// StorageKey returns the surface storage key for action.
func StorageKey(action string) string {
	switch action {
	case ActionMute:
		return KeyMute
	case ActionDeafen:
		return KeyDeafen
	}
	return ""
}

// KV is a small string map on disk. The headless host uses it as the
// primary surface's local storage.
type KV struct {
	mu   sync.Mutex
	path string
}

func NewKV(dir string) *KV {
	return &KV{path: filepath.Join(dir, "surface_storage.json")}
}

func (kv *KV) read() (map[string]string, error) {
	m := map[string]string{}
	data, err := os.ReadFile(kv.path)
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &m); err != nil {
		// corrupt storage is reset rather than blocking writes
		return map[string]string{}, nil
	}
	return m, nil
}

func (kv *KV) GetItem(key string) (string, bool) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	m, err := kv.read()
	if err != nil {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (kv *KV) SetItem(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	m, err := kv.read()
	if err != nil {
		return fmt.Errorf("read surface storage: %w", err)
	}
	m[key] = value
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(kv.path, data)
}
