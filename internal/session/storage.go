// ABOUTME: Durable key/value storage backing the session store
// ABOUTME: FileStorage writes through to a JSON file; MemoryStorage is for tests

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage keys for the persisted session
const (
	TokenKey = "token"
	UserKey  = "user"
)

// FileName is the session file created inside the config directory
const FileName = "session.json"

// Storage is the durable backing for a Store. Every call completes its write
// before returning.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(keys ...string) error
}

// FileStorage persists keys as a flat JSON object in a single file
type FileStorage struct {
	path string
	mu   sync.Mutex
}

// NewFileStorage returns storage rooted at configDir/session.json
func NewFileStorage(configDir string) *FileStorage {
	return &FileStorage{path: filepath.Join(configDir, FileName)}
}

// Path returns the backing file path
func (fs *FileStorage) Path() string {
	return fs.path
}

func (fs *FileStorage) Get(key string) (string, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (fs *FileStorage) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		// Corrupt file: overwrite with a fresh record
		data = map[string]string{}
	}
	data[key] = value
	return fs.write(data)
}

func (fs *FileStorage) Remove(keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.read()
	if err != nil {
		data = map[string]string{}
	}
	for _, k := range keys {
		delete(data, k)
	}
	if len(data) == 0 {
		if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	return fs.write(data)
}

func (fs *FileStorage) read() (map[string]string, error) {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	data := map[string]string{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("corrupt session file %s: %w", fs.path, err)
	}
	return data, nil
}

// write replaces the file atomically so a concurrent reader never sees a
// partial record
func (fs *FileStorage) write(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(fs.path), 0700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".session-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

// MemoryStorage keeps keys in memory only
type MemoryStorage struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStorage returns empty in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}}
}

func (ms *MemoryStorage) Get(key string) (string, bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	v, ok := ms.data[key]
	return v, ok, nil
}

func (ms *MemoryStorage) Set(key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.data[key] = value
	return nil
}

func (ms *MemoryStorage) Remove(keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, k := range keys {
		delete(ms.data, k)
	}
	return nil
}
