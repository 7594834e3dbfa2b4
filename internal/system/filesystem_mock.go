package system

import (
	"os"
	"sync"
)

// MockFileSystem is a mock of the FileSystem for testing purposes.
// It captures written files in memory and implements FileSystemManager.
type MockFileSystem struct {
	mu           sync.Mutex
	WrittenFiles map[string][]byte
	Directories  map[string]bool
	// Existing marks paths that FileExists reports as present
	Existing map[string]bool
	// WriteErr, when set, is returned by every WriteFile call
	WriteErr error
}

// NewMockFileSystem creates a new MockFileSystem.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{
		WrittenFiles: make(map[string][]byte),
		Directories:  make(map[string]bool),
		Existing:     make(map[string]bool),
	}
}

// WriteFile captures the content that would be written to a file.
func (m *MockFileSystem) WriteFile(path string, content []byte, perms os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.WrittenFiles[path] = append([]byte(nil), content...)
	m.Existing[path] = true
	return nil
}

// EnsureDirectory records the directory.
func (m *MockFileSystem) EnsureDirectory(path string, perms os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Directories[path] = true
	return nil
}

// FileExists reports paths marked in Existing or written earlier.
func (m *MockFileSystem) FileExists(path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Existing[path], nil
}

// File returns the content written to path and whether it was written.
func (m *MockFileSystem) File(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.WrittenFiles[path]
	return content, ok
}
