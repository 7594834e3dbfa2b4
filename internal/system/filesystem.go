package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileSystem handles file system operations
type FileSystem struct {
	runner  CommandRunner
	useSudo bool
	// writeDirect is the unprivileged atomic write
	writeDirect func(path string, content []byte, perms os.FileMode) error
	mkdirDirect func(path string, perms os.FileMode) error
}

// NewFileSystem creates a FileSystem that acts with the caller's permissions
func NewFileSystem() *FileSystem {
	return &FileSystem{writeDirect: writeAtomic, mkdirDirect: os.MkdirAll}
}

// NewPrivilegedFileSystem creates a FileSystem that retries writes denied
// to the current user through "sudo -n" when useSudo is set
func NewPrivilegedFileSystem(runner CommandRunner, useSudo bool) *FileSystem {
	fs := NewFileSystem()
	fs.runner = runner
	fs.useSudo = useSudo
	return fs
}

func (fs *FileSystem) canSudo(err error) bool {
	return fs.useSudo && fs.runner != nil && errors.Is(err, os.ErrPermission)
}

// EnsureDirectory creates a directory and its parents with perms.
// If the directory already exists, it does nothing
func (fs *FileSystem) EnsureDirectory(path string, perms os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists but is not a directory", path)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check directory %s: %w", path, err)
	}

	err := fs.mkdirDirect(path, perms)
	if err != nil && fs.canSudo(err) {
		name, args := privileged(true, "mkdir", "-p", "-m", fmt.Sprintf("%o", perms.Perm()), path)
		output, sudoErr := fs.runner.Run(context.Background(), name, args...)
		if sudoErr != nil {
			return fmt.Errorf("failed to create directory %s: %w\nOutput: %s", path, sudoErr, output)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, err)
	}
	return nil
}

// FileExists checks if a file exists
func (fs *FileSystem) FileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check if file exists %s: %w", path, err)
}

// DirectoryExists checks if a directory exists
func (fs *FileSystem) DirectoryExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check if directory exists %s: %w", path, err)
}

// WriteFile replaces path with content. When the current user may not
// write the target and sudo is available, the file is moved into place
// with "sudo -n mv" and handed to root.
func (fs *FileSystem) WriteFile(path string, content []byte, perms os.FileMode) error {
	err := fs.writeDirect(path, content, perms)
	if err != nil && fs.canSudo(err) {
		return fs.writeWithSudo(path, content, perms)
	}
	return err
}

// writeWithSudo stages content in the temp directory and moves it over
// path as root
func (fs *FileSystem) writeWithSudo(path string, content []byte, perms os.FileMode) error {
	tmpFile, err := os.CreateTemp("", "utyavpn-setup-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Chmod(perms); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	ctx := context.Background()
	name, args := privileged(true, "mv", tmpPath, path)
	if output, err := fs.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to move file to %s: %w\nOutput: %s", path, err, output)
	}

	// The temp file belonged to the unprivileged user
	name, args = privileged(true, "chown", "root:root", path)
	if output, err := fs.runner.Run(ctx, name, args...); err != nil {
		return fmt.Errorf("failed to set ownership on %s: %w\nOutput: %s", path, err, output)
	}
	return nil
}

// writeAtomic writes to a temporary file in the target directory and
// renames it over path, so readers never see a half-written file.
func writeAtomic(path string, content []byte, perms os.FileMode) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(content); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Chmod(perms); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to set permissions on temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move file to %s: %w", path, err)
	}
	return nil
}

// ReadFile returns the content of a file
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
