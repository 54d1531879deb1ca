package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxFilenameLength is the longest filename the engine will produce.
// Common filesystems cap names at 255 bytes; one byte is reserved so a
// collision suffix never pushes a truncated name over the limit edge.
const MaxFilenameLength = 254

// FileOperations provides file system utilities
type FileOperations struct{}

// NewFileOperations creates a new FileOperations instance
func NewFileOperations() *FileOperations {
	return &FileOperations{}
}

// EnsureDir creates the parent directory of path if it doesn't exist
func (f *FileOperations) EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0755)
}

// FileExists checks if a file exists
func (f *FileOperations) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetFileSize returns the size of a file
func (f *FileOperations) GetFileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// AtomicRename performs an atomic file rename operation
func (f *FileOperations) AtomicRename(oldPath, newPath string) error {
	return os.Rename(oldPath, newPath)
}

// TruncateFilename shortens a filename to MaxFilenameLength characters.
// Shorter names pass through unchanged.
func TruncateFilename(name string) string {
	if len(name) <= MaxFilenameLength {
		return name
	}
	return name[:MaxFilenameLength]
}

// CreateAlternateName returns a non-colliding variant of basePath by
// appending .1, .2, ... .99, picking the first suffix for which no file
// exists. If all 99 are taken the original path is returned unchanged;
// callers that reached that point will overwrite.
func (f *FileOperations) CreateAlternateName(basePath string) string {
	if !f.FileExists(basePath) {
		return basePath
	}

	for i := 1; i <= 99; i++ {
		candidate := fmt.Sprintf("%s.%d", basePath, i)
		if !f.FileExists(candidate) {
			return candidate
		}
	}

	return basePath
}

// WriteFileAtomic writes data to path via a temp file in the same directory
// followed by a rename, so readers never observe a half-written file.
func (f *FileOperations) WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// IsWritable reports whether an existing file can be opened for writing.
func (f *FileOperations) IsWritable(path string) bool {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// ReadLines reads a text file and splits it into lines, preserving empty
// lines but dropping a single trailing newline.
func (f *FileOperations) ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	text := string(data)
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}
