package storage

import (
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"multires/internal/database"
	"multires/internal/logging"
)

// ErrInvalidPath is returned for relative paths that escape the media root.
var ErrInvalidPath = errors.New("invalid media path")

// FileStorage stores source and derived images under a single media root
// and maps stored paths to public URLs. It never deletes derived files;
// cleanup is an administrative concern.
type FileStorage struct {
	root    string
	baseURL string
}

// New creates a FileStorage rooted at root, served publicly under baseURL.
func New(root, baseURL string) *FileStorage {
	return &FileStorage{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// clean validates a storage-relative path and resolves it under the root.
func (s *FileStorage) clean(relPath string) (string, error) {
	relPath = path.Clean(strings.TrimLeft(filepath.ToSlash(relPath), "/"))
	if relPath == "." || relPath == ".." || strings.HasPrefix(relPath, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, relPath)
	}
	return filepath.Join(s.root, filepath.FromSlash(relPath)), nil
}

// Save writes data to relPath atomically: the bytes land in a temporary
// file first and are renamed into place, so a failed write never leaves a
// partial file behind.
func (s *FileStorage) Save(relPath string, data []byte) error {
	fullPath, err := s.clean(relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", relPath, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".multires-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", relPath, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return fmt.Errorf("failed to write %s: %w", relPath, err)
	}
	if err := tmp.Close(); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return fmt.Errorf("failed to close %s: %w", relPath, err)
	}

	if err := os.Rename(tmpName, fullPath); err != nil {
		if rmErr := os.Remove(tmpName); rmErr != nil {
			logging.Warn("failed to remove temp file %s: %v", tmpName, rmErr)
		}
		return fmt.Errorf("failed to move %s into place: %w", relPath, err)
	}

	logging.Debug("Stored %s (%d bytes)", relPath, len(data))
	return nil
}

// Open opens a stored file for reading.
func (s *FileStorage) Open(relPath string) (io.ReadCloser, error) {
	fullPath, err := s.clean(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", relPath, err)
	}
	return f, nil
}

// Exists reports whether relPath refers to a stored regular file.
func (s *FileStorage) Exists(relPath string) bool {
	fullPath, err := s.clean(relPath)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && info.Mode().IsRegular()
}

// URL returns the public URL for a stored path.
func (s *FileStorage) URL(relPath string) string {
	relPath = strings.TrimLeft(filepath.ToSlash(relPath), "/")
	return s.baseURL + "/" + relPath
}

// Root returns the media root directory.
func (s *FileStorage) Root() string {
	return s.root
}

// SourcePath builds the storage path of an uploaded source image.
func SourcePath(namespace, filename string) string {
	return path.Join("multires", "sources", namespace, path.Base(filename))
}

// UniqueSourcePath builds a storage path for an uploaded source image that
// does not collide with an already stored file. Overwriting is never safe
// here: variants of the old file would keep their processed status and serve
// stale derived images, so a colliding name gets a random suffix instead.
func (s *FileStorage) UniqueSourcePath(namespace, filename string) string {
	source := SourcePath(namespace, filename)
	for s.Exists(source) {
		ext := path.Ext(filename)
		stem := strings.TrimSuffix(path.Base(filename), ext)
		suffix := uuid.NewString()[:8]
		source = SourcePath(namespace, fmt.Sprintf("%s_%s%s", stem, suffix, ext))
	}
	return source
}

// DerivedPath builds the storage path of a rendered variant. The path is a
// deterministic function of the source identity, recipe identity and output
// type: distinct (source, recipe) pairs never collide, and re-renders of
// the same pair land on the same path, which keeps downstream CDN caching
// stable.
func DerivedPath(source string, recipeID int64, fileType database.FileType) string {
	hash := md5.Sum([]byte(source))
	name := fmt.Sprintf("%x-%d.%s", hash, recipeID, fileType.Ext())
	return path.Join("multires", "images", name)
}
