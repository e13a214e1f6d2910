// Package upload stores user-submitted files on disk and maps them to the
// public paths the web layer serves them under.
package upload

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PublicPrefix is the URL path uploads are served under.
const PublicPrefix = "/uploads"

var (
	// ErrEmptyFile is returned when a zero-byte upload is saved.
	ErrEmptyFile = errors.New("uploaded file is empty")
	// ErrBadPath is returned when a public path does not map into the store.
	ErrBadPath = errors.New("path is not inside the upload store")
)

// Store writes uploads below a single root directory.
type Store struct {
	root string
}

// NewStore opens the upload store rooted at dir, creating it when missing.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload directory is not configured")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve upload directory")
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, errors.Wrap(err, "failed to create upload directory")
	}

	return &Store{root: abs}, nil
}

// Save writes data under folder with a collision-proof name derived from the
// original filename and returns the public path it will be served at.
func (s *Store) Save(folder, name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}

	folder = sanitizeSegment(folder)
	filename := fmt.Sprintf("%d-%s", time.Now().UnixNano(), sanitizeFilename(name))

	dir := filepath.Join(s.root, folder)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", errors.Wrap(err, "failed to create upload folder")
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0o640); err != nil {
		return "", errors.Wrap(err, "failed to write upload")
	}

	log.Debug().Str("folder", folder).Str("file", filename).Int("bytes", len(data)).
		Msg("upload stored")

	return path.Join(PublicPrefix, folder, filename), nil
}

// Remove deletes the file behind a public path. A path that is already gone
// is not an error; a path outside the store is.
func (s *Store) Remove(publicPath string) error {
	rel, ok := strings.CutPrefix(publicPath, PublicPrefix+"/")
	if !ok {
		return ErrBadPath
	}

	target := filepath.Join(s.root, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, s.root+string(filepath.Separator)) {
		return ErrBadPath
	}

	err := os.Remove(target)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove upload")
	}

	return nil
}

// Root returns the absolute directory files are stored under, for serving.
func (s *Store) Root() string {
	return s.root
}

// sanitizeSegment keeps a single safe path segment.
func sanitizeSegment(seg string) string {
	seg = strings.Map(safeRune, seg)
	if seg == "" || seg == "." || seg == ".." {
		return "misc"
	}

	return seg
}

// sanitizeFilename strips directories and oddball characters from an
// uploaded filename, preserving the extension.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.FromSlash(name))
	name = strings.Map(safeRune, name)
	if name == "" || strings.Trim(name, ".") == "" {
		return "file"
	}

	return name
}

func safeRune(r rune) rune {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return r
	case r == '.' || r == '-' || r == '_':
		return r
	default:
		return '_'
	}
}
