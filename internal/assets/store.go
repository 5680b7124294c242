// Package assets manages uploaded icon files: staged uploads awaiting form submission
// and permanent files named after the icon id and content hash.
package assets

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/id"
)

// Relative locations below the application directory.
const (
	IconSubdir = "icon/board"
	tmpSubdir  = "tmp"
)

var (
	// ErrNotStaged is returned when no staged file exists for a token.
	ErrNotStaged = errors.New("no staged upload")
	// ErrInvalidToken is returned for tokens that cannot be used as file names.
	ErrInvalidToken = errors.New("invalid upload token")
	// ErrInvalidExtension is returned for extensions outside the allow-list.
	ErrInvalidExtension = errors.New("invalid file extension")
)

// Store manages icon files on disk.
// Thread-safe: renames and removals are serialized.
type Store struct {
	logger    *slog.Logger
	dir       string // {base}/icon/board
	tmpDir    string // {base}/icon/board/tmp
	publicURL string // URL prefix of the application directory, ends with "/"
	mu        sync.Mutex
}

// New creates a Store rooted at basePath. Icons are stored in {basePath}/icon/board
// and staged uploads in {basePath}/icon/board/tmp.
func New(basePath, publicURL string, logger *slog.Logger) (*Store, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if !strings.HasSuffix(publicURL, "/") {
		publicURL += "/"
	}

	dir := filepath.Join(basePath, filepath.FromSlash(IconSubdir))
	tmpDir := filepath.Join(dir, tmpSubdir)
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create icon directory: %w", err)
	}

	return &Store{
		logger:    logger,
		dir:       dir,
		tmpDir:    tmpDir,
		publicURL: publicURL,
	}, nil
}

// Dir returns the permanent icon directory.
func (s *Store) Dir() string {
	return s.dir
}

// StagedPath returns the staged file location for a token.
func (s *Store) StagedPath(tmpHash, ext string) string {
	return filepath.Join(s.tmpDir, tmpHash+"."+ext)
}

// PermanentPath returns the permanent file location for an icon.
func (s *Store) PermanentPath(icon *domain.Icon) string {
	return filepath.Join(s.dir, icon.FileName())
}

// URL returns the public link of an icon's permanent file.
func (s *Store) URL(icon *domain.Icon) string {
	return s.publicURL + IconSubdir + "/" + icon.FileName()
}

// StagedURL returns the public link of a staged file, used to preview an upload before the form is saved.
func (s *Store) StagedURL(tmpHash, ext string) string {
	return s.publicURL + IconSubdir + "/" + tmpSubdir + "/" + tmpHash + "." + ext
}

// Stage stores src as the pending upload for tmpHash and returns the normalized extension.
// A later upload for the same token overwrites the earlier one, also when the extension differs.
func (s *Store) Stage(tmpHash string, src io.Reader, ext string) (string, error) {
	if !id.ValidFormToken(tmpHash) {
		return "", ErrInvalidToken
	}
	ext, ok := domain.NormalizeExtension(ext)
	if !ok {
		return "", ErrInvalidExtension
	}

	scratch, err := s.writeScratch(s.tmpDir, src)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.StagedPath(tmpHash, ext)
	if err := os.Rename(scratch, target); err != nil {
		_ = os.Remove(scratch)
		return "", fmt.Errorf("move staged file: %w", err)
	}

	for _, other := range domain.AllowedExtensions {
		if other == ext {
			continue
		}
		if err := os.Remove(s.StagedPath(tmpHash, other)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove superseded staged file", "tmp_hash", tmpHash, "extension", other, "error", err)
		}
	}

	return ext, nil
}

// DiscardStaged removes the staged file for tmpHash. A missing file is not an error.
func (s *Store) DiscardStaged(tmpHash, ext string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.StagedPath(tmpHash, ext)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove staged file: %w", err)
	}
	return nil
}

// Delete removes an icon's permanent file. Failures are logged, never returned.
func (s *Store) Delete(icon *domain.Icon) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(s.PermanentPath(icon), "icon_id", icon.ID)
}

// permanentFiles lists the files named for iconID. Caller holds s.mu.
func (s *Store) permanentFiles(iconID int64) []string {
	paths, err := filepath.Glob(filepath.Join(s.dir, fmt.Sprintf("%d-*", iconID)))
	if err != nil {
		s.logger.Warn("failed to list icon files", "icon_id", iconID, "error", err)
		return nil
	}
	return paths
}

// remove unlinks path and logs on failure. Caller holds s.mu.
func (s *Store) remove(path string, args ...any) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to delete icon file", append(args, "path", path, "error", err)...)
	}
}

// writeScratch copies src into a new scratch file in dir and fsyncs it.
// The caller renames or removes the returned path.
func (s *Store) writeScratch(dir string, src io.Reader) (string, error) {
	f, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}
	name := f.Name()

	_, err = io.Copy(f, src)
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return name, nil
}

// Hash returns the SHA-256 hex digest and size of the file at path.
func Hash(path string) (string, int64, error) {
	f, err := os.Open(path) //#nosec G304 -- paths are derived from validated tokens and icon records
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), n, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
