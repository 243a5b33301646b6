package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path under which stored images are served.
const PublicPrefix = "/images/"

var (
	urlFileRe     = regexp.MustCompile(`/images/(.+)$`)
	unsafeCharsRe = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

	// ErrInvalidURL is returned for URLs that do not address a stored image.
	ErrInvalidURL = errors.New("not a stored image url")
)

// LocalStore writes files to a directory on disk.
type LocalStore struct {
	dir     string
	baseURL string
	now     func() time.Time
}

// NewLocalStore creates dir if needed. baseURL is the public origin, e.g. https://api.example.com.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %q: %w", dir, err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), now: time.Now}, nil
}

// Dir returns the directory files are written to.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Store writes data as <base>__<unixms>_<rand><ext> and returns its public URL.
func (s *LocalStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", errors.New("empty file")
	}

	name := s.fileName(originalName)
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return "", fmt.Errorf("rename file: %w", err)
	}
	return s.baseURL + PublicPrefix + name, nil
}

// Delete removes the file behind url. Missing files are not an error.
func (s *LocalStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.pathFor(url)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (s *LocalStore) Exists(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path, err := s.pathFor(url)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// StoredFile is one image on disk.
type StoredFile struct {
	Name    string
	URL     string
	ModTime time.Time
}

// List returns every stored image. In-flight temp files are skipped.
func (s *LocalStore) List(ctx context.Context) ([]StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", s.dir, err)
	}
	files := make([]StoredFile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		files = append(files, StoredFile{
			Name:    entry.Name(),
			URL:     s.baseURL + PublicPrefix + entry.Name(),
			ModTime: info.ModTime(),
		})
	}
	return files, nil
}

func (s *LocalStore) fileName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	if len(ext) > 10 || unsafeCharsRe.MatchString(strings.TrimPrefix(ext, ".")) {
		ext = ""
	}
	base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
	base = strings.Trim(unsafeCharsRe.ReplaceAllString(base, "_"), "_")
	if base == "" {
		base = "file"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s__%d_%s%s", base, s.now().UnixMilli(), suffix, ext)
}

// NameFromURL extracts the stored file name from a public image url.
func NameFromURL(url string) (string, bool) {
	m := urlFileRe.FindStringSubmatch(url)
	if m == nil || m[1] != filepath.Base(m[1]) {
		return "", false
	}
	return m[1], true
}

func (s *LocalStore) pathFor(url string) (string, error) {
	m := urlFileRe.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidURL
	}
	name := m[1]
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidURL
	}
	return filepath.Join(s.dir, name), nil
}
