package asset

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	defaultExt     = ".jpg"
	defaultMaxDim  = 1920
	defaultQuality = 85
)

// Config describes where images live on disk and how they are addressed.
type Config struct {
	// Dir is the directory image files are written to.
	Dir string
	// URLPrefix is the public path Dir is served under, e.g. "/uploads/recipes".
	URLPrefix string
	// MaxDim caps the longest side of stored images.
	MaxDim int
	// Quality is the JPEG re-encode quality used after a downscale.
	Quality int
}

// Manager stores uploaded recipe images under generated names. Downscaling
// and removal are best-effort: failures are logged and never returned.
type Manager struct {
	cfg    Config
	logger *slog.Logger
}

// NewManager creates the image directory if needed.
func NewManager(cfg Config, logger *slog.Logger) (*Manager, error) {
	if cfg.MaxDim <= 0 {
		cfg.MaxDim = defaultMaxDim
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = defaultQuality
	}
	cfg.URLPrefix = "/" + strings.Trim(cfg.URLPrefix, "/")

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir %s: %w", cfg.Dir, err)
	}
	return &Manager{cfg: cfg, logger: logger}, nil
}

// Save writes src under a random name that keeps the original extension and
// returns the public URL of the stored file.
func (m *Manager) Save(originalName string, src io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = defaultExt
	}
	filename := uuid.NewString() + ext
	dst := filepath.Join(m.cfg.Dir, filename)

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("close image file: %w", err)
	}

	if err := m.downscale(dst); err != nil {
		m.logger.Warn("image downscale skipped", "path", dst, "error", err)
	}

	return path.Join(m.cfg.URLPrefix, filename), nil
}

// downscale shrinks the image in place when either side exceeds MaxDim,
// keeping aspect ratio. The saved original stays valid on any error.
func (m *Manager) downscale(p string) error {
	cfg, _, err := imageConfig(p)
	if err != nil {
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= m.cfg.MaxDim && cfg.Height <= m.cfg.MaxDim {
		return nil
	}

	img, err := imaging.Open(p)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, m.cfg.MaxDim, m.cfg.MaxDim, imaging.Lanczos)

	// Encode to a sibling file first so a failed encode leaves the original intact.
	tmp := p + ".tmp" + filepath.Ext(p)
	if err := imaging.Save(img, tmp, imaging.JPEGQuality(m.cfg.Quality)); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("encode image: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace image: %w", err)
	}
	return nil
}

// Remove deletes the file behind a URL previously returned by Save. URLs
// outside the managed prefix, missing files and removal errors are ignored.
func (m *Manager) Remove(url string) {
	p, ok := m.Path(url)
	if !ok {
		m.logger.Warn("image url outside upload dir", "url", url)
		return
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		m.logger.Warn("image remove failed", "path", p, "error", err)
	}
}

// Path resolves a public URL to its file path within Dir.
func (m *Manager) Path(url string) (string, bool) {
	prefix := m.cfg.URLPrefix + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	name := strings.TrimPrefix(url, prefix)
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", false
	}
	return filepath.Join(m.cfg.Dir, name), true
}
