package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Manager enforces the filesystem allow-list for table files. It stores
// canonical absolute roots and checks that requested paths resolve inside one
// of them with a supported extension.
type Manager struct {
	allowedDirs []string
	allowedExts map[string]struct{}
}

// ErrNotAllowed indicates the requested path is outside the allow-list roots.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
var ErrNotFound = errors.New("security: file not found")

// DefaultExtensions are the table formats accepted when none are configured.
var DefaultExtensions = []string{".csv", ".xlsx", ".xlsm"}

// NewManager constructs a security manager given an allow-list of directories
// and a list of allowed file extensions (case-insensitive, with leading dot).
// Directories are canonicalized (absolute + EvalSymlinks) and validated.
func NewManager(allowDirs []string, allowedExtensions []string) (*Manager, error) {
	if len(allowedExtensions) == 0 {
		allowedExtensions = DefaultExtensions
	}

	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, e := range allowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.HasPrefix(e, ".") {
			return nil, fmt.Errorf("security: invalid extension: %q", e)
		}
		exts[e] = struct{}{}
	}

	canonical := make([]string, 0, len(allowDirs))
	for _, d := range allowDirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		real, err := canonicalize(d)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(real)
		if err != nil {
			return nil, fmt.Errorf("security: stat %q: %w", real, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("security: allow-list entry is not a directory: %q", real)
		}
		canonical = append(canonical, filepath.Clean(real))
	}

	return &Manager{allowedDirs: canonical, allowedExts: exts}, nil
}

// AllowedDirectories returns the canonical allow-list roots.
func (m *Manager) AllowedDirectories() []string {
	out := make([]string, len(m.allowedDirs))
	copy(out, m.allowedDirs)
	return out
}

// ValidateConfig returns an error when no allow-list entries are configured,
// so the server refuses to start with file access effectively unrestricted.
func (m *Manager) ValidateConfig() error {
	if len(m.allowedDirs) == 0 {
		return errors.New("security: no allowed directories configured")
	}
	return nil
}

// ValidateOpenPath ensures input refers to an existing file with an allowed
// extension inside one of the roots. It returns the canonical absolute path.
func (m *Manager) ValidateOpenPath(input string) (string, error) {
	if err := m.checkExt(input); err != nil {
		return "", err
	}
	real, err := canonicalize(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}
	if !m.contained(real) {
		return "", ErrNotAllowed
	}
	return real, nil
}

// ValidateTablePath is ValidateOpenPath for a working table file that may not
// exist yet: its parent directory must resolve inside a root.
func (m *Manager) ValidateTablePath(input string) (string, error) {
	if err := m.checkExt(input); err != nil {
		return "", err
	}
	if real, err := m.ValidateOpenPath(input); err == nil {
		return real, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("security: abs path: %w", err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}
	real := filepath.Join(dir, filepath.Base(abs))
	if !m.contained(real) {
		return "", ErrNotAllowed
	}
	return real, nil
}

func (m *Manager) checkExt(input string) error {
	if input == "" {
		return ErrNotAllowed
	}
	if _, ok := m.allowedExts[strings.ToLower(filepath.Ext(input))]; !ok {
		return ErrUnsupportedExtension
	}
	return nil
}

// contained reports whether real lies strictly inside one of the roots.
func (m *Manager) contained(real string) bool {
	for _, root := range m.allowedDirs {
		rel, err := filepath.Rel(root, real)
		if err != nil || rel == "." || rel == "" {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("security: resolve abs for %q: %w", p, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
	}
	return real, nil
}
