package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Filesystem stores files under root/<case-id>/<timestamp>_<name>. The
// timestamp prefix keeps repeated uploads of the same file name distinct.
type Filesystem struct {
	root string
}

func NewFilesystem(root string) (*Filesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	return &Filesystem{root: root}, nil
}

func (f *Filesystem) Save(_ context.Context, caseID string, fileName string, r io.Reader) (string, int64, error) {
	dir := filepath.Join(f.root, caseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create case dir: %w", err)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), sanitizeName(fileName))
	full := filepath.Join(dir, name)

	dst, err := os.Create(full)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}
	size, err := io.Copy(dst, r)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	return filepath.Join(caseID, name), size, nil
}

func (f *Filesystem) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

func (f *Filesystem) Delete(_ context.Context, path string) error {
	full, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// resolve rejects paths that escape the storage root.
func (f *Filesystem) resolve(path string) (string, error) {
	full := filepath.Join(f.root, filepath.FromSlash(path))
	rootAbs, err := filepath.Abs(f.root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	if fullAbs != rootAbs && !strings.HasPrefix(fullAbs, rootAbs+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes storage root: %q", path)
	}
	return fullAbs, nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	if name == "" || name == "." || name == ".." {
		name = "upload"
	}
	return name
}
