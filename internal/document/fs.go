package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"github.com/starford/daybook/internal/apperr"
)

const lockRetry = 20 * time.Millisecond

// FS implements Host on the local file system. Paths must be absolute and,
// when roots are configured, inside one of them.
type FS struct {
	roots []string
}

// NewFS creates a host confined to roots. With no roots any absolute path is allowed.
func NewFS(roots ...string) (*FS, error) {
	f := &FS{}
	for _, r := range roots {
		abs, err := filepath.Abs(r)
		if err != nil {
			return nil, fmt.Errorf("document: resolve root: %w", err)
		}
		f.roots = append(f.roots, abs)
	}
	return f, nil
}

// safePath cleans p and rejects relative paths and paths outside every root.
func (f *FS) safePath(p string) (string, error) {
	if p == "" || !filepath.IsAbs(p) {
		return "", fmt.Errorf("document: path must be absolute: %q", p)
	}
	abs := filepath.Clean(p)
	if len(f.roots) == 0 {
		return abs, nil
	}
	for _, root := range f.roots {
		if abs == root || strings.HasPrefix(abs, root+string(os.PathSeparator)) {
			return abs, nil
		}
	}
	return "", fmt.Errorf("document: path outside journal roots: %s", p)
}

// Open reads the document at path.
func (f *FS) Open(_ context.Context, path string) (*Document, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	return read(abs)
}

// OpenOrCreate returns the existing document or creates it with content.
// Creation is serialised per path with a lock file next to the target.
func (f *FS) OpenOrCreate(ctx context.Context, path string, content []byte) (*Document, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, &apperr.DocumentCreateError{Path: path, Err: err}
	}
	doc, err := read(abs)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	created, err := f.create(ctx, abs, content)
	if err != nil {
		return nil, err
	}
	if !created {
		return read(abs)
	}
	doc, err = read(abs)
	if err != nil {
		return nil, &apperr.DocumentCreateError{Path: abs, Err: err}
	}
	doc.Created = true
	return doc, nil
}

// Create writes a new file at path and fails with apperr.ErrAlreadyExists if
// one is already there.
func (f *FS) Create(ctx context.Context, path string, data []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return &apperr.DocumentCreateError{Path: path, Err: err}
	}
	created, err := f.create(ctx, abs, data)
	if err != nil {
		return err
	}
	if !created {
		return fmt.Errorf("document: create %s: %w", abs, apperr.ErrAlreadyExists)
	}
	return nil
}

// create writes content to abs under the path lock unless the file exists.
// It reports whether it wrote the file.
func (f *FS) create(ctx context.Context, abs string, content []byte) (bool, error) {
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, &apperr.DocumentCreateError{Path: abs, Err: err}
	}

	// The lock file is left in place: unlinking it would let a waiter holding
	// the old inode and a newcomer on a fresh file both own the lock. It is a
	// dot-file, so scans skip it.
	lockPath := lockFile(abs)
	lock := flock.New(lockPath)
	locked, err := lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return false, &apperr.DocumentCreateError{Path: abs, Err: err}
	}
	if !locked {
		return false, &apperr.DocumentCreateError{Path: abs, Err: errors.New("lock not acquired")}
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := os.Stat(abs); err == nil {
		return false, nil
	}
	if err := writeAtomic(abs, content); err != nil {
		return false, &apperr.DocumentCreateError{Path: abs, Err: err}
	}
	return true, nil
}

func lockFile(abs string) string {
	return filepath.Join(filepath.Dir(abs), "."+filepath.Base(abs)+".lock")
}

func read(abs string) (*Document, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		// ENOTDIR: a parent component is a file, so the document cannot exist.
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
			return nil, fmt.Errorf("document: open %s: %w", abs, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("document: open %s: %w", abs, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("document: stat %s: %w", abs, err)
	}
	return &Document{
		Path:      abs,
		Content:   string(data),
		Checksum:  Checksum(data),
		UpdatedAt: info.ModTime(),
	}, nil
}

// writeAtomic writes content: tmp file → fsync → rename.
func writeAtomic(abs string, content []byte) error {
	dir := filepath.Dir(abs)
	tmp, err := os.CreateTemp(dir, ".daybook-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	success = true
	return nil
}
