package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type LocalBackend struct {
	Root string
}

func NewLocalBackend(root string) (*LocalBackend, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root failed: %w", err)
	}
	return &LocalBackend{Root: root}, nil
}

func (b *LocalBackend) resolve(objectPath string) string {
	return filepath.Join(b.Root, filepath.FromSlash(objectPath))
}

func (b *LocalBackend) Put(ctx context.Context, objectPath string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	target := b.resolve(objectPath)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create object directory failed: %w", err)
	}

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return 0, fmt.Errorf("%w: %s", ErrObjectExists, objectPath)
		}
		return 0, fmt.Errorf("create object failed: %w", err)
	}

	written, copyErr := io.Copy(dst, r)
	closeErr := dst.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(target)
		if copyErr != nil {
			return 0, fmt.Errorf("write object failed: %w", copyErr)
		}
		return 0, fmt.Errorf("close object failed: %w", closeErr)
	}
	return written, nil
}

func (b *LocalBackend) Remove(ctx context.Context, objectPaths []string) (int, error) {
	removed := 0
	var errs []error
	for _, p := range objectPaths {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := os.Remove(b.resolve(p)); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			errs = append(errs, fmt.Errorf("remove %s failed: %w", p, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (b *LocalBackend) Open(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(b.resolve(objectPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
		}
		return nil, fmt.Errorf("open object failed: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat object failed: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, objectPath)
	}
	return f, nil
}
