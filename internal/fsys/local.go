// Package fsys provides the default local-disk FileSystem port: atomic
// .part-then-rename copy, rename-first move with a copy+verify+delete
// fallback across filesystems, same-filesystem and case-sensitivity
// detection, and every mutating call routed through
// internal/util/retry.go's RetryableXxx helpers.
package fsys

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/adsamcik/photocopy/internal/util"
)

// Local is the default FileSystem port implementation, rooted at nothing
// in particular — every method takes an absolute path, matching the
// ports.FileSystem contract.
type Local struct {
	retry     *util.RetryConfig
	bufferSize int
}

// New returns a Local FileSystem using cfg for retries (nil selects
// util.DefaultRetryConfig) and a 1MiB copy buffer.
func New(cfg *util.RetryConfig) *Local {
	if cfg == nil {
		cfg = util.DefaultRetryConfig()
	}
	return &Local{retry: cfg, bufferSize: 1 << 20}
}

// NewTuned returns a Local FileSystem using the retry config and buffer
// size in nas, util.AutoTuneForPath's result for network-mounted
// source/destination trees (higher latency per call means fewer, larger,
// retried writes).
func NewTuned(nas *util.NASConfig) *Local {
	if nas == nil || !nas.IsNASMode {
		return New(nil)
	}
	return &Local{
		retry: &util.RetryConfig{
			MaxAttempts: nas.RetryAttempts,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     10 * time.Second,
		},
		bufferSize: nas.BufferSize,
	}
}

// Enumerate walks root and returns every regular file's absolute path,
// skipping directories and anything not a regular file (sockets, devices).
func (l *Local) Enumerate(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (l *Local) OpenRead(path string) (io.ReadCloser, error) {
	return util.RetryableOpen(path, l.retry)
}

func (l *Local) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (l *Local) CreateDirectory(path string) error {
	return util.RetryableMkdirAll(path, 0755, l.retry)
}

func (l *Local) Stat(path string) (int64, error) {
	info, err := util.RetryableStat(path, l.retry)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Copy stages the write as dst+".part" and renames it into place once
// complete, so a crash mid-copy never leaves a half-written file at dst.
func (l *Local) Copy(ctx context.Context, src, dst string) (int64, error) {
	if err := l.CreateDirectory(filepath.Dir(dst)); err != nil {
		return 0, fmt.Errorf("fsys: mkdir for %s: %w", dst, err)
	}

	in, err := util.RetryableOpen(src, l.retry)
	if err != nil {
		return 0, &util.AccessError{Path: src, Err: err}
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := util.RetryableCreate(tmp, l.retry)
	if err != nil {
		return 0, fmt.Errorf("fsys: create %s: %w", tmp, err)
	}

	written, copyErr := copyWithContext(ctx, out, in, l.bufferSize)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		os.Remove(tmp)
		if copyErr != nil {
			return written, copyErr
		}
		return written, closeErr
	}

	if err := util.RetryableRename(tmp, dst, l.retry); err != nil {
		os.Remove(tmp)
		return written, fmt.Errorf("fsys: rename %s -> %s: %w", tmp, dst, err)
	}
	return written, nil
}

// Move tries a same-filesystem rename first; if that fails (typically
// because src and dst are on different filesystems) it falls back to
// Copy followed by removing src.
func (l *Local) Move(ctx context.Context, src, dst string) (int64, error) {
	if err := l.CreateDirectory(filepath.Dir(dst)); err != nil {
		return 0, fmt.Errorf("fsys: mkdir for %s: %w", dst, err)
	}

	if same, _ := util.IsSameFilesystem(filepath.Dir(src), filepath.Dir(dst)); same {
		if err := util.RetryableRename(src, dst, l.retry); err == nil {
			size, _ := l.Stat(dst)
			return size, nil
		}
	}

	written, err := l.Copy(ctx, src, dst)
	if err != nil {
		return written, err
	}
	if err := util.RetryableRemove(src, l.retry); err != nil {
		return written, fmt.Errorf("fsys: move copied but could not remove source %s: %w", src, err)
	}
	return written, nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader, bufSize int) (int64, error) {
	buf := make([]byte, bufSize)
	var total int64
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}
