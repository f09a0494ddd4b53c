package fsys

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/adsamcik/photocopy/internal/util"
)

func TestCopyStagesViaPartFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	if err := os.WriteFile(src, []byte("hello"), 0644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	dst := filepath.Join(dir, "out", "dst.jpg")

	l := New(nil)
	n, err := l.Copy(context.Background(), src, dst)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if n != 5 {
		t.Errorf("bytes written = %d, want 5", n)
	}
	if _, err := os.Stat(dst + ".part"); !os.IsNotExist(err) {
		t.Errorf(".part file left behind after successful copy")
	}
	got, err := os.ReadFile(dst)
	if err != nil || string(got) != "hello" {
		t.Errorf("dst content = %q, err %v; want %q", got, err, "hello")
	}
}

func TestCopyMissingSourceReturnsAccessError(t *testing.T) {
	dir := t.TempDir()
	l := New(nil)
	_, err := l.Copy(context.Background(), filepath.Join(dir, "nope.jpg"), filepath.Join(dir, "out.jpg"))
	if err == nil {
		t.Fatal("expected an error for a missing source file")
	}
	var accessErr *util.AccessError
	if !errors.As(err, &accessErr) {
		t.Errorf("error = %v, want a *util.AccessError", err)
	}
}

func TestMoveRemovesSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	os.WriteFile(src, []byte("data"), 0644)
	dst := filepath.Join(dir, "dst.jpg")

	l := New(nil)
	if _, err := l.Move(context.Background(), src, dst); err != nil {
		t.Fatalf("Move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Errorf("source still exists after move")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("destination missing after move: %v", err)
	}
}

func TestEnumerateSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0755)
	os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("a"), 0644)
	os.WriteFile(filepath.Join(dir, "sub", "b.jpg"), []byte("b"), 0644)

	l := New(nil)
	paths, err := l.Enumerate(context.Background(), dir)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("Enumerate found %d files, want 2: %v", len(paths), paths)
	}
}

func TestExistsAndCreateDirectory(t *testing.T) {
	dir := t.TempDir()
	l := New(nil)
	nested := filepath.Join(dir, "a", "b", "c")
	if l.Exists(nested) {
		t.Fatal("nested dir should not exist yet")
	}
	if err := l.CreateDirectory(nested); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if !l.Exists(nested) {
		t.Error("CreateDirectory did not create the directory")
	}
}
