package dispatch

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/adsamcik/photocopy/internal/model"
	"github.com/adsamcik/photocopy/internal/report"
)

// fakeFS is a minimal ports.FileSystem backed by a real temp directory.
type fakeFS struct {
	copyCalled bool
	moveCalled bool
}

func (f *fakeFS) Enumerate(ctx context.Context, root string) ([]string, error) { return nil, nil }
func (f *fakeFS) OpenRead(path string) (io.ReadCloser, error)                  { return os.Open(path) }
func (f *fakeFS) Exists(path string) bool                                      { _, err := os.Stat(path); return err == nil }
func (f *fakeFS) CreateDirectory(path string) error                           { return os.MkdirAll(path, 0755) }
func (f *fakeFS) Stat(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
func (f *fakeFS) Copy(ctx context.Context, src, dst string) (int64, error) {
	f.copyCalled = true
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	return int64(len(data)), os.WriteFile(dst, data, 0644)
}
func (f *fakeFS) Move(ctx context.Context, src, dst string) (int64, error) {
	f.moveCalled = true
	n, err := f.Copy(ctx, src, dst)
	if err != nil {
		return n, err
	}
	return n, os.Remove(src)
}

func newPlan(t *testing.T, dir string, op model.Operation, disposition model.Disposition) *model.Plan {
	t.Helper()
	src := filepath.Join(dir, "src.jpg")
	os.WriteFile(src, []byte("hello"), 0644)
	return &model.Plan{
		Source:      &model.FileRecord{AbsPath: src, Name: "src.jpg"},
		DestPath:    filepath.Join(dir, "out", "dst.jpg"),
		Operation:   op,
		Disposition: disposition,
	}
}

func TestDispatchCopy(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, false, report.Null())
	plan := newPlan(t, dir, model.OperationCopy, model.DispositionNew)

	res := d.Dispatch(context.Background(), plan)
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if !fs.copyCalled {
		t.Error("expected Copy to be called")
	}
	if fs.moveCalled {
		t.Error("Move should not be called for a copy operation")
	}
}

func TestDispatchMove(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, false, report.Null())
	plan := newPlan(t, dir, model.OperationMove, model.DispositionNew)

	res := d.Dispatch(context.Background(), plan)
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if !fs.moveCalled {
		t.Error("expected Move to be called")
	}
}

func TestDispatchDryRunDoesNotMutate(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, true, report.Null())
	plan := newPlan(t, dir, model.OperationCopy, model.DispositionNew)

	res := d.Dispatch(context.Background(), plan)
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if fs.copyCalled {
		t.Error("dry-run must not call Copy")
	}
	if _, err := os.Stat(plan.DestPath); !os.IsNotExist(err) {
		t.Error("dry-run must not create the destination file")
	}
}

func TestDispatchSkipIdenticalIsNoOp(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, false, report.Null())
	plan := newPlan(t, dir, model.OperationCopy, model.DispositionSkipIdentical)

	res := d.Dispatch(context.Background(), plan)
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}
	if fs.copyCalled {
		t.Error("skip-identical must not call Copy")
	}
}

func TestDispatchMissingSourceReturnsError(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, false, report.Null())
	plan := &model.Plan{
		Source:      &model.FileRecord{AbsPath: filepath.Join(dir, "nope.jpg")},
		DestPath:    filepath.Join(dir, "out.jpg"),
		Operation:   model.OperationCopy,
		Disposition: model.DispositionNew,
	}

	res := d.Dispatch(context.Background(), plan)
	if res.Err == nil {
		t.Fatal("expected an error for a missing source file")
	}
}

func TestDispatchCopiesRelatedFiles(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, false, report.Null())

	plan := newPlan(t, dir, model.OperationCopy, model.DispositionNew)
	sidecar := filepath.Join(dir, "src.xmp")
	os.WriteFile(sidecar, []byte("<xmp/>"), 0644)
	plan.Source.RelatedFiles = []string{sidecar}

	res := d.Dispatch(context.Background(), plan)
	if res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}

	wantSidecarDest := filepath.Join(dir, "out", "dst.xmp")
	if _, err := os.Stat(wantSidecarDest); err != nil {
		t.Fatalf("expected sidecar at %s: %v", wantSidecarDest, err)
	}
}

func TestDispatchDryRunDoesNotCopyRelatedFiles(t *testing.T) {
	dir := t.TempDir()
	fs := &fakeFS{}
	d := New(fs, true, report.Null())

	plan := newPlan(t, dir, model.OperationCopy, model.DispositionNew)
	sidecar := filepath.Join(dir, "src.xmp")
	os.WriteFile(sidecar, []byte("<xmp/>"), 0644)
	plan.Source.RelatedFiles = []string{sidecar}

	if res := d.Dispatch(context.Background(), plan); res.Err != nil {
		t.Fatalf("Dispatch: %v", res.Err)
	}

	if _, err := os.Stat(filepath.Join(dir, "out", "dst.xmp")); !os.IsNotExist(err) {
		t.Error("dry-run must not create a sidecar destination file")
	}
}

func TestRelatedDestPathStemMatch(t *testing.T) {
	got := relatedDestPath("/dst/2024/01/photo.jpg", "/src/IMG_0001.jpg", "/src/IMG_0001.xmp")
	want := "/dst/2024/01/photo.xmp"
	if got != want {
		t.Errorf("relatedDestPath = %q, want %q", got, want)
	}
}

func TestRelatedDestPathTakeoutSuffix(t *testing.T) {
	got := relatedDestPath("/dst/2024/01/photo.jpg", "/src/IMG_0001.jpg", "/src/IMG_0001.jpg.json")
	want := "/dst/2024/01/photo.jpg.json"
	if got != want {
		t.Errorf("relatedDestPath = %q, want %q", got, want)
	}
}
