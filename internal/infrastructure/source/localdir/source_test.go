package localdir

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_cam.jpg", []byte("x"))
	writeFile(t, dir, "a_cam.png", []byte("x"))
	writeFile(t, dir, "notes.txt", []byte("x"))
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	source, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	refs, err := source.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(refs) != 2 {
		t.Fatalf("listed %d refs, want 2", len(refs))
	}
	if refs[0].ID != "a_cam.png" || refs[1].ID != "b_cam.jpg" {
		t.Errorf("unexpected order: %v", refs)
	}
}

func TestResolveReturnsDataURL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frame.jpg", []byte{0xff, 0xd8, 0xff})

	source, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	locator, err := source.Resolve(context.Background(), "frame.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(locator, "data:image/jpeg;base64,") {
		t.Errorf("locator = %q, want data URL", locator)
	}
}

func TestPathConfinedToDir(t *testing.T) {
	dir := t.TempDir()
	source, err := New(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := source.Resolve(context.Background(), "../../etc/passwd"); err == nil {
		t.Error("traversal id should not resolve")
	}
}

func TestNewRejectsMissingDir(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("expected error for missing directory")
	}
}
