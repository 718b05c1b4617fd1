package capability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func assertFileExists(t *testing.T, path string) {
	t.Helper()
	st, err := os.Stat(path)
	if err != nil {
		t.Fatalf("file '%s' doesn't exist, os.Stat() failed with '%s'", path, err)
	}
	if !st.Mode().IsRegular() {
		t.Fatalf("path '%s' exists but is not a file (mode: %d)", path, int(st.Mode()))
	}
}

func assertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Fatalf("file '%s' exists, expected to not exist", path)
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("leftover file %s", e.Name())
		}
	}
}

func TestReadWrite(t *testing.T) {
	path := writeBackingFile(t, "[]")
	c := newCapability(path)
	ctx := context.Background()

	data, err := c.ReadAll(ctx)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [], got %q", data)
	}

	if err := c.WriteAll(ctx, []byte("[1]")); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "[1]" {
		t.Errorf("expected [1], got %q", data)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestReadMissingFile(t *testing.T) {
	c := newCapability(filepath.Join(t.TempDir(), "gone.json"))
	data, err := c.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll on missing file should not fail: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("expected no data, got %q", data)
	}
}

func TestReleased(t *testing.T) {
	path := writeBackingFile(t, "[]")
	c := newCapability(path)
	c.Release()
	c.Release()

	if c.Valid() {
		t.Error("released capability should be invalid")
	}
	if err := c.WriteAll(context.Background(), []byte("[1]")); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}
	if _, err := c.ReadAll(context.Background()); !errors.Is(err, ErrReleased) {
		t.Fatalf("expected ErrReleased, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("file changed after release: %q", data)
	}

	var nilCap *Capability
	if nilCap.Valid() {
		t.Error("nil capability should be invalid")
	}
	nilCap.Release()
}

func TestBusy(t *testing.T) {
	path := writeBackingFile(t, "[]")
	c := newCapability(path)

	end, err := c.begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := c.WriteAll(context.Background(), []byte("[1]")); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	end()

	if err := c.WriteAll(context.Background(), []byte("[1]")); err != nil {
		t.Fatalf("WriteAll after end failed: %v", err)
	}
}

func TestWriteFailureLeavesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "share")
	if err := os.Mkdir(dir, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "shared.json")
	c := newCapability(path)

	// simulate the share going away
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := c.WriteAll(context.Background(), []byte("[1]")); err == nil {
		t.Fatal("expected write to fail")
	}
	assertFileNotExists(t, path)
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	for i := 0; i < 3; i++ {
		if err := writeFileAtomic(path, []byte("[]\n")); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}
	}
	assertFileExists(t, path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only out.json, got %v", names)
	}
}

func TestAtomicWriteNewFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.json")
	if err := writeFileAtomic(path, []byte("[]\n")); err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != defaultMode {
		t.Errorf("expected mode %o, got %o", defaultMode, st.Mode().Perm())
	}
}

func TestAtomicFilePreservesMode(t *testing.T) {
	path := writeBackingFile(t, "[]")
	if err := os.Chmod(path, 0664); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(path, []byte("[ ]")); err != nil {
		t.Fatalf("writeFileAtomic failed: %v", err)
	}
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Mode().Perm() != 0664 {
		t.Errorf("expected mode 0664, got %o", st.Mode().Perm())
	}
}

func TestCreateEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	if err := CreateEmpty(path); err != nil {
		t.Fatalf("CreateEmpty failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]\n" {
		t.Errorf("expected empty array, got %q", data)
	}
	if err := CreateEmpty(path); !errors.Is(err, os.ErrExist) {
		t.Errorf("expected ErrExist on second create, got %v", err)
	}
}
