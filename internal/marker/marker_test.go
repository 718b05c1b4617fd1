package marker

import (
	"path/filepath"
	"testing"
)

// setupTestStore opens a store in a temporary directory.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "state", "state.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open marker store: %v", err)
	}
	return s, path
}

func TestGrantMarkerPersists(t *testing.T) {
	s, path := setupTestStore(t)

	ok, err := s.HasPriorGrant()
	if err != nil {
		t.Fatalf("HasPriorGrant failed: %v", err)
	}
	if ok {
		t.Fatal("fresh store should not report a prior grant")
	}

	if err := s.MarkGranted(); err != nil {
		t.Fatalf("MarkGranted failed: %v", err)
	}
	if err := s.MarkGranted(); err != nil {
		t.Fatalf("second MarkGranted failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	ok, err = reopened.HasPriorGrant()
	if err != nil {
		t.Fatalf("HasPriorGrant failed: %v", err)
	}
	if !ok {
		t.Error("grant marker did not survive reopen")
	}
}

func TestGetSet(t *testing.T) {
	s, _ := setupTestStore(t)
	defer s.Close()

	if _, ok, err := s.Get("missing"); err != nil || ok {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}
	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set("k", "v2"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get("k")
	if err != nil || !ok || v != "v2" {
		t.Errorf("Get(k) = %q, %v, %v; want v2", v, ok, err)
	}
}

func TestOtherValueIsNotGrant(t *testing.T) {
	s, _ := setupTestStore(t)
	defer s.Close()

	if err := s.Set(GrantKey, "0"); err != nil {
		t.Fatal(err)
	}
	ok, err := s.HasPriorGrant()
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error(`only "1" should count as granted`)
	}
}

func TestClosedStore(t *testing.T) {
	s, _ := setupTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
	if _, err := s.HasPriorGrant(); err == nil {
		t.Error("expected error from closed store")
	}
}
