package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLedgerEmpty(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Ledger()
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if ok {
		t.Error("expected no ledger entry in a fresh store")
	}
}

func TestReplaceAndLedger(t *testing.T) {
	s := openTestStore(t)

	entry := LedgerEntry{
		AppliedAt:  time.Date(2026, 2, 8, 9, 0, 0, 0, time.UTC),
		JPGRoot:    "/photos",
		BackupMade: true,
		BackupDir:  "/photos/backup-20260208-090000",
		Ops: []Op{
			{CurrentPath: "/photos/new1.jpg", OriginalPath: "/photos/old1.jpg"},
			{CurrentPath: "/photos/new2.jpg", OriginalPath: "/photos/old2.jpg"},
		},
	}
	if err := s.Replace(entry); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, ok, err := s.Ledger()
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a ledger entry")
	}

	if !got.AppliedAt.Equal(entry.AppliedAt) {
		t.Errorf("AppliedAt = %v, want %v", got.AppliedAt, entry.AppliedAt)
	}
	if got.JPGRoot != entry.JPGRoot {
		t.Errorf("JPGRoot = %q, want %q", got.JPGRoot, entry.JPGRoot)
	}
	if !got.BackupMade || got.BackupDir != entry.BackupDir {
		t.Errorf("backup fields = %v %q", got.BackupMade, got.BackupDir)
	}
	if len(got.Ops) != 2 {
		t.Fatalf("got %d ops, want 2", len(got.Ops))
	}
	// insertion order preserved
	if got.Ops[0].CurrentPath != "/photos/new1.jpg" ||
		got.Ops[1].OriginalPath != "/photos/old2.jpg" {
		t.Errorf("ops out of order: %+v", got.Ops)
	}
}

func TestReplaceDropsPreviousRun(t *testing.T) {
	s := openTestStore(t)

	first := LedgerEntry{
		AppliedAt: time.Now(),
		JPGRoot:   "/a",
		Ops:       []Op{{CurrentPath: "/a/x.jpg", OriginalPath: "/a/y.jpg"}},
	}
	if err := s.Replace(first); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	second := LedgerEntry{
		AppliedAt: time.Now(),
		JPGRoot:   "/b",
		Ops: []Op{
			{CurrentPath: "/b/1.jpg", OriginalPath: "/b/2.jpg"},
		},
	}
	if err := s.Replace(second); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got, ok, err := s.Ledger()
	if err != nil || !ok {
		t.Fatalf("Ledger failed: %v ok=%v", err, ok)
	}
	if got.JPGRoot != "/b" {
		t.Errorf("JPGRoot = %q, want /b", got.JPGRoot)
	}
	if len(got.Ops) != 1 || got.Ops[0].CurrentPath != "/b/1.jpg" {
		t.Errorf("ops = %+v, want only second run's op", got.Ops)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)

	entry := LedgerEntry{
		AppliedAt: time.Now(),
		JPGRoot:   "/a",
		Ops:       []Op{{CurrentPath: "/a/x.jpg", OriginalPath: "/a/y.jpg"}},
	}
	if err := s.Replace(entry); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	_, ok, err := s.Ledger()
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if ok {
		t.Error("expected ledger to be empty after Clear")
	}
}

func TestReopenKeepsLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	entry := LedgerEntry{
		AppliedAt: time.Now(),
		JPGRoot:   "/a",
		Ops:       []Op{{CurrentPath: "/a/x.jpg", OriginalPath: "/a/y.jpg"}},
	}
	if err := s.Replace(entry); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	_, ok, err := s2.Ledger()
	if err != nil {
		t.Fatalf("Ledger failed: %v", err)
	}
	if !ok {
		t.Error("expected ledger to survive reopen")
	}
}
