package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStore_SaveAndURL(t *testing.T) {
	dir := t.TempDir()
	s, err := NewDiskStore(dir, "/uploads/")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	url, err := s.Save(context.Background(), 42, "slip.JPG", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/receipt_42_") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("url = %q", url)
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 1 {
		t.Fatalf("entries = %v, %v", entries, err)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil || string(data) != "fake image bytes" {
		t.Fatalf("stored content = %q, %v", data, err)
	}
}

func TestDiskStore_RejectsUnknownType(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := s.Save(context.Background(), 1, "malware.exe", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestDiskStore_RandomizedNames(t *testing.T) {
	s, err := NewDiskStore(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	a, _ := s.Save(context.Background(), 7, "slip.png", strings.NewReader("a"))
	b, _ := s.Save(context.Background(), 7, "slip.png", strings.NewReader("b"))
	if a == b {
		t.Fatalf("expected distinct names, got %q twice", a)
	}
}
