package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestScanDocuments(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"qualification.md",
		"manual/repayment.pdf",
		"manual/faq.TXT",
		"manual/table.csv",
		".git/HEAD.md",
		"archive/.old/legacy.md",
	}
	for _, rel := range testFiles {
		fullPath := filepath.Join(tmpDir, rel)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte("# Test"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}

	files, err := ScanDocuments(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("ScanDocuments() error = %v", err)
	}

	want := []string{"manual/faq.TXT", "manual/repayment.pdf", "qualification.md"}
	if len(files) != len(want) {
		t.Fatalf("ScanDocuments() returned %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, f := range files {
		if f.RelPath != want[i] {
			t.Errorf("files[%d].RelPath = %s, want %s", i, f.RelPath, want[i])
		}
		if f.AbsPath != filepath.Join(tmpDir, filepath.FromSlash(want[i])) {
			t.Errorf("files[%d].AbsPath = %s", i, f.AbsPath)
		}
	}
}

func TestScanDocuments_SingleFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "loan.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	files, err := ScanDocuments(context.Background(), path)
	if err != nil {
		t.Fatalf("ScanDocuments() error = %v", err)
	}
	if len(files) != 1 || files[0].RelPath != "loan.pdf" || files[0].AbsPath != path {
		t.Errorf("ScanDocuments() = %+v", files)
	}

	other := filepath.Join(tmpDir, "image.png")
	if err := os.WriteFile(other, []byte{0}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ScanDocuments(context.Background(), other); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ScanDocuments(png) error = %v, want ErrUnsupported", err)
	}
}

func TestScanDocuments_Errors(t *testing.T) {
	if _, err := ScanDocuments(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ScanDocuments() expected error for missing path")
	}

	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "a.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ScanDocuments(ctx, tmpDir); !errors.Is(err, context.Canceled) {
		t.Errorf("ScanDocuments() with canceled context error = %v, want context.Canceled", err)
	}
}
