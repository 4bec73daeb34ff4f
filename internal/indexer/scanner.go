package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScannedFile represents a supported document found under the documents path.
type ScannedFile struct {
	RelPath string // Relative path from the scan root, forward slashes
	AbsPath string
}

// ScanDocuments lists supported documents under root. root may also be a single file.
// Hidden directories are skipped.
func ScanDocuments(ctx context.Context, root string) ([]ScannedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access documents path %s: %w", root, err)
	}

	if !info.IsDir() {
		if !SupportedExtensions[strings.ToLower(filepath.Ext(root))] {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, root)
		}
		return []ScannedFile{{RelPath: filepath.Base(root), AbsPath: root}}, nil
	}

	var files []ScannedFile
	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		// Check for context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !SupportedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}
