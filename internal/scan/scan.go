package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kelly/fphoto/internal/util"
)

// Options controls JPEG discovery
type Options struct {
	Recursive     bool
	IncludeHidden bool
}

// Stats counts what discovery saw
type Stats struct {
	ScannedFiles  int `json:"scanned_files"`
	JPGFiles      int `json:"jpg_files"`
	SkippedNonJPG int `json:"skipped_non_jpg"`
	SkippedHidden int `json:"skipped_hidden"`
}

// IsJPG reports whether the path has a .jpg/.jpeg extension, any case.
func IsJPG(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".jpg" || ext == ".jpeg"
}

// Collect lists JPEG files under root in deterministic sorted order.
// Hidden files, and hidden directories in recursive mode, are skipped
// unless IncludeHidden is set.
func Collect(root string, opts Options) ([]string, Stats, error) {
	var stats Stats
	var files []string

	if opts.Recursive {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to walk %s: %w", root, err)
			}
			if d.IsDir() {
				if path != root && !opts.IncludeHidden && util.IsHidden(path) {
					stats.SkippedHidden++
					return filepath.SkipDir
				}
				return nil
			}
			collectFile(path, opts, &stats, &files)
			return nil
		})
		if err != nil {
			return nil, stats, err
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read directory %s: %w", root, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			collectFile(filepath.Join(root, entry.Name()), opts, &stats, &files)
		}
	}

	sort.Strings(files)

	return files, stats, nil
}

func collectFile(path string, opts Options, stats *Stats, files *[]string) {
	if !opts.IncludeHidden && util.IsHidden(path) {
		stats.SkippedHidden++
		return
	}
	stats.ScannedFiles++
	if IsJPG(path) {
		stats.JPGFiles++
		*files = append(*files, path)
	} else {
		stats.SkippedNonJPG++
	}
}
