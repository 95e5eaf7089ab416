package sidecar

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kelly/fphoto/internal/util"
)

// rawExtPriority is the search order for RAW image sidecars. DNG wins
// over RAF when both share a basename.
var rawExtPriority = []string{"dng", "raf"}

// Set holds the files associated with one JPEG by shared basename.
// XMPPath and RawPath are empty when no match exists.
type Set struct {
	JPGPath string
	XMPPath string
	RawPath string
}

// Resolver finds sidecar files for JPEGs by case-insensitive basename
// match inside a RAW root. The index is built once per planning run.
type Resolver struct {
	jpgRoot   string
	rawRoot   string
	recursive bool

	// relative dir -> lowercased stem -> sorted file names
	index map[string]map[string][]string
}

// Config holds resolver configuration
type Config struct {
	JPGRoot   string
	RawRoot   string // empty disables the sidecar search entirely
	Recursive bool

	// RootOptional marks RawRoot as derived rather than user-supplied;
	// a missing derived root yields an empty resolver, not an error.
	RootOptional bool
}

// New builds a sidecar resolver over cfg.RawRoot. An explicitly supplied
// root that does not exist is an error for the whole planning request.
func New(cfg *Config) (*Resolver, error) {
	r := &Resolver{
		jpgRoot:   cfg.JPGRoot,
		rawRoot:   cfg.RawRoot,
		recursive: cfg.Recursive,
		index:     make(map[string]map[string][]string),
	}

	if cfg.RawRoot == "" {
		return r, nil
	}

	info, err := os.Stat(cfg.RawRoot)
	if err != nil || !info.IsDir() {
		if cfg.RootOptional {
			r.rawRoot = ""
			return r, nil
		}
		return nil, fmt.Errorf("raw root %s: %w", cfg.RawRoot, util.ErrNotFound)
	}

	if err := r.buildIndex(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Resolver) buildIndex() error {
	add := func(relDir, name string) {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
		if ext != "xmp" && ext != "dng" && ext != "raf" {
			return
		}
		stem := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		if stem == "" {
			return
		}
		stems, ok := r.index[relDir]
		if !ok {
			stems = make(map[string][]string)
			r.index[relDir] = stems
		}
		stems[stem] = append(stems[stem], name)
	}

	if r.recursive {
		err := filepath.WalkDir(r.rawRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("failed to walk raw root %s: %w", r.rawRoot, err)
			}
			if d.IsDir() {
				return nil
			}
			rel, relErr := filepath.Rel(r.rawRoot, path)
			if relErr != nil {
				return nil
			}
			add(filepath.Dir(rel), d.Name())
			return nil
		})
		if err != nil {
			return err
		}
	} else {
		entries, err := os.ReadDir(r.rawRoot)
		if err != nil {
			return fmt.Errorf("failed to read raw root %s: %w", r.rawRoot, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			add(".", entry.Name())
		}
	}

	for _, stems := range r.index {
		for _, names := range stems {
			sort.Strings(names)
		}
	}

	return nil
}

// Resolve returns the sidecar set for one JPEG. XMP and RAW matches are
// independent; either, both or neither may be present.
func (r *Resolver) Resolve(jpgPath string) Set {
	set := Set{JPGPath: jpgPath}
	if r.rawRoot == "" {
		return set
	}

	relDir := r.searchDir(jpgPath)
	base := filepath.Base(jpgPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	if name := r.match(relDir, stem, "xmp"); name != "" {
		set.XMPPath = r.joinRaw(relDir, name)
	}
	for _, ext := range rawExtPriority {
		if name := r.match(relDir, stem, ext); name != "" {
			set.RawPath = r.joinRaw(relDir, name)
			break
		}
	}

	return set
}

func (r *Resolver) searchDir(jpgPath string) string {
	if !r.recursive {
		return "."
	}
	rel, err := filepath.Rel(r.jpgRoot, filepath.Dir(jpgPath))
	if err != nil {
		return "."
	}
	return rel
}

func (r *Resolver) joinRaw(relDir, name string) string {
	if relDir == "." {
		return filepath.Join(r.rawRoot, name)
	}
	return filepath.Join(r.rawRoot, relDir, name)
}

// match returns the best candidate file name for stem.ext, preferring an
// exact-case name, then the upper-cased extension, then any
// case-insensitive match.
func (r *Resolver) match(relDir, stem, ext string) string {
	stems, ok := r.index[relDir]
	if !ok {
		return ""
	}
	candidates := stems[strings.ToLower(stem)]
	if len(candidates) == 0 {
		return ""
	}

	exact := stem + "." + ext
	upper := stem + "." + strings.ToUpper(ext)
	for _, want := range []string{exact, upper} {
		for _, name := range candidates {
			if name == want {
				return name
			}
		}
	}
	for _, name := range candidates {
		if strings.EqualFold(name, exact) {
			return name
		}
	}
	for _, name := range candidates {
		candidateExt := strings.TrimPrefix(filepath.Ext(name), ".")
		if strings.EqualFold(candidateExt, ext) {
			return name
		}
	}
	return ""
}
