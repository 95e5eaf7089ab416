// Package plan turns a set of JPG files plus their sidecars into a
// conflict-checked rename plan. Building a plan never touches the
// filesystem beyond reads; execution is a separate step.
package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/kelly/fphoto/internal/meta"
	"github.com/kelly/fphoto/internal/render"
	"github.com/kelly/fphoto/internal/report"
	"github.com/kelly/fphoto/internal/scan"
	"github.com/kelly/fphoto/internal/sidecar"
	"github.com/kelly/fphoto/internal/util"
)

var (
	// ErrMissingInput is returned when the JPG input path does not exist.
	ErrMissingInput = errors.New("input path not found")

	// ErrUnsupportedFileType is returned when the input is a single file
	// that is not a JPG.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrRawRootNotFound is returned when an explicitly given raw root
	// does not exist.
	ErrRawRootNotFound = errors.New("raw root not found")
)

// Request describes one planning run.
type Request struct {
	// JPGInput is a JPG file or a directory containing JPGs.
	JPGInput string `json:"jpg_input"`

	// RawInput is an explicit sidecar root. Empty means no explicit root.
	RawInput string `json:"raw_input,omitempty"`

	// RawParentIfMissing derives the sidecar root from the parent of the
	// JPG directory when RawInput is empty. A missing derived root is not
	// an error.
	RawParentIfMissing bool `json:"raw_parent_if_missing,omitempty"`

	Recursive     bool `json:"recursive,omitempty"`
	IncludeHidden bool `json:"include_hidden,omitempty"`

	Template        string   `json:"template"`
	Exclusions      []string `json:"exclusions,omitempty"`
	DedupeSameMaker bool     `json:"dedupe_same_maker"`
	MaxFilenameLen  int      `json:"max_filename_len"`
}

// Candidate is one file's planned rename.
type Candidate struct {
	OriginalPath string `json:"original_path"`
	TargetPath   string `json:"target_path"`
	Changed      bool   `json:"changed"`

	// Source names where the winning timestamp came from.
	Source meta.Source `json:"source"`

	// Error is set when the candidate cannot be applied, e.g. a name
	// collision within the plan. Errored candidates are never applied.
	Error string `json:"error,omitempty"`
}

// Stats summarizes a plan.
type Stats struct {
	scan.Stats

	Planned   int `json:"planned"`
	Unchanged int `json:"unchanged"`
	Conflicts int `json:"conflicts"`
}

// Plan is the full output of a planning run.
type Plan struct {
	Request    Request     `json:"request"`
	JPGRoot    string      `json:"jpg_root"`
	Candidates []Candidate `json:"candidates"`
	Stats      Stats       `json:"stats"`
}

// Config holds the builder dependencies.
type Config struct {
	Logger   *report.EventLogger
	Progress bool
}

// Builder constructs rename plans.
type Builder struct {
	logger   *report.EventLogger
	progress bool
}

// New creates a plan builder.
func New(cfg Config) *Builder {
	return &Builder{
		logger:   cfg.Logger,
		progress: cfg.Progress,
	}
}

// Build scans the input, merges metadata per file and renders target
// names. Candidates come back sorted by original path; name collisions
// within the plan are marked on the later candidate.
func (b *Builder) Build(req Request) (*Plan, error) {
	renderer, err := render.New(&render.Config{
		Template:        req.Template,
		Exclusions:      req.Exclusions,
		DedupeSameMaker: req.DedupeSameMaker,
		MaxFilenameLen:  req.MaxFilenameLen,
	})
	if err != nil {
		return nil, err
	}

	files, jpgRoot, stats, err := b.collectInput(req)
	if err != nil {
		return nil, err
	}

	resolver, err := b.buildResolver(req, jpgRoot)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Request: req,
		JPGRoot: jpgRoot,
		Stats:   Stats{Stats: stats},
	}

	bar := b.newProgressBar(len(files))
	taken := map[string]string{}

	for _, path := range files {
		cand := b.buildCandidate(path, resolver, renderer)

		key := candidateKey(cand.TargetPath)
		if prev, ok := taken[key]; ok && cand.Error == "" {
			cand.Error = fmt.Sprintf("target name already used by %s: %v",
				filepath.Base(prev), util.ErrConflict)
			cand.Changed = false
			plan.Stats.Conflicts++
			b.logger.LogConflict(cand.OriginalPath, cand.TargetPath,
				fmt.Sprintf("collides with %s", prev))
		} else if cand.Error == "" {
			taken[key] = cand.OriginalPath
		}

		switch {
		case cand.Error != "":
			// counted above
		case cand.Changed:
			plan.Stats.Planned++
			b.logger.LogPlan(cand.OriginalPath, cand.TargetPath,
				cand.Source.String(), true)
		default:
			plan.Stats.Unchanged++
			b.logger.LogPlan(cand.OriginalPath, cand.TargetPath,
				cand.Source.String(), false)
		}

		plan.Candidates = append(plan.Candidates, cand)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	return plan, nil
}

// collectInput resolves the JPG input into a sorted file list and its
// root directory.
func (b *Builder) collectInput(req Request) ([]string, string, scan.Stats, error) {
	info, err := os.Stat(req.JPGInput)
	if err != nil {
		return nil, "", scan.Stats{},
			fmt.Errorf("input %s: %w", req.JPGInput, ErrMissingInput)
	}

	if !info.IsDir() {
		if !scan.IsJPG(req.JPGInput) {
			return nil, "", scan.Stats{},
				fmt.Errorf("input %s: %w", req.JPGInput, ErrUnsupportedFileType)
		}
		stats := scan.Stats{ScannedFiles: 1, JPGFiles: 1}
		return []string{req.JPGInput}, filepath.Dir(req.JPGInput), stats, nil
	}

	files, stats, err := scan.Collect(req.JPGInput, scan.Options{
		Recursive:     req.Recursive,
		IncludeHidden: req.IncludeHidden,
	})
	if err != nil {
		return nil, "", scan.Stats{}, err
	}
	sort.Strings(files)
	return files, req.JPGInput, stats, nil
}

// buildResolver sets up sidecar lookup for the run. An explicit raw
// root must exist; a parent-derived root may be absent.
func (b *Builder) buildResolver(req Request, jpgRoot string) (*sidecar.Resolver, error) {
	cfg := sidecar.Config{
		JPGRoot:   jpgRoot,
		Recursive: req.Recursive,
	}

	switch {
	case req.RawInput != "":
		cfg.RawRoot = req.RawInput
	case req.RawParentIfMissing:
		cfg.RawRoot = filepath.Dir(jpgRoot)
		cfg.RootOptional = true
	}

	resolver, err := sidecar.New(&cfg)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return nil, fmt.Errorf("raw root %s: %w", req.RawInput, ErrRawRootNotFound)
		}
		return nil, err
	}
	return resolver, nil
}

// buildCandidate merges metadata for one JPG and renders its target.
func (b *Builder) buildCandidate(path string, resolver *sidecar.Resolver, renderer *render.Renderer) Candidate {
	set := resolver.Resolve(path)

	var xmpFields, rawFields, jpgFields *meta.Fields

	if set.XMPPath != "" {
		fields, err := meta.ReadXMP(set.XMPPath)
		if err != nil {
			util.DebugLog("xmp %s: %v", set.XMPPath, err)
		} else {
			xmpFields = fields
		}
	}
	if set.RawPath != "" {
		fields, err := meta.ReadEXIF(set.RawPath)
		if err != nil {
			util.DebugLog("raw exif %s: %v", set.RawPath, err)
		} else {
			rawFields = fields
		}
	}
	fields, err := meta.ReadEXIF(path)
	if err != nil {
		util.DebugLog("jpg exif %s: %v", path, err)
	} else {
		jpgFields = fields
	}

	mtime := util.FileModTime(path)
	if mtime.IsZero() {
		mtime = time.Now()
	}

	rec := meta.Merge(xmpFields, rawFields, jpgFields, mtime)

	base := filepath.Base(path)
	name := renderer.Render(rec, base)
	target := filepath.Join(filepath.Dir(path), name)

	return Candidate{
		OriginalPath: path,
		TargetPath:   target,
		Changed:      name != base,
		Source:       rec.Source,
	}
}

// candidateKey keys collision detection by directory plus exact target
// name. Comparison is case sensitive; case-only renames are legitimate
// on case-insensitive filesystems and handled at apply time.
func candidateKey(target string) string {
	return filepath.Dir(target) + "\x00" + filepath.Base(target)
}

func (b *Builder) newProgressBar(total int) *progressbar.ProgressBar {
	if !b.progress || !util.IsTerminal(os.Stdout.Fd()) || util.IsQuiet() {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Planning"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}
