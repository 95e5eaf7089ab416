package render

import (
	"path/filepath"
	"strings"

	"github.com/kelly/fphoto/internal/meta"
)

// DefaultMaxFilenameLen bounds the rendered basename, extension included.
const DefaultMaxFilenameLen = 240

// Renderer expands a naming template against resolved metadata and runs
// the result through the sanitization pipeline.
type Renderer struct {
	template        string
	exclusions      []string
	dedupeSameMaker bool
	maxLen          int
}

// Config holds renderer configuration
type Config struct {
	Template        string
	Exclusions      []string
	DedupeSameMaker bool
	MaxFilenameLen  int
}

// New validates the template and creates a Renderer.
func New(cfg *Config) (*Renderer, error) {
	if err := Validate(cfg.Template); err != nil {
		return nil, err
	}

	maxLen := cfg.MaxFilenameLen
	if maxLen <= 0 {
		maxLen = DefaultMaxFilenameLen
	}

	return &Renderer{
		template:        cfg.Template,
		exclusions:      cfg.Exclusions,
		dedupeSameMaker: cfg.DedupeSameMaker,
		maxLen:          maxLen,
	}, nil
}

// Render produces the new basename for a photo. originalName is the
// current basename; its extension is preserved, case included, and
// re-appended after the pipeline.
//
// Pipeline order: token substitution, exclusion removal, whitespace and
// forbidden-character normalization, length enforcement.
func (r *Renderer) Render(rec meta.Record, originalName string) string {
	ext := filepath.Ext(originalName)
	origStem := strings.TrimSuffix(originalName, ext)

	stem := expandTokens(r.template, rec, origStem, r.dedupeSameMaker)
	stem = ApplyExclusions(stem, r.exclusions)
	stem = SanitizeStem(stem)
	stem = TruncateStem(stem, ext, r.maxLen)

	return stem + ext
}
