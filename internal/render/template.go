package render

import (
	"fmt"
	"strings"

	"github.com/kelly/fphoto/internal/meta"
	"github.com/kelly/fphoto/internal/util"
)

// forbiddenChars are rejected in templates and replaced in rendered
// values. They are invalid in filenames on at least one supported OS.
const forbiddenChars = `\/:*?"<>|`

// Validate checks a template without rendering it. It is exposed
// separately so callers can give live feedback while a template is being
// edited. Unknown tokens are not an error; they pass through verbatim.
func Validate(template string) error {
	if template == "" {
		return fmt.Errorf("empty template: %w", util.ErrInvalidTemplate)
	}
	if i := strings.IndexAny(template, forbiddenChars); i >= 0 {
		return fmt.Errorf("template contains disallowed character %q: %w",
			template[i], util.ErrInvalidTemplate)
	}
	return nil
}

// expandTokens substitutes recognized {token} sequences against the
// record. Unrecognized tokens and unbalanced braces are kept verbatim.
func expandTokens(template string, rec meta.Record, origStem string, dedupeSameMaker bool) string {
	lensMaker := rec.LensMaker
	if dedupeSameMaker && rec.CameraMaker != "" && rec.CameraMaker == rec.LensMaker {
		lensMaker = ""
	}

	values := map[string]string{
		"year":         fmt.Sprintf("%04d", rec.Taken.Year()),
		"month":        fmt.Sprintf("%02d", int(rec.Taken.Month())),
		"day":          fmt.Sprintf("%02d", rec.Taken.Day()),
		"hour":         fmt.Sprintf("%02d", rec.Taken.Hour()),
		"minute":       fmt.Sprintf("%02d", rec.Taken.Minute()),
		"second":       fmt.Sprintf("%02d", rec.Taken.Second()),
		"camera_maker": rec.CameraMaker,
		"camera_model": rec.CameraModel,
		"lens_maker":   lensMaker,
		"lens_model":   rec.LensModel,
		"film_sim":     rec.FilmSim,
		"orig_name":    origStem,
	}

	var out strings.Builder
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			out.WriteString(rest)
			break
		}
		close := strings.IndexByte(rest[open:], '}')
		if close < 0 {
			out.WriteString(rest)
			break
		}
		close += open

		out.WriteString(rest[:open])
		token := rest[open+1 : close]
		if value, ok := values[token]; ok {
			out.WriteString(value)
		} else {
			out.WriteString(rest[open : close+1])
		}
		rest = rest[close+1:]
	}

	return out.String()
}
