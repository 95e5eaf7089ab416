package meta

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// xmpKeys are the element/attribute local names (lowercased, namespace
// stripped) that carry rename-relevant values. First hit wins per key.
var xmpKeys = map[string]bool{
	"datetimeoriginal":   true,
	"createdate":         true,
	"datecreated":        true,
	"make":               true,
	"model":              true,
	"lensmake":           true,
	"lensmodel":          true,
	"lens":               true,
	"filmsimulation":     true,
	"filmmode":           true,
	"filmsimulationname": true,
}

// ReadXMP extracts rename-relevant fields from an XMP sidecar. Both
// rdf:Description attribute form and element-text form are accepted, with
// namespace prefixes ignored.
func ReadXMP(path string) (*Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	values := collectXMPValues(f)

	fields := &Fields{
		Taken:       ParseTime(pickValue(values, "datetimeoriginal", "createdate", "datecreated")),
		CameraMaker: pickValue(values, "make"),
		CameraModel: pickValue(values, "model"),
		LensMaker:   pickValue(values, "lensmake"),
		LensModel:   pickValue(values, "lensmodel", "lens"),
		FilmSim:     pickValue(values, "filmsimulation", "filmmode", "filmsimulationname"),
	}

	return fields, nil
}

func pickValue(values map[string]string, keys ...string) string {
	for _, key := range keys {
		if v, ok := values[key]; ok {
			return v
		}
	}
	return ""
}

func collectXMPValues(r io.Reader) map[string]string {
	values := make(map[string]string)
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	var openKey string
	var text strings.Builder

	for {
		token, err := decoder.Token()
		if err != nil {
			break // EOF or malformed tail; keep what was collected
		}

		switch tok := token.(type) {
		case xml.StartElement:
			for _, attr := range tok.Attr {
				key := normalizeXMPName(attr.Name.Local)
				if !xmpKeys[key] {
					continue
				}
				if _, seen := values[key]; seen {
					continue
				}
				if v := strings.TrimSpace(attr.Value); v != "" {
					values[key] = v
				}
			}

			key := normalizeXMPName(tok.Name.Local)
			if xmpKeys[key] {
				openKey = key
				text.Reset()
			} else {
				openKey = ""
			}

		case xml.CharData:
			if openKey != "" {
				text.Write(tok)
			}

		case xml.EndElement:
			if openKey == "" {
				continue
			}
			if _, seen := values[openKey]; !seen {
				if v := strings.TrimSpace(text.String()); v != "" {
					values[openKey] = v
				}
			}
			openKey = ""
		}
	}

	return values
}

// normalizeXMPName strips non-alphanumerics and lowercases, so
// exif:DateTimeOriginal, xmp:CreateDate and plain CreateDate all key the
// same way.
func normalizeXMPName(name string) string {
	var b strings.Builder
	for _, ch := range name {
		if (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9') {
			b.WriteRune(ch)
		} else if ch >= 'A' && ch <= 'Z' {
			b.WriteRune(ch + ('a' - 'A'))
		}
	}
	return b.String()
}
