package meta

import (
	"encoding/json"
	"strings"
	"time"
)

// Source identifies which source supplied the capture timestamp of a
// merged record.
type Source int

const (
	SourceXMP Source = iota
	SourceRawEXIF
	SourceJPGEXIF
	SourceFileModified
)

// String returns the stable label used in plan output and event logs.
func (s Source) String() string {
	switch s {
	case SourceXMP:
		return "xmp"
	case SourceRawEXIF:
		return "raw_exif"
	case SourceJPGEXIF:
		return "jpg_exif"
	default:
		return "file_modified_time"
	}
}

// MarshalJSON encodes the source as its label.
func (s Source) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a source label.
func (s *Source) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	*s = ParseSource(label)
	return nil
}

// ParseSource maps a label back to its Source. Unknown labels map to
// SourceFileModified, the weakest provenance.
func ParseSource(label string) Source {
	switch label {
	case "xmp":
		return SourceXMP
	case "raw_exif":
		return SourceRawEXIF
	case "jpg_exif":
		return SourceJPGEXIF
	default:
		return SourceFileModified
	}
}

// Fields holds one source's partial contribution to a photo's metadata.
// A zero Taken time means the source supplied no capture timestamp;
// empty strings mean the source supplied nothing for that field.
type Fields struct {
	Taken       time.Time
	CameraMaker string
	CameraModel string
	LensMaker   string
	LensModel   string
	FilmSim     string
}

// Record is the resolved metadata for one photo. Once constructed it is
// never mutated; every field holds the most-preferred non-empty value.
type Record struct {
	Taken       time.Time
	CameraMaker string
	CameraModel string
	LensMaker   string
	LensModel   string
	FilmSim     string
	Source      Source
}

// Merge combines up to three partial sources into one Record. Each field
// takes the first non-empty value in priority order XMP, RAW EXIF, JPG
// EXIF. Source records which source supplied the capture timestamp; when
// none did, mtime is used and the source is SourceFileModified.
func Merge(xmp, rawExif, jpgExif *Fields, mtime time.Time) Record {
	sources := []struct {
		fields *Fields
		source Source
	}{
		{xmp, SourceXMP},
		{rawExif, SourceRawEXIF},
		{jpgExif, SourceJPGEXIF},
	}

	rec := Record{Source: SourceFileModified}
	for _, s := range sources {
		if s.fields == nil {
			continue
		}
		if rec.Taken.IsZero() && !s.fields.Taken.IsZero() {
			rec.Taken = s.fields.Taken
			rec.Source = s.source
		}
		if rec.CameraMaker == "" {
			rec.CameraMaker = clean(s.fields.CameraMaker)
		}
		if rec.CameraModel == "" {
			rec.CameraModel = clean(s.fields.CameraModel)
		}
		if rec.LensMaker == "" {
			rec.LensMaker = clean(s.fields.LensMaker)
		}
		if rec.LensModel == "" {
			rec.LensModel = clean(s.fields.LensModel)
		}
		if rec.FilmSim == "" {
			rec.FilmSim = clean(s.fields.FilmSim)
		}
	}

	if rec.Taken.IsZero() {
		rec.Taken = mtime
	}

	return rec
}

// Empty reports whether the source contributed nothing at all.
func (f *Fields) Empty() bool {
	return f == nil || (f.Taken.IsZero() &&
		f.CameraMaker == "" && f.CameraModel == "" &&
		f.LensMaker == "" && f.LensModel == "" && f.FilmSim == "")
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

// timeLayouts are the accepted capture timestamp formats, EXIF style
// first, then ISO-8601 variants seen in XMP sidecars.
var timeLayouts = []string{
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
}

// ParseTime parses a capture timestamp in any supported layout. The zero
// time is returned when no layout matches.
func ParseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
