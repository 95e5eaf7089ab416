package meta

import (
	"fmt"
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// ReadEXIF extracts rename-relevant fields from a JPEG or TIFF-based RAW
// file (DNG). Compressed RAW containers without a TIFF header (RAF) fail
// to decode; callers treat any error as "source absent".
//
// Film simulation lives in Fujifilm maker notes, which goexif does not
// decode, so EXIF never contributes FilmSim; XMP sidecars do.
func ReadEXIF(path string) (*Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode exif in %s: %w", path, err)
	}

	fields := &Fields{
		Taken:       exifTime(x, exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime),
		CameraMaker: exifString(x, exif.Make),
		CameraModel: exifString(x, exif.Model),
		LensMaker:   exifString(x, exif.LensMake),
		LensModel:   exifString(x, exif.LensModel),
	}

	return fields, nil
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	value, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return value
}

func exifTime(x *exif.Exif, names ...exif.FieldName) time.Time {
	for _, name := range names {
		raw := exifString(x, name)
		if raw == "" {
			continue
		}
		if t := ParseTime(raw); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}
