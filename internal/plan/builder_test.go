package plan

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kelly/fphoto/internal/util"
)

func writePhoto(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte("not a real jpeg"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}
}

func writeSidecarXMP(t *testing.T, path string) {
	t.Helper()
	content := `<?xml version="1.0"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:exif="http://ns.adobe.com/exif/1.0/"
    exif:DateTimeOriginal="2024-12-31T23:59:59"/>
 </rdf:RDF>
</x:xmpmeta>`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write xmp: %v", err)
	}
}

var testMtime = time.Date(2026, 2, 8, 9, 0, 0, 0, time.Local)

func TestBuildFromModifiedTime(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "IMG_0001.JPG"), testMtime)

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput: dir,
		Template: "{year}{month}{day}_{orig_name}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(p.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(p.Candidates))
	}
	cand := p.Candidates[0]

	wantTarget := filepath.Join(dir, "20260208_IMG_0001.JPG")
	if cand.TargetPath != wantTarget {
		t.Errorf("TargetPath = %q, want %q", cand.TargetPath, wantTarget)
	}
	if !cand.Changed {
		t.Error("expected Changed")
	}
	if cand.Source.String() != "file_modified_time" {
		t.Errorf("Source = %q, want file_modified_time", cand.Source)
	}
	if p.Stats.Planned != 1 {
		t.Errorf("Planned = %d, want 1", p.Stats.Planned)
	}
}

func TestBuildUsesXMPSidecar(t *testing.T) {
	jpgDir := t.TempDir()
	rawDir := t.TempDir()
	writePhoto(t, filepath.Join(jpgDir, "DSCF0001.JPG"), testMtime)
	writeSidecarXMP(t, filepath.Join(rawDir, "DSCF0001.xmp"))

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput: jpgDir,
		RawInput: rawDir,
		Template: "{year}{month}{day}_{orig_name}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	cand := p.Candidates[0]
	if cand.Source.String() != "xmp" {
		t.Errorf("Source = %q, want xmp", cand.Source)
	}
	if base := filepath.Base(cand.TargetPath); base != "20241231_DSCF0001.JPG" {
		t.Errorf("target = %q, want 20241231_DSCF0001.JPG", base)
	}
}

func TestBuildDetectsCollision(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "a.jpg"), testMtime)
	writePhoto(t, filepath.Join(dir, "b.jpg"), testMtime)

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput: dir,
		Template: "{year}{month}{day}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(p.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(p.Candidates))
	}
	// sorted order: a.jpg plans cleanly, b.jpg hits the collision
	first, second := p.Candidates[0], p.Candidates[1]
	if first.Error != "" {
		t.Errorf("first candidate errored: %s", first.Error)
	}
	if second.Error == "" {
		t.Error("expected collision error on second candidate")
	}
	if second.Changed {
		t.Error("collided candidate must not be marked for apply")
	}
	if p.Stats.Conflicts != 1 || p.Stats.Planned != 1 {
		t.Errorf("stats = %+v", p.Stats)
	}
	if !strings.Contains(second.Error, "a.jpg") {
		t.Errorf("collision error should name the winner: %s", second.Error)
	}
}

func TestBuildUnchangedOccupiesName(t *testing.T) {
	dir := t.TempDir()
	// already carries its target name
	writePhoto(t, filepath.Join(dir, "20260208.jpg"), testMtime)
	writePhoto(t, filepath.Join(dir, "b.jpg"), testMtime)

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput: dir,
		Template: "{year}{month}{day}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	var unchanged, collided int
	for _, cand := range p.Candidates {
		if !cand.Changed && cand.Error == "" {
			unchanged++
		}
		if cand.Error != "" {
			collided++
		}
	}
	if unchanged != 1 {
		t.Errorf("unchanged = %d, want 1", unchanged)
	}
	// b.jpg renders to 20260208.jpg, which the unchanged file holds
	if collided != 1 {
		t.Errorf("collided = %d, want 1", collided)
	}
}

func TestBuildSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "IMG_0001.jpg")
	writePhoto(t, path, testMtime)

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput: path,
		Template: "{year}_{orig_name}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if len(p.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(p.Candidates))
	}
	if p.JPGRoot != dir {
		t.Errorf("JPGRoot = %q, want %q", p.JPGRoot, dir)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := t.TempDir()
	writePhoto(t, filepath.Join(dir, "notes.txt"), testMtime)
	writePhoto(t, filepath.Join(dir, "ok.jpg"), testMtime)

	testCases := []struct {
		name string
		req  Request
		want error
	}{
		{
			name: "missing input",
			req:  Request{JPGInput: filepath.Join(dir, "nope"), Template: "{year}"},
			want: ErrMissingInput,
		},
		{
			name: "non-jpg single file",
			req:  Request{JPGInput: filepath.Join(dir, "notes.txt"), Template: "{year}"},
			want: ErrUnsupportedFileType,
		},
		{
			name: "missing raw root",
			req: Request{
				JPGInput: dir,
				RawInput: filepath.Join(dir, "no-raws"),
				Template: "{year}",
			},
			want: ErrRawRootNotFound,
		},
		{
			name: "invalid template",
			req:  Request{JPGInput: dir, Template: "a/b"},
			want: util.ErrInvalidTemplate,
		},
	}

	b := New(Config{})
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := b.Build(tc.req); !errors.Is(err, tc.want) {
				t.Errorf("Build = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBuildParentDerivedRawRoot(t *testing.T) {
	parent := t.TempDir()
	jpgDir := filepath.Join(parent, "jpg")
	writePhoto(t, filepath.Join(jpgDir, "a.jpg"), testMtime)
	writeSidecarXMP(t, filepath.Join(parent, "a.xmp"))

	b := New(Config{})
	p, err := b.Build(Request{
		JPGInput:           jpgDir,
		RawParentIfMissing: true,
		Template:           "{year}{month}{day}_{orig_name}",
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if p.Candidates[0].Source.String() != "xmp" {
		t.Errorf("Source = %q, want xmp from the parent sidecar", p.Candidates[0].Source)
	}
}
