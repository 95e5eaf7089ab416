package render

import (
	"errors"
	"testing"
	"time"

	"github.com/kelly/fphoto/internal/meta"
	"github.com/kelly/fphoto/internal/util"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name     string
		template string
		wantErr  bool
	}{
		{name: "simple tokens", template: "{year}{month}{day}_{orig_name}", wantErr: false},
		{name: "literal text", template: "holiday_{orig_name}", wantErr: false},
		{name: "unknown token allowed", template: "{bogus}_{orig_name}", wantErr: false},
		{name: "empty", template: "", wantErr: true},
		{name: "backslash", template: `a\b`, wantErr: true},
		{name: "slash", template: "a/b", wantErr: true},
		{name: "colon", template: "12:30", wantErr: true},
		{name: "asterisk", template: "a*", wantErr: true},
		{name: "question mark", template: "a?", wantErr: true},
		{name: "quote", template: `a"b`, wantErr: true},
		{name: "angle brackets", template: "<a>", wantErr: true},
		{name: "pipe", template: "a|b", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.template)
			if tc.wantErr {
				if !errors.Is(err, util.ErrInvalidTemplate) {
					t.Errorf("Validate(%q) = %v, want ErrInvalidTemplate", tc.template, err)
				}
			} else if err != nil {
				t.Errorf("Validate(%q) = %v, want nil", tc.template, err)
			}
		})
	}
}

func testRecord() meta.Record {
	return meta.Record{
		Taken:       time.Date(2026, 2, 8, 9, 5, 3, 0, time.Local),
		CameraMaker: "FUJIFILM",
		CameraModel: "X-T5",
		LensMaker:   "FUJIFILM",
		LensModel:   "XF35mmF1.4 R",
		FilmSim:     "Velvia",
		Source:      meta.SourceXMP,
	}
}

func TestRenderDateTokens(t *testing.T) {
	r, err := New(&Config{Template: "{year}{month}{day}_{orig_name}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(testRecord(), "IMG_0001.JPG")
	want := "20260208_IMG_0001.JPG"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderTimeTokensZeroPadded(t *testing.T) {
	r, err := New(&Config{Template: "{hour}{minute}{second}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(testRecord(), "a.jpg")
	want := "090503.jpg"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderDedupeSameMaker(t *testing.T) {
	testCases := []struct {
		name   string
		dedupe bool
		lens   string
		want   string
	}{
		{name: "same maker blanked", dedupe: true, lens: "FUJIFILM", want: "FUJIFILM_X-T5.jpg"},
		{name: "dedupe off keeps both", dedupe: false, lens: "FUJIFILM", want: "FUJIFILM_FUJIFILM_X-T5.jpg"},
		{name: "different maker kept", dedupe: true, lens: "Sigma", want: "FUJIFILM_Sigma_X-T5.jpg"},
		// comparison is exact, not case-folded
		{name: "case differs kept", dedupe: true, lens: "Fujifilm", want: "FUJIFILM_Fujifilm_X-T5.jpg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := New(&Config{
				Template:        "{camera_maker}_{lens_maker}_{camera_model}",
				DedupeSameMaker: tc.dedupe,
			})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			rec := testRecord()
			rec.LensMaker = tc.lens
			got := r.Render(rec, "x.jpg")
			if got != tc.want {
				t.Errorf("Render = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderUnknownTokensVerbatim(t *testing.T) {
	r, err := New(&Config{Template: "{nope}_{orig_name}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(testRecord(), "DSCF1234.jpg")
	want := "{nope}_DSCF1234.jpg"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderUnbalancedBraces(t *testing.T) {
	r, err := New(&Config{Template: "{year}_{orig"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(testRecord(), "a.jpg")
	want := "2026_{orig.jpg"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderPreservesExtensionCase(t *testing.T) {
	r, err := New(&Config{Template: "{orig_name}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	testCases := []struct {
		in   string
		want string
	}{
		{in: "IMG_0001.JPG", want: "IMG_0001.JPG"},
		{in: "IMG_0001.jpg", want: "IMG_0001.jpg"},
		{in: "IMG_0001.JpEg", want: "IMG_0001.JpEg"},
	}

	for _, tc := range testCases {
		if got := r.Render(testRecord(), tc.in); got != tc.want {
			t.Errorf("Render(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRenderFilmSimToken(t *testing.T) {
	r, err := New(&Config{Template: "{film_sim}_{orig_name}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got := r.Render(testRecord(), "DSCF0001.JPG")
	want := "Velvia_DSCF0001.JPG"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}

func TestRenderEmptyMetadataCollapses(t *testing.T) {
	r, err := New(&Config{Template: "{camera_maker}_{camera_model}_{orig_name}"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	rec := meta.Record{Taken: time.Date(2026, 1, 1, 0, 0, 0, 0, time.Local)}
	got := r.Render(rec, "photo.jpg")
	// empty tokens leave separator runs that collapse to one
	want := "photo.jpg"
	if got != want {
		t.Errorf("Render = %q, want %q", got, want)
	}
}
