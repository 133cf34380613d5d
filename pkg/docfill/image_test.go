package docfill

import (
	"math"
	"strings"
	"testing"
)

func TestFitDims(t *testing.T) {
	tests := []struct {
		name       string
		w0, h0     int
		preferred  float64
		wantW      float64
		wantH      float64
	}{
		{
			name: "wide image takes preferred width",
			w0:   1200, h0: 600,
			preferred: 6.0,
			wantW:     6.0, wantH: 3.0,
		},
		{
			name: "preferred width clamped to page box",
			w0:   1000, h0: 500,
			preferred: 9.0,
			wantW:     6.5, wantH: 3.25,
		},
		{
			name: "tall image clamped by height",
			w0:   100, h0: 400,
			preferred: 6.5,
			wantW:     2.125, wantH: 8.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit := fitDims(tt.w0, tt.h0, tt.preferred, 6.5, 8.5)
			if fit.Fallback {
				t.Fatal("unexpected fallback")
			}
			if math.Abs(fit.Width-tt.wantW) > 1e-9 || math.Abs(fit.Height-tt.wantH) > 1e-9 {
				t.Errorf("fit = %.4f x %.4f, want %.4f x %.4f", fit.Width, fit.Height, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestFitDimsPreservesAspectRatio(t *testing.T) {
	dims := []struct{ w0, h0 int }{
		{1920, 1080}, {300, 900}, {50, 50}, {4000, 100}, {100, 4000},
	}

	for _, d := range dims {
		fit := fitDims(d.w0, d.h0, 6.5, 6.5, 8.5)
		if fit.Width > 6.5+1e-9 || fit.Height > 8.5+1e-9 {
			t.Errorf("%dx%d: fit %.4f x %.4f exceeds page box", d.w0, d.h0, fit.Width, fit.Height)
		}
		want := float64(d.w0) / float64(d.h0)
		got := fit.Width / fit.Height
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%dx%d: aspect ratio %.6f, want %.6f", d.w0, d.h0, got, want)
		}
	}
}

func TestFitDimsNonpositiveFallsBack(t *testing.T) {
	fit := fitDims(0, 100, 6.0, 6.5, 8.5)
	if !fit.Fallback {
		t.Fatal("expected fallback for zero width")
	}
	if fit.Width != 6.0 || fit.Height != 4.0 {
		t.Errorf("fallback fit = %.2f x %.2f, want 6.00 x 4.00", fit.Width, fit.Height)
	}
}

func TestFitBox(t *testing.T) {
	data := testPNG(t, 650, 325)

	fit := fitBox(data, 6.5, 6.5, 8.5)
	if fit.Fallback {
		t.Fatal("unexpected fallback for a valid png")
	}
	if math.Abs(fit.Width-6.5) > 1e-9 || math.Abs(fit.Height-3.25) > 1e-9 {
		t.Errorf("fit = %.4f x %.4f, want 6.5 x 3.25", fit.Width, fit.Height)
	}
}

func TestFitBoxUndecodableFallsBack(t *testing.T) {
	fit := fitBox([]byte("not an image at all"), 6.0, 6.5, 8.5)
	if !fit.Fallback {
		t.Fatal("expected fallback")
	}
	if fit.Width != 6.0 || fit.Height != 4.0 {
		t.Errorf("fallback fit = %.2f x %.2f, want 6.00 x 4.00", fit.Width, fit.Height)
	}
}

func TestFallbackFitRespectsPageBox(t *testing.T) {
	fit := fallbackFit(9.0, 6.5, 3.0)
	if fit.Width != 6.5 || fit.Height != 3.0 {
		t.Errorf("fallback fit = %.2f x %.2f, want clamped 6.50 x 3.00", fit.Width, fit.Height)
	}
}

func TestEmu(t *testing.T) {
	if got := emu(1.0); got != 914400 {
		t.Errorf("emu(1.0) = %d, want 914400", got)
	}
	if got := emu(6.5); got != 5943600 {
		t.Errorf("emu(6.5) = %d, want 5943600", got)
	}
}

func TestDrawingXML(t *testing.T) {
	xml := drawingXML("rId7", 3, "IMAGE_SITE_PLAN", 5.5, 4.0)

	for _, want := range []string{
		`r:embed="rId7"`,
		`cx="5029200"`, // 5.5in
		`cy="3657600"`, // 4.0in
		`name="IMAGE_SITE_PLAN"`,
		"<w:drawing>",
		"</w:drawing>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("drawing XML missing %q", want)
		}
	}
}
