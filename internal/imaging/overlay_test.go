package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func decodeOverlay(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("overlay is not a PNG: %v", err)
	}
	return img
}

func rgbAt(img image.Image, x, y int) (uint8, uint8, uint8) {
	r, g, b, _ := img.At(x, y).RGBA()
	return uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)
}

func TestRenderOverlay(t *testing.T) {
	data := encodeTestPNG(t, createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255}))

	out, err := RenderOverlay(data, Overlay{
		Rows:     []image.Rectangle{image.Rect(0, 20, 100, 80)},
		Boxes:    []image.Rectangle{image.Rect(10, 20, 50, 80)},
		RowColor: "#00FF00",
	})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	img := decodeOverlay(t, out)

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("overlay is %dx%d, want 100x100", b.Dx(), b.Dy())
	}

	// Row edges away from the box are green.
	if r, g, b := rgbAt(img, 80, 20); r != 0 || g != 255 || b != 0 {
		t.Errorf("row top at (80,20) = (%d,%d,%d), want green", r, g, b)
	}
	if r, g, b := rgbAt(img, 80, 79); r != 0 || g != 255 || b != 0 {
		t.Errorf("row bottom at (80,79) = (%d,%d,%d), want green", r, g, b)
	}

	// Box right edge carries the first palette color.
	want := paletteColor(0)
	if r, g, b := rgbAt(img, 49, 50); r != want.R || g != want.G || b != want.B {
		t.Errorf("box edge at (49,50) = (%d,%d,%d), want %v", r, g, b, want)
	}

	// Interior is untouched.
	if r, g, b := rgbAt(img, 30, 60); r != 0 || g != 0 || b != 0 {
		t.Errorf("interior at (30,60) = (%d,%d,%d), want black", r, g, b)
	}
}

func TestRenderOverlay_DefaultRowColor(t *testing.T) {
	data := encodeTestPNG(t, createInMemoryImage(40, 40, color.RGBA{0, 0, 0, 255}))

	out, err := RenderOverlay(data, Overlay{Rows: []image.Rectangle{image.Rect(0, 10, 40, 30)}})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	if r, g, b := rgbAt(decodeOverlay(t, out), 5, 10); r != 255 || g != 255 || b != 255 {
		t.Errorf("default row color = (%d,%d,%d), want white", r, g, b)
	}
}

func TestRenderOverlay_Thickness(t *testing.T) {
	data := encodeTestPNG(t, createInMemoryImage(60, 60, color.RGBA{0, 0, 0, 255}))

	out, err := RenderOverlay(data, Overlay{
		Rows:      []image.Rectangle{image.Rect(0, 10, 60, 50)},
		Thickness: 4,
	})
	if err != nil {
		t.Fatalf("RenderOverlay failed: %v", err)
	}
	img := decodeOverlay(t, out)
	if r, _, _ := rgbAt(img, 30, 13); r != 255 {
		t.Error("pixel inside a 4px row line should be drawn")
	}
	if r, _, _ := rgbAt(img, 30, 14); r != 0 {
		t.Error("pixel below a 4px row line should be untouched")
	}
}

func TestRenderOverlay_Errors(t *testing.T) {
	data := encodeTestPNG(t, createInMemoryImage(10, 10, color.White))

	if _, err := RenderOverlay(data, Overlay{RowColor: "not-a-color"}); err == nil {
		t.Error("invalid row color should fail")
	}
	if _, err := RenderOverlay([]byte("garbage"), Overlay{}); err == nil {
		t.Error("invalid image data should fail")
	}
}

func TestPaletteColor(t *testing.T) {
	seen := make(map[color.NRGBA]bool)
	for i := 0; i < 12; i++ {
		c := paletteColor(i)
		if c.A != 255 {
			t.Errorf("paletteColor(%d) is not opaque", i)
		}
		if seen[c] {
			t.Errorf("paletteColor(%d) = %v repeats an earlier color", i, c)
		}
		seen[c] = true
	}
	if paletteColor(3) != paletteColor(3) {
		t.Error("paletteColor must be deterministic")
	}
}

func TestDrawLabel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 100))

	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 255}
	drawLabel(img, 10, 10, "50", fg, bg)

	hasWhite := false
	hasBackground := false
	for y := 9; y < 17; y++ {
		for x := 9; x < 18; x++ {
			c := img.NRGBAAt(x, y)
			if c == fg {
				hasWhite = true
			}
			if c == bg {
				hasBackground = true
			}
		}
	}

	if !hasWhite {
		t.Error("label should have white pixels (text)")
	}
	if !hasBackground {
		t.Error("label should have background pixels")
	}
}

func TestDrawLabel_BoundsCheck(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	fg := color.NRGBA{255, 255, 255, 255}
	bg := color.NRGBA{0, 0, 0, 180}

	// None of these may panic.
	drawLabel(img, 15, 15, "100", fg, bg)
	drawLabel(img, 0, 0, "0", fg, bg)
	drawLabel(img, -5, -5, "42", fg, bg)
	drawLabel(img, 10, 10, "", fg, bg)
	drawLabel(img, 2, 2, "ab1", fg, bg)
}
