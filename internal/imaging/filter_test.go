package imaging

import (
	"image/color"
	"testing"
)

func TestGrayscale(t *testing.T) {
	b := NewBackend()
	tests := []struct {
		name string
		c    color.RGBA
		want uint8
	}{
		{"white", color.RGBA{255, 255, 255, 255}, 255},
		{"black", color.RGBA{0, 0, 0, 255}, 0},
		{"red", color.RGBA{255, 0, 0, 255}, 76},
		{"green", color.RGBA{0, 255, 0, 255}, 150},
		{"blue", color.RGBA{0, 0, 255, 255}, 29},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := FromImage(createInMemoryImage(4, 4, tt.c))
			out, err := b.Grayscale(m)
			if err != nil {
				t.Fatalf("Grayscale failed: %v", err)
			}
			if out.Channels() != 1 {
				t.Fatalf("channels = %d, want 1", out.Channels())
			}
			got := out.(*Mat).GrayAt(2, 2)
			if diff := int(got) - int(tt.want); diff < -1 || diff > 1 {
				t.Errorf("gray = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGrayscale_GrayInputCopied(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(3, 3)
	m.SetGray(1, 1, 42)

	out, err := b.Grayscale(m)
	if err != nil {
		t.Fatalf("Grayscale failed: %v", err)
	}
	out.(*Mat).SetGray(1, 1, 0)
	if m.GrayAt(1, 1) != 42 {
		t.Error("Grayscale returned the input instead of a copy")
	}
}

func TestGaussianBlur(t *testing.T) {
	b := NewBackend()

	uniform := NewGrayMat(20, 20)
	for i := range uniform.Pix {
		uniform.Pix[i] = 128
	}
	out, err := b.GaussianBlur(uniform, 5)
	if err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	if out.Channels() != 1 {
		t.Fatalf("channels = %d, want 1", out.Channels())
	}
	for i, v := range out.(*Mat).Pix {
		if v < 127 || v > 129 {
			t.Fatalf("pixel %d = %d, uniform input should stay ~128", i, v)
		}
	}
}

func TestGaussianBlur_WithSpot(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(21, 21)
	m.SetGray(10, 10, 255)

	out, err := b.GaussianBlur(m, 5)
	if err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	blurred := out.(*Mat)

	center := blurred.GrayAt(10, 10)
	if center >= 255 {
		t.Errorf("center = %d, blur should spread the spot", center)
	}
	if blurred.GrayAt(11, 10) == 0 {
		t.Error("neighbour should receive some of the spot")
	}
	if blurred.GrayAt(0, 0) != 0 {
		t.Error("far corner should stay black")
	}
}

func TestGaussianBlur_SmallKernelCopies(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(5, 5)
	m.SetGray(2, 2, 200)

	out, err := b.GaussianBlur(m, 1)
	if err != nil {
		t.Fatalf("GaussianBlur failed: %v", err)
	}
	if out.(*Mat).GrayAt(2, 2) != 200 {
		t.Error("kernel below 3 should leave the image unchanged")
	}
}

func TestEqualizeGlobal(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(10, 10)
	for i := range m.Pix {
		m.Pix[i] = 100
		if i >= 50 {
			m.Pix[i] = 110
		}
	}

	out, err := b.EqualizeGlobal(m)
	if err != nil {
		t.Fatalf("EqualizeGlobal failed: %v", err)
	}
	eq := out.(*Mat)
	if eq.GrayAt(0, 0) != 0 {
		t.Errorf("darkest level = %d, want 0", eq.GrayAt(0, 0))
	}
	if eq.GrayAt(9, 9) != 255 {
		t.Errorf("brightest level = %d, want 255", eq.GrayAt(9, 9))
	}
}

func TestEqualizationLUT(t *testing.T) {
	bins := make([]int, 256)
	bins[80] = 100
	lut := equalizationLUT(bins, 100)
	if lut[80] != 80 || lut[0] != 0 || lut[255] != 255 {
		t.Errorf("single level should map through identity, got lut[80]=%d", lut[80])
	}

	empty := equalizationLUT(make([]int, 256), 0)
	if empty[17] != 17 {
		t.Error("empty histogram should map through identity")
	}
}

func TestEqualizeAdaptive(t *testing.T) {
	b := NewBackend()

	// Low contrast ramp between 100 and 131.
	m := NewGrayMat(64, 64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			m.SetGray(x, y, uint8(100+x/2))
		}
	}

	// One tile with a clip limit high enough that no bin is clipped: plain
	// equalization over the whole image.
	out, err := b.EqualizeAdaptive(m, 40, 1)
	if err != nil {
		t.Fatalf("EqualizeAdaptive failed: %v", err)
	}
	eq := out.(*Mat)

	inRange := int(m.GrayAt(63, 32)) - int(m.GrayAt(0, 32))
	outRange := int(eq.GrayAt(63, 32)) - int(eq.GrayAt(0, 32))
	if outRange <= inRange {
		t.Errorf("contrast range %d not stretched beyond %d", outRange, inRange)
	}

	// Output must stay monotonic along the ramp.
	for x := 1; x < 64; x++ {
		if eq.GrayAt(x, 32) < eq.GrayAt(x-1, 32) {
			t.Fatalf("ramp not monotonic at x=%d", x)
		}
	}
}

func TestEqualizeAdaptive_Uniform(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(32, 32)
	for i := range m.Pix {
		m.Pix[i] = 90
	}

	out, err := b.EqualizeAdaptive(m, 2.0, 8)
	if err != nil {
		t.Fatalf("EqualizeAdaptive failed: %v", err)
	}
	first := out.(*Mat).Pix[0]
	for i, v := range out.(*Mat).Pix {
		if v != first {
			t.Fatalf("pixel %d = %d, uniform input should map uniformly (%d)", i, v, first)
		}
	}
}

func TestEqualizeAdaptive_Errors(t *testing.T) {
	b := NewBackend()
	if _, err := b.EqualizeAdaptive(NewGrayMat(8, 8), 2, 0); err == nil {
		t.Error("zero tiles should fail")
	}
	if _, err := b.EqualizeAdaptive(NewColorMat(8, 8), 2, 8); err == nil {
		t.Error("color input should fail")
	}
}

func TestEqualizeAdaptive_TinyImage(t *testing.T) {
	b := NewBackend()
	m := NewGrayMat(3, 2)
	m.SetGray(0, 0, 10)
	m.SetGray(2, 1, 240)

	out, err := b.EqualizeAdaptive(m, 2, 8)
	if err != nil {
		t.Fatalf("EqualizeAdaptive failed: %v", err)
	}
	if out.Width() != 3 || out.Height() != 2 {
		t.Errorf("size = %dx%d, want 3x2", out.Width(), out.Height())
	}
}

func TestEqualizeAdaptive_ShortImageKeepsColumns(t *testing.T) {
	b := NewBackend()

	// Every row is identical, so every column must map to one value.
	m := NewGrayMat(50, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 50; x++ {
			m.SetGray(x, y, uint8(100+2*x))
		}
	}

	out, err := b.EqualizeAdaptive(m, 2.0, 8)
	if err != nil {
		t.Fatalf("EqualizeAdaptive failed: %v", err)
	}
	eq := out.(*Mat)
	for x := 0; x < 50; x++ {
		want := eq.GrayAt(x, 0)
		for y := 1; y < 10; y++ {
			if got := eq.GrayAt(x, y); got != want {
				t.Fatalf("column %d: row %d = %d, row 0 = %d", x, y, got, want)
			}
		}
	}
}

func TestTileGrid(t *testing.T) {
	tests := []struct {
		size, tiles  int
		wantN, wantL int
	}{
		{64, 8, 8, 8},
		{50, 8, 8, 7},
		{56, 8, 8, 7},
		{10, 8, 5, 2},
		{9, 8, 5, 2},
		{3, 8, 3, 1},
		{1, 8, 1, 1},
	}
	for _, tt := range tests {
		n, l := tileGrid(tt.size, tt.tiles)
		if n != tt.wantN || l != tt.wantL {
			t.Errorf("tileGrid(%d, %d) = %d, %d, want %d, %d", tt.size, tt.tiles, n, l, tt.wantN, tt.wantL)
		}
		if (n-1)*l >= tt.size {
			t.Errorf("tileGrid(%d, %d): last tile starts outside the image", tt.size, tt.tiles)
		}
	}
}
