package detection

import (
	"image/color"
	"reflect"
	"testing"

	"github.com/ironsheep/shelfscan/internal/imaging"
)

// profileWithBands returns a flat brightness profile with dark runs.
func profileWithBands(height int, light, dark float64, bands ...[2]int) []float64 {
	p := make([]float64, height)
	for i := range p {
		p[i] = light
	}
	for _, b := range bands {
		for y := b[0]; y < b[1]; y++ {
			p[y] = dark
		}
	}
	return p
}

func TestSegmentRows_TwoShelfGaps(t *testing.T) {
	b := newTestBackend()
	img := imaging.FromImage(createShelfImage(1000, 1500, 200, 20, [2]int{500, 520}, [2]int{1000, 1020}))

	rows, err := SegmentRows(b, img, DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentRows failed: %v", err)
	}

	want := []ShelfRow{{Y: 0, Height: 500}, {Y: 520, Height: 480}, {Y: 1020, Height: 480}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows %+v, want %d", len(rows), rows, len(want))
	}
	for i := range want {
		if abs(rows[i].Y-want[i].Y) > 3 || abs(rows[i].Height-want[i].Height) > 3 {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestSegmentRows_Uniform(t *testing.T) {
	b := newTestBackend()
	img := imaging.FromImage(createTestImage(300, 400, color.Gray{Y: 128}))

	rows, err := SegmentRows(b, img, DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentRows failed: %v", err)
	}
	if len(rows) != 1 || rows[0] != (ShelfRow{Y: 0, Height: 400}) {
		t.Errorf("rows = %+v, want one full row", rows)
	}
}

func TestSegmentRows_Idempotent(t *testing.T) {
	b := newTestBackend()
	img := imaging.FromImage(createShelfImage(400, 600, 180, 15, [2]int{190, 205}, [2]int{400, 412}))

	first, err := SegmentRows(b, img, DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentRows failed: %v", err)
	}
	second, err := SegmentRows(b, img, DefaultConfig())
	if err != nil {
		t.Fatalf("SegmentRows failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ: %+v vs %+v", first, second)
	}
}

func TestSegmentRows_DoesNotModifyInput(t *testing.T) {
	b := newTestBackend()
	img := imaging.FromImage(createShelfImage(100, 200, 200, 20, [2]int{90, 100}))
	before := img.Clone()

	if _, err := SegmentRows(b, img, DefaultConfig()); err != nil {
		t.Fatalf("SegmentRows failed: %v", err)
	}
	if !reflect.DeepEqual(before.Pix, img.Pix) {
		t.Error("input matrix was modified")
	}
}

func TestSegmentProfile(t *testing.T) {
	tests := []struct {
		name    string
		profile []float64
		want    []ShelfRow
	}{
		{
			name:    "no dark band",
			profile: profileWithBands(1000, 150, 150),
			want:    []ShelfRow{{Y: 0, Height: 1000}},
		},
		{
			name:    "band near top is framing",
			profile: profileWithBands(1000, 200, 10, [2]int{60, 90}),
			want:    []ShelfRow{{Y: 0, Height: 1000}},
		},
		{
			name:    "band near bottom is framing",
			profile: profileWithBands(1000, 200, 10, [2]int{900, 930}),
			want:    []ShelfRow{{Y: 0, Height: 1000}},
		},
		{
			name:    "band too thin",
			profile: profileWithBands(1000, 200, 10, [2]int{500, 505}),
			want:    []ShelfRow{{Y: 0, Height: 1000}},
		},
		{
			name:    "single gap",
			profile: profileWithBands(1000, 200, 10, [2]int{480, 500}),
			want:    []ShelfRow{{Y: 0, Height: 480}, {Y: 500, Height: 500}},
		},
		{
			name:    "short middle row dropped",
			profile: profileWithBands(1000, 200, 10, [2]int{300, 312}, [2]int{420, 432}),
			want:    []ShelfRow{{Y: 0, Height: 300}, {Y: 432, Height: 568}},
		},
		{
			name:    "fewer than two rows survive",
			profile: profileWithBands(1000, 200, 10, [2]int{843, 855}),
			want:    []ShelfRow{{Y: 0, Height: 1000}},
		},
		{
			name:    "all black",
			profile: profileWithBands(500, 0, 0),
			want:    []ShelfRow{{Y: 0, Height: 500}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := segmentProfile(tt.profile)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("segmentProfile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSegmentProfile_RowsOrderedAndDisjoint(t *testing.T) {
	profile := profileWithBands(1500, 220, 15, [2]int{400, 430}, [2]int{700, 715}, [2]int{1100, 1125})
	rows := segmentProfile(profile)
	for i := 1; i < len(rows); i++ {
		if rows[i].Y < rows[i-1].Y+rows[i-1].Height {
			t.Errorf("row %d %+v overlaps row %d %+v", i, rows[i], i-1, rows[i-1])
		}
	}
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{0, 0, 9, 0, 0}, 3)
	want := []float64{0, 3, 3, 3, 0}
	for i := range want {
		if absFloat(got[i]-want[i]) > 1e-9 {
			t.Errorf("movingAverage()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	same := movingAverage([]float64{1, 2, 3}, 1)
	if !reflect.DeepEqual(same, []float64{1, 2, 3}) {
		t.Errorf("window 1 should be the identity, got %v", same)
	}
}

func TestDarkBands_SnapsToRawRun(t *testing.T) {
	raw := profileWithBands(100, 100, 0, [2]int{40, 50})
	smoothed := movingAverage(raw, 5)

	bands := darkBands(smoothed, raw, 40)
	if len(bands) != 1 {
		t.Fatalf("got %d bands, want 1", len(bands))
	}
	if bands[0] != (band{start: 40, end: 50}) {
		t.Errorf("band = %+v, want [40,50)", bands[0])
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
