package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Overlay describes what RenderOverlay draws over the source photo.
// All rectangles are in source pixel coordinates.
type Overlay struct {
	// Rows are shelf bands; their top and bottom edges are drawn in RowColor.
	Rows []image.Rectangle
	// Boxes are spine regions, each outlined in its own color and labeled
	// with its position in the slice.
	Boxes []image.Rectangle
	// RowColor is a hex color such as "#FFFFFF". Empty means white.
	RowColor string
	// Thickness is the outline width in pixels. Zero picks one from the
	// image size.
	Thickness int
}

// RenderOverlay decodes data, draws the overlay and returns a PNG.
func RenderOverlay(data []byte, ov Overlay) ([]byte, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	canvas := imaging.Clone(src)
	bounds := canvas.Bounds()

	thickness := ov.Thickness
	if thickness <= 0 {
		thickness = maxInt(1, maxInt(bounds.Dx(), bounds.Dy())/500)
	}

	rowColor := color.NRGBA{255, 255, 255, 255}
	if ov.RowColor != "" {
		c, err := colorful.Hex(ov.RowColor)
		if err != nil {
			return nil, fmt.Errorf("invalid row color %q: %w", ov.RowColor, err)
		}
		r, g, b := c.RGB255()
		rowColor = color.NRGBA{r, g, b, 255}
	}

	for _, row := range ov.Rows {
		fillRect(canvas, image.Rect(bounds.Min.X, row.Min.Y, bounds.Max.X, row.Min.Y+thickness), rowColor)
		fillRect(canvas, image.Rect(bounds.Min.X, row.Max.Y-thickness, bounds.Max.X, row.Max.Y), rowColor)
	}

	for i, box := range ov.Boxes {
		c := paletteColor(i)
		strokeRect(canvas, box, thickness, c)
		drawLabel(canvas, box.Min.X+thickness+1, box.Min.Y+thickness+1, strconv.Itoa(i),
			color.NRGBA{255, 255, 255, 255}, c)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// paletteColor spreads hues by the golden angle so neighbouring spines get
// clearly different colors.
func paletteColor(i int) color.NRGBA {
	hue := math.Mod(float64(i)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 0.95).RGB255()
	return color.NRGBA{r, g, b, 255}
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
}

func strokeRect(img *image.NRGBA, r image.Rectangle, t int, c color.NRGBA) {
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t), c)
	fillRect(img, image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y), c)
	fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y), c)
	fillRect(img, image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y), c)
}

// drawLabel draws digits in a 3x5 pixel font on a filled background.
// Other runes advance the cursor without drawing.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	// Simple 3x5 pixel font for digits
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	fillRect(img, image.Rect(x-1, y-1, x+labelWidth, y+labelHeight), bg)

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					px, py := cx+col, y+row
					if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
						img.SetNRGBA(px, py, fg)
					}
				}
			}
		}
		cx += charWidth
	}
}
