package detection

import "image"

// Orientation tells which canonical direction a Line was detected against.
type Orientation string

const (
	// Vertical lines are spine edge candidates.
	Vertical Orientation = "vertical"
	// Horizontal lines are shelf separator candidates.
	Horizontal Orientation = "horizontal"
)

// Line is a detected straight edge.
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`

	// Angle is the deviation in degrees from the canonical orientation:
	// 0 is perfectly vertical (or horizontal for Horizontal lines).
	Angle float64 `json:"angle"`

	Orientation Orientation `json:"orientation"`

	// Key is the sort and cluster key: the mean x of a vertical line or the
	// mean y of a horizontal one.
	Key float64 `json:"key"`
}

// AvgX is the mean x of the endpoints.
func (l Line) AvgX() float64 { return (l.X1 + l.X2) / 2 }

// AvgY is the mean y of the endpoints.
func (l Line) AvgY() float64 { return (l.Y1 + l.Y2) / 2 }

// scaled maps l into another coordinate space: x' = x*sx + dx, y' = y*sy + dy.
func (l Line) scaled(sx, sy, dx, dy float64) Line {
	out := l
	out.X1, out.X2 = l.X1*sx+dx, l.X2*sx+dx
	out.Y1, out.Y2 = l.Y1*sy+dy, l.Y2*sy+dy
	if l.Orientation == Horizontal {
		out.Key = out.AvgY()
	} else {
		out.Key = out.AvgX()
	}
	return out
}

// ShelfRow is a horizontal band believed to hold one shelf of books.
type ShelfRow struct {
	Y      int `json:"y"`
	Height int `json:"height"`
}

// BoundingBox is an axis-aligned rectangle in original image pixels.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Region is a candidate spine strip within one row, in that row's
// coordinate space. Left and Right are nil at the row edges.
type Region struct {
	X      float64 `json:"x"`
	Width  float64 `json:"width"`
	Height int     `json:"height"`
	Left   *Line   `json:"leftEdge,omitempty"`
	Right  *Line   `json:"rightEdge,omitempty"`
}

// Spine is one extracted book spine.
type Spine struct {
	Index       int         `json:"index"`
	BoundingBox BoundingBox `json:"boundingBox"`

	// Image is the JPEG-encoded crop from the original image.
	Image []byte `json:"image,omitempty"`

	// LeftEdge and RightEdge are the bounding lines in original image
	// coordinates, nil at the row edges.
	LeftEdge  *Line `json:"leftEdge,omitempty"`
	RightEdge *Line `json:"rightEdge,omitempty"`

	MeanBrightness float64 `json:"meanBrightness"`
}

// Stats are per-call diagnostics.
type Stats struct {
	OriginalWidth  int    `json:"originalWidth"`
	OriginalHeight int    `json:"originalHeight"`
	WorkingWidth   int    `json:"workingWidth"`
	WorkingHeight  int    `json:"workingHeight"`
	TotalLines     int    `json:"totalLines"`
	ElapsedMs      int64  `json:"elapsedMs"`
	Backend        string `json:"backend"`
}

// Request is the per-call input besides the image bytes.
type Request struct {
	// Override is layered over the detector's base Config.
	Override *ConfigOverride
	// Debug asks for the last row's edge map as a PNG.
	Debug bool
}

// Result is the output of Detector.Detect.
type Result struct {
	Spines []Spine `json:"spines"`
	// Filtered counts spines dropped by the quality filter.
	Filtered int `json:"filtered"`
	// Rows are in original image coordinates.
	Rows  []ShelfRow `json:"rows"`
	Stats Stats      `json:"stats"`
	// DebugEdges is a PNG of the last processed row's edge map, set only
	// when requested.
	DebugEdges []byte `json:"debugEdges,omitempty"`
}

// Rect returns the box as an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// RowRects returns every shelf row as a full-width rectangle.
func (r *Result) RowRects() []image.Rectangle {
	out := make([]image.Rectangle, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = image.Rect(0, row.Y, r.Stats.OriginalWidth, row.Y+row.Height)
	}
	return out
}

// SpineRects returns the spine bounding boxes in index order.
func (r *Result) SpineRects() []image.Rectangle {
	out := make([]image.Rectangle, len(r.Spines))
	for i, s := range r.Spines {
		out[i] = s.BoundingBox.Rect()
	}
	return out
}
