package detection

import (
	"github.com/ironsheep/shelfscan/internal/vision"
)

// RowLines is the merged vertical lines of one shelf row.
type RowLines struct {
	Row   ShelfRow `json:"row"`
	Lines []Line   `json:"lines"`
}

// Rows runs only shelf row segmentation and returns the rows in original
// image coordinates.
func (d *Detector) Rows(data []byte, override *ConfigOverride) ([]ShelfRow, error) {
	cfg := d.config.Apply(override)
	arena := vision.NewArena()
	defer arena.Release()

	img, err := d.load(arena, data, cfg)
	if err != nil {
		return nil, err
	}
	rows, err := SegmentRows(d.backend, img.work, cfg)
	if err != nil {
		return nil, NewStageError(StageRows, "shelf row segmentation failed", err)
	}

	out := make([]ShelfRow, 0, len(rows))
	for _, row := range rows {
		if full, ok := scaleRow(row, img.scaleY, img.full.Height()); ok {
			out = append(out, full)
		}
	}
	return out, nil
}

// Lines returns the merged vertical lines of every shelf row in original
// image coordinates, sorted left to right within each row.
func (d *Detector) Lines(data []byte, override *ConfigOverride) ([]RowLines, error) {
	cfg := d.config.Apply(override)
	arena := vision.NewArena()
	defer arena.Release()

	img, err := d.load(arena, data, cfg)
	if err != nil {
		return nil, err
	}
	rows, err := SegmentRows(d.backend, img.work, cfg)
	if err != nil {
		return nil, NewStageError(StageRows, "shelf row segmentation failed", err)
	}

	out := make([]RowLines, 0, len(rows))
	for i, row := range rows {
		full, ok := scaleRow(row, img.scaleY, img.full.Height())
		if !ok {
			continue
		}
		_, lines, _, err := d.rowLines(arena, img.work, row, cfg, d.log.WithField("row", i))
		if err != nil {
			return nil, err
		}
		t := rowTransform{scaleX: img.scaleX, scaleY: img.scaleY, workY: row.Y, full: full}
		scaled := make([]Line, len(lines))
		for j := range lines {
			scaled[j] = *t.line(&lines[j])
		}
		out = append(out, RowLines{Row: full, Lines: scaled})
	}
	return out, nil
}

// Separators searches the whole working image for near-horizontal lines,
// the shelf edges themselves. They are returned in original image
// coordinates, sorted top to bottom. Row segmentation does not use them.
func (d *Detector) Separators(data []byte, override *ConfigOverride) ([]Line, error) {
	cfg := d.config.Apply(override)
	arena := vision.NewArena()
	defer arena.Release()

	img, edges, err := d.workingEdges(arena, data, cfg)
	if err != nil {
		return nil, err
	}
	found, err := FindLines(d.backend, edges, cfg, Horizontal)
	if err != nil {
		return nil, NewStageError(StageLines, "line search failed", err)
	}
	merged := MergeLines(found, cfg.MergeThreshold)
	SortLines(merged)

	t := rowTransform{scaleX: img.scaleX, scaleY: img.scaleY}
	for i := range merged {
		merged[i] = *t.line(&merged[i])
	}
	return merged, nil
}

// EdgeMap returns the edge map of the whole working image as a PNG.
func (d *Detector) EdgeMap(data []byte, override *ConfigOverride) ([]byte, error) {
	cfg := d.config.Apply(override)
	arena := vision.NewArena()
	defer arena.Release()

	_, edges, err := d.workingEdges(arena, data, cfg)
	if err != nil {
		return nil, err
	}
	png, err := d.backend.Encode(edges, vision.PNG, 0)
	if err != nil {
		return nil, NewStageError(StageDebug, "edge map encoding failed", err)
	}
	return png, nil
}

func (d *Detector) workingEdges(arena *vision.Arena, data []byte, cfg Config) (*loaded, vision.Matrix, error) {
	img, err := d.load(arena, data, cfg)
	if err != nil {
		return nil, nil, err
	}
	gray, err := preprocess(d.backend, img.work, d.log)
	if err != nil {
		return nil, nil, NewStageError(StageEdges, "preprocessing failed", err)
	}
	arena.Track(gray)

	edges, err := DetectEdges(d.backend, gray, cfg)
	if err != nil {
		return nil, nil, NewStageError(StageEdges, "edge detection failed", err)
	}
	arena.Track(edges)
	return img, edges, nil
}
