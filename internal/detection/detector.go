package detection

import (
	"image"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Detector runs the spine detection pipeline on one backend.
//
// A Detector holds no mutable state and is safe for concurrent use; each
// Detect call runs on the calling goroutine and releases every matrix it
// allocates before returning.
type Detector struct {
	backend vision.Backend
	config  Config
	log     logrus.FieldLogger
}

// Option configures a Detector.
type Option func(*Detector)

// WithConfig replaces the base configuration. It is normalized.
func WithConfig(cfg Config) Option {
	return func(d *Detector) { d.config = cfg.Normalize() }
}

// WithLogger sets the logger for stage diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Detector) {
		if log != nil {
			d.log = log
		}
	}
}

// NewDetector creates a Detector over b with DefaultConfig.
func NewDetector(b vision.Backend, opts ...Option) (*Detector, error) {
	if b == nil {
		return nil, NewBackendError(vision.ErrBackendUnavailable)
	}
	d := &Detector{backend: b, config: DefaultConfig(), log: discardLogger}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Config returns the base configuration.
func (d *Detector) Config() Config { return d.config }

// BackendName returns the name of the backend in use.
func (d *Detector) BackendName() string { return d.backend.Name() }

// Detect finds the book spines in an encoded image.
//
// The image is decoded once at full resolution and downscaled so its longest
// side is at most MaxImageDimension. Rows, edges and lines are found on the
// working copy; crops are cut from the original. Any stage failure aborts
// the call with an *Error and no partial result.
func (d *Detector) Detect(data []byte, req Request) (*Result, error) {
	start := time.Now()
	cfg := d.config.Apply(req.Override)
	b := d.backend

	arena := vision.NewArena()
	defer arena.Release()

	img, err := d.load(arena, data, cfg)
	if err != nil {
		return nil, err
	}

	rows, err := SegmentRows(b, img.work, cfg)
	if err != nil {
		return nil, NewStageError(StageRows, "shelf row segmentation failed", err)
	}
	d.log.WithFields(logrus.Fields{"rows": len(rows), "working_width": img.work.Width(), "working_height": img.work.Height()}).Debug("rows segmented")

	res := &Result{
		Spines: []Spine{},
		Rows:   make([]ShelfRow, 0, len(rows)),
		Stats: Stats{
			OriginalWidth:  img.full.Width(),
			OriginalHeight: img.full.Height(),
			WorkingWidth:   img.work.Width(),
			WorkingHeight:  img.work.Height(),
			Backend:        b.Name(),
		},
	}

	var all []Spine
	var lastEdges vision.Matrix
	for i, row := range rows {
		fullRow, ok := scaleRow(row, img.scaleY, img.full.Height())
		if !ok {
			continue
		}
		res.Rows = append(res.Rows, fullRow)

		out, err := d.processRow(img, row, fullRow, cfg, d.log.WithField("row", i))
		if err != nil {
			return nil, err
		}
		arena.Track(out.edges)
		if lastEdges != nil {
			arena.Detach(lastEdges)
			lastEdges.Release()
		}
		lastEdges = out.edges

		res.Stats.TotalLines += out.lines
		all = append(all, out.spines...)
	}

	if req.Debug && lastEdges != nil {
		res.DebugEdges, err = b.Encode(lastEdges, vision.PNG, 0)
		if err != nil {
			return nil, NewStageError(StageDebug, "edge map encoding failed", err)
		}
	}

	res.Spines, res.Filtered = FilterSpines(all, img.full.Width(), cfg)
	res.Stats.ElapsedMs = time.Since(start).Milliseconds()

	d.log.WithFields(logrus.Fields{
		"spines":     len(res.Spines),
		"filtered":   res.Filtered,
		"lines":      res.Stats.TotalLines,
		"elapsed_ms": res.Stats.ElapsedMs,
	}).Info("detection complete")
	return res, nil
}

// loaded is a decoded image and its working copy. work may be full itself
// when no downscaling was needed.
type loaded struct {
	full, work     vision.Matrix
	scaleX, scaleY float64
}

// load decodes data and builds the working copy. Both matrices are owned by
// arena.
func (d *Detector) load(arena *vision.Arena, data []byte, cfg Config) (*loaded, error) {
	full, err := d.backend.Decode(data)
	if err != nil {
		return nil, NewDecodeError(err)
	}
	arena.Track(full)

	fw, fh := full.Width(), full.Height()
	if fw == 0 || fh == 0 {
		return nil, NewDecodeError(errEmptyImage)
	}

	scale := math.Min(1, float64(cfg.MaxImageDimension)/float64(maxInt(fw, fh)))
	work := full
	if scale < 1 {
		ww := maxInt(1, int(math.Round(float64(fw)*scale)))
		wh := maxInt(1, int(math.Round(float64(fh)*scale)))
		work, err = d.backend.Resize(full, ww, wh)
		if err != nil {
			return nil, NewStageError(StageResize, "downscale failed", err)
		}
		arena.Track(work)
	}

	return &loaded{
		full:   full,
		work:   work,
		scaleX: float64(fw) / float64(work.Width()),
		scaleY: float64(fh) / float64(work.Height()),
	}, nil
}

// rowOutput is what processRow hands back. The caller owns edges.
type rowOutput struct {
	spines []Spine
	edges  vision.Matrix
	lines  int
}

func (d *Detector) processRow(img *loaded, row, fullRow ShelfRow, cfg Config, log logrus.FieldLogger) (*rowOutput, error) {
	b := d.backend
	arena := vision.NewArena()
	defer arena.Release()

	edges, lines, found, err := d.rowLines(arena, img.work, row, cfg, log)
	if err != nil {
		return nil, err
	}

	regions := ComputeRegions(lines, img.work.Width(), row.Height, cfg)

	full, err := b.Crop(img.full, image.Rect(0, fullRow.Y, img.full.Width(), fullRow.Y+fullRow.Height))
	if err != nil {
		return nil, NewStageError(StageExtract, "row crop failed", err)
	}
	arena.Track(full)

	spines, err := extractSpines(b, full, regions, rowTransform{
		scaleX: img.scaleX,
		scaleY: img.scaleY,
		workY:  row.Y,
		full:   fullRow,
	}, cfg)
	if err != nil {
		return nil, NewStageError(StageExtract, "spine extraction failed", err)
	}

	log.WithFields(logrus.Fields{"regions": len(regions), "spines": len(spines)}).Debug("row extracted")

	arena.Detach(edges)
	return &rowOutput{spines: spines, edges: edges, lines: found}, nil
}

// rowLines crops row from work, finds its edge map and returns the merged,
// sorted vertical lines in row coordinates along with the number of raw
// detections. edges is tracked by arena.
func (d *Detector) rowLines(arena *vision.Arena, work vision.Matrix, row ShelfRow, cfg Config, log logrus.FieldLogger) (vision.Matrix, []Line, int, error) {
	b := d.backend

	crop, err := b.Crop(work, image.Rect(0, row.Y, work.Width(), row.Y+row.Height))
	if err != nil {
		return nil, nil, 0, NewStageError(StageEdges, "working row crop failed", err)
	}
	arena.Track(crop)

	gray, err := preprocess(b, crop, log)
	if err != nil {
		return nil, nil, 0, NewStageError(StageEdges, "preprocessing failed", err)
	}
	arena.Track(gray)

	edges, err := DetectEdges(b, gray, cfg)
	if err != nil {
		return nil, nil, 0, NewStageError(StageEdges, "edge detection failed", err)
	}
	arena.Track(edges)

	found, err := FindLines(b, edges, cfg, Vertical)
	if err != nil {
		return nil, nil, 0, NewStageError(StageLines, "line search failed", err)
	}
	merged := MergeLines(found, cfg.MergeThreshold)
	SortLines(merged)

	log.WithFields(logrus.Fields{"lines": len(found), "merged": len(merged)}).Debug("lines found")
	return edges, merged, len(found), nil
}
