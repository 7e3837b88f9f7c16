package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// detectOptions are the flags of the detect command.
type detectOptions struct {
	outDir     string
	edgesPath  string
	overlay    string
	configPath string
	recognize  bool
}

// detectOutput is printed to stdout. Crops are written to files instead of
// being inlined.
type detectOutput struct {
	Image    string               `json:"image"`
	Spines   []detectedSpine      `json:"spines"`
	Count    int                  `json:"count"`
	Filtered int                  `json:"filtered"`
	Rows     []detection.ShelfRow `json:"rows"`
	Stats    detection.Stats      `json:"stats"`
	Edges    string               `json:"edges,omitempty"`
	Overlay  string               `json:"overlay,omitempty"`
}

type detectedSpine struct {
	detection.Spine
	File       string  `json:"file"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func runDetect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	var opts detectOptions
	fs.StringVar(&opts.outDir, "out", "spines", "directory for spine_NNN.jpg crops")
	fs.StringVar(&opts.edgesPath, "edges", "", "write the last row's edge map PNG here")
	fs.StringVar(&opts.overlay, "overlay", "", "write a PNG with rows and spine boxes drawn here")
	fs.StringVar(&opts.configPath, "config", "", "JSON file of detection parameter overrides")
	fs.BoolVar(&opts.recognize, "ocr", false, "read spine text with Tesseract")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: shelfscan detect [options] <image>")
		fs.PrintDefaults()
	}
	fs.Parse(args)
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("detect needs exactly one image path")
	}

	a, err := setup()
	if err != nil {
		return err
	}
	return detect(a, fs.Arg(0), opts, stdout)
}

func detect(a *app, path string, opts detectOptions, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	var override *detection.ConfigOverride
	if opts.configPath != "" {
		if override, err = readOverride(opts.configPath); err != nil {
			return err
		}
	}
	if opts.recognize && a.recognizer == nil {
		return ocr.ErrUnavailable
	}

	res, err := a.detector.Detect(data, detection.Request{
		Override: override,
		Debug:    opts.edgesPath != "",
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out := detectOutput{
		Image:    path,
		Spines:   make([]detectedSpine, len(res.Spines)),
		Count:    len(res.Spines),
		Filtered: res.Filtered,
		Rows:     res.Rows,
		Stats:    res.Stats,
	}
	for i, sp := range res.Spines {
		file := filepath.Join(opts.outDir, fmt.Sprintf("spine_%03d.jpg", sp.Index))
		if err := os.WriteFile(file, sp.Image, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", file, err)
		}
		out.Spines[i] = detectedSpine{Spine: sp, File: file}
		out.Spines[i].Image = nil
	}

	if opts.recognize {
		texts, err := ocr.RecognizeSpines(a.recognizer, res.Spines)
		if err != nil {
			return err
		}
		for i, t := range texts {
			out.Spines[i].Text = t.Text
			out.Spines[i].Confidence = t.Confidence
		}
	}

	if opts.edgesPath != "" && len(res.DebugEdges) > 0 {
		if err := os.WriteFile(opts.edgesPath, res.DebugEdges, 0o644); err != nil {
			return fmt.Errorf("failed to write edge map: %w", err)
		}
		out.Edges = opts.edgesPath
	}

	if opts.overlay != "" {
		png, err := imaging.RenderOverlay(data, imaging.Overlay{
			Rows:  res.RowRects(),
			Boxes: res.SpineRects(),
		})
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.overlay, png, 0o644); err != nil {
			return fmt.Errorf("failed to write overlay: %w", err)
		}
		out.Overlay = opts.overlay
	}

	a.log.WithField("spines", out.Count).Infof("wrote crops to %s", opts.outDir)

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readOverride(path string) (*detection.ConfigOverride, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var o detection.ConfigOverride
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &o, nil
}
