package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/logging"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

func writeStripePhoto(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 600, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 600; x++ {
			v := uint8(230)
			if (x/60)%2 == 1 {
				v = 60
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	path := filepath.Join(dir, "shelf.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func testApp(t *testing.T) *app {
	t.Helper()
	d, err := detection.NewDetector(imaging.NewBackend())
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return &app{log: logging.Discard(), detector: d}
}

func TestDetect_WritesCrops(t *testing.T) {
	dir := t.TempDir()
	path := writeStripePhoto(t, dir)
	opts := detectOptions{
		outDir:    filepath.Join(dir, "out"),
		edgesPath: filepath.Join(dir, "edges.png"),
		overlay:   filepath.Join(dir, "overlay.png"),
	}

	var stdout bytes.Buffer
	if err := detect(testApp(t), path, opts, &stdout); err != nil {
		t.Fatalf("detect failed: %v", err)
	}

	var got detectOutput
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if got.Count == 0 || got.Count != len(got.Spines) {
		t.Fatalf("count = %d with %d spines", got.Count, len(got.Spines))
	}

	for _, sp := range got.Spines {
		if len(sp.Image) != 0 {
			t.Error("crop bytes should not be printed")
		}
		want := filepath.Join(opts.outDir, "spine_000.jpg")
		if sp.Index == 0 && sp.File != want {
			t.Errorf("first crop file = %q, want %q", sp.File, want)
		}
		if info, err := os.Stat(sp.File); err != nil || info.Size() == 0 {
			t.Errorf("crop %s missing or empty: %v", sp.File, err)
		}
	}

	for _, p := range []string{opts.edgesPath, opts.overlay} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing %s: %v", p, err)
		}
		if _, err := png.DecodeConfig(bytes.NewReader(data)); err != nil {
			t.Errorf("%s is not a PNG: %v", p, err)
		}
	}
	if got.Edges != opts.edgesPath || got.Overlay != opts.overlay {
		t.Errorf("output paths = %q, %q", got.Edges, got.Overlay)
	}
}

func TestDetect_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeStripePhoto(t, dir)
	cfgPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"maxImageDimension": 300}`), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	opts := detectOptions{outDir: filepath.Join(dir, "out"), configPath: cfgPath}
	if err := detect(testApp(t), path, opts, &stdout); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	var got detectOutput
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	if got.Stats.WorkingWidth != 300 {
		t.Errorf("working width = %d, want 300", got.Stats.WorkingWidth)
	}
}

type fixedRecognizer struct{}

func (fixedRecognizer) Recognize([]byte) (*ocr.Recognition, error) {
	return &ocr.Recognition{Text: "EMMA", Confidence: 0.7}, nil
}

func TestDetect_OCR(t *testing.T) {
	dir := t.TempDir()
	path := writeStripePhoto(t, dir)
	opts := detectOptions{outDir: filepath.Join(dir, "out"), recognize: true}

	a := testApp(t)
	if err := detect(a, path, opts, &bytes.Buffer{}); err != ocr.ErrUnavailable {
		t.Fatalf("without a recognizer err = %v, want ErrUnavailable", err)
	}

	a.recognizer = fixedRecognizer{}
	var stdout bytes.Buffer
	if err := detect(a, path, opts, &stdout); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	var got detectOutput
	if err := json.Unmarshal(stdout.Bytes(), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v", err)
	}
	for _, sp := range got.Spines {
		if sp.Text != "EMMA" {
			t.Errorf("spine %d text = %q", sp.Index, sp.Text)
		}
	}
}

func TestDetect_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeStripePhoto(t, dir)
	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{"), 0o644)
	junk := filepath.Join(dir, "junk.png")
	os.WriteFile(junk, []byte("not an image"), 0o644)

	tests := []struct {
		name string
		path string
		opts detectOptions
	}{
		{"missing image", filepath.Join(dir, "none.png"), detectOptions{outDir: dir}},
		{"bad config", path, detectOptions{outDir: dir, configPath: bad}},
		{"missing config", path, detectOptions{outDir: dir, configPath: filepath.Join(dir, "none.json")}},
		{"undecodable", junk, detectOptions{outDir: dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := detect(testApp(t), tt.path, tt.opts, &bytes.Buffer{}); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
