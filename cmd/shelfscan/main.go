package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/config"
	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/httpapi"
	_ "github.com/ironsheep/shelfscan/internal/imaging" // Register the "go" backend
	"github.com/ironsheep/shelfscan/internal/logging"
	"github.com/ironsheep/shelfscan/internal/ocr"
	"github.com/ironsheep/shelfscan/internal/server"
	"github.com/ironsheep/shelfscan/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printHelp(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "--version", "-v", "version":
		printVersion(os.Stdout)
		return
	case "--help", "-h", "help":
		printHelp(os.Stdout)
		return
	case "detect":
		err = runDetect(args, os.Stdout)
	case "mcp":
		err = runMCP(args)
	case "serve":
		err = runServe(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		printHelp(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "shelfscan: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "shelfscan %s\n", Version)
	fmt.Fprintf(w, "  Build time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Backends:   %v\n", vision.Backends())
	if v := ocr.Version(); v != "" {
		fmt.Fprintf(w, "  Tesseract:  %s\n", v)
	}
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "shelfscan - find book spines in bookshelf photos")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: shelfscan <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  detect <image>   Detect spines and write crops to a directory")
	fmt.Fprintln(w, "  mcp              Serve MCP tools over stdin/stdout")
	fmt.Fprintln(w, "  serve            Serve the HTTP API")
	fmt.Fprintln(w, "  version          Print version information")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'shelfscan <command> -h' for command options.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables (also read from .env):")
	fmt.Fprintln(w, "  SHELFSCAN_LOG_LEVEL=debug        Log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  SHELFSCAN_LOG_FORMAT=json        Log format (text, json)")
	fmt.Fprintln(w, "  SHELFSCAN_BACKEND=go             Vision backend")
	fmt.Fprintln(w, "  SHELFSCAN_HTTP_ADDR=:8080        HTTP listen address")
	fmt.Fprintln(w, "  SHELFSCAN_REQUEST_TIMEOUT=30s    Per-request detection deadline")
	fmt.Fprintln(w, "  SHELFSCAN_OCR_LANGUAGE=eng       Tesseract language")
	fmt.Fprintln(w, "  SHELFSCAN_MAX_IMAGE_DIMENSION=2000  Detection parameters; also MIN_SPINE_WIDTH_PERCENT,")
	fmt.Fprintln(w, "                                     CANNY_LOW_THRESHOLD, JPEG_QUALITY and the rest")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logs go to stderr; stdout carries results and the MCP protocol.")
}

// app is what every command needs after startup.
type app struct {
	cfg        *config.Config
	log        *logrus.Logger
	detector   *detection.Detector
	recognizer ocr.Recognizer
}

func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	backend, err := vision.Open(cfg.Backend)
	if err != nil {
		return nil, err
	}

	d, err := detection.NewDetector(backend,
		detection.WithConfig(cfg.DetectionConfig()),
		detection.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, detector: d}
	if ocr.Available() {
		a.recognizer = ocr.NewTesseract(cfg.OCRLanguage, cfg.TessdataPrefix)
	}

	log.WithFields(logrus.Fields{
		"version": Version,
		"backend": backend.Name(),
		"ocr":     a.recognizer != nil,
	}).Debug("shelfscan starting")
	return a, nil
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	fs.Parse(args)

	a, err := setup()
	if err != nil {
		return err
	}

	opts := []server.Option{server.WithLogger(a.log), server.WithVersion(Version)}
	if a.recognizer != nil {
		opts = append(opts, server.WithRecognizer(a.recognizer))
	}
	return server.New(a.detector, opts...).Run()
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "listen address (default $SHELFSCAN_HTTP_ADDR)")
	fs.Parse(args)

	a, err := setup()
	if err != nil {
		return err
	}
	if *addr == "" {
		*addr = a.cfg.HTTPAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpapi.New(a.detector, httpapi.Options{
		Timeout:        a.cfg.RequestTimeout,
		MaxUploadBytes: a.cfg.MaxUploadBytes,
		Recognizer:     a.recognizer,
		Logger:         a.log,
	})
	return srv.ListenAndServe(ctx, *addr)
}
