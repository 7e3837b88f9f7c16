// Package httpapi serves spine detection over HTTP.
//
// Routes:
//
//	GET  /healthz     liveness plus backend and OCR availability
//	POST /v1/spines   multipart upload: "image" file, optional "config" JSON
//	                  override, "debug", "ocr" and "images" booleans
//
// Every response carries an X-Request-ID header. Detection runs under a
// per-request deadline; when it expires the client gets 504 while the
// pipeline finishes in the background and its result is dropped.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/logging"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "requestID"
)

// Options configures a Server. Zero values pick the defaults.
type Options struct {
	// Timeout bounds detection (and OCR) per request. Default 30s.
	Timeout time.Duration
	// MaxUploadBytes caps the request body. Default 32 MiB.
	MaxUploadBytes int64
	// Recognizer enables the "ocr" form flag when set.
	Recognizer ocr.Recognizer
	// Logger receives one entry per request.
	Logger logrus.FieldLogger
}

// Server is the HTTP front end to a Detector.
type Server struct {
	detector   *detection.Detector
	recognizer ocr.Recognizer
	log        logrus.FieldLogger
	timeout    time.Duration
	maxUpload  int64
	engine     *gin.Engine

	// detect is the pipeline entry point, replaceable in tests.
	detect func(data []byte, req detection.Request) (*detection.Result, error)
}

// New builds the server and its routes.
func New(d *detection.Detector, opts Options) *Server {
	s := &Server{
		detector:   d,
		recognizer: opts.Recognizer,
		log:        opts.Logger,
		timeout:    opts.Timeout,
		maxUpload:  opts.MaxUploadBytes,
		detect:     d.Detect,
	}
	if s.log == nil {
		s.log = logging.Discard()
	}
	if s.timeout <= 0 {
		s.timeout = 30 * time.Second
	}
	if s.maxUpload <= 0 {
		s.maxUpload = 32 << 20
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log))
	r.GET("/healthz", s.healthHandler)
	r.POST("/v1/spines", s.spinesHandler)
	s.engine = r
	return s
}

// Handler returns the routed http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.timeout+5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

// requestID tags every request with a UUID, reusing a valid incoming one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"request_id": c.GetString(requestIDKey),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}
