package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// spinesResponse is the body of a successful POST /v1/spines.
type spinesResponse struct {
	RequestID  string               `json:"requestId"`
	Spines     []detection.Spine    `json:"spines"`
	Count      int                  `json:"count"`
	Filtered   int                  `json:"filtered"`
	Rows       []detection.ShelfRow `json:"rows"`
	Stats      detection.Stats      `json:"stats"`
	DebugEdges []byte               `json:"debugEdges,omitempty"`
	Text       []ocr.SpineText      `json:"text,omitempty"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	OCR     bool   `json:"ocr"`
}

// outcome carries the pipeline result back from the worker goroutine.
type outcome struct {
	res  *detection.Result
	text []ocr.SpineText
	err  error
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Backend: s.detector.BackendName(),
		OCR:     s.recognizer != nil,
	})
}

func (s *Server) spinesHandler(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUpload)

	fh, err := c.FormFile("image")
	if err != nil {
		if isTooLarge(err) {
			abort(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.maxUpload))
			return
		}
		abort(c, http.StatusBadRequest, "multipart field \"image\" is required")
		return
	}

	var override *detection.ConfigOverride
	if raw := c.PostForm("config"); raw != "" {
		override = &detection.ConfigOverride{}
		if err := json.Unmarshal([]byte(raw), override); err != nil {
			abort(c, http.StatusBadRequest, "invalid config: "+err.Error())
			return
		}
	}

	flags := map[string]bool{}
	for _, name := range []string{"debug", "ocr", "images"} {
		v, err := formBool(c, name)
		if err != nil {
			abort(c, http.StatusBadRequest, err.Error())
			return
		}
		flags[name] = v
	}
	if flags["ocr"] && s.recognizer == nil {
		abort(c, http.StatusNotImplemented, ocr.ErrUnavailable.Error())
		return
	}

	f, err := fh.Open()
	if err != nil {
		abort(c, http.StatusBadRequest, "unreadable upload: "+err.Error())
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		abort(c, http.StatusBadRequest, "unreadable upload: "+err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
	defer cancel()

	// Buffered so the worker never blocks after a timeout.
	done := make(chan outcome, 1)
	req := detection.Request{Override: override, Debug: flags["debug"]}
	go func() {
		var o outcome
		o.res, o.err = s.detect(data, req)
		if o.err == nil && flags["ocr"] {
			o.text, o.err = ocr.RecognizeSpines(s.recognizer, o.res.Spines)
		}
		done <- o
	}()

	select {
	case <-ctx.Done():
		s.log.WithField("request_id", c.GetString(requestIDKey)).Warn("detection timed out")
		abort(c, http.StatusGatewayTimeout, "detection timed out after "+s.timeout.String())
	case o := <-done:
		if o.err != nil {
			abort(c, statusFor(o.err), o.err.Error())
			return
		}
		c.JSON(http.StatusOK, s.response(c, o, flags["images"]))
	}
}

func (s *Server) response(c *gin.Context, o outcome, images bool) spinesResponse {
	spines := o.res.Spines
	if !images {
		spines = make([]detection.Spine, len(o.res.Spines))
		copy(spines, o.res.Spines)
		for i := range spines {
			spines[i].Image = nil
		}
	}
	return spinesResponse{
		RequestID:  c.GetString(requestIDKey),
		Spines:     spines,
		Count:      len(spines),
		Filtered:   o.res.Filtered,
		Rows:       o.res.Rows,
		Stats:      o.res.Stats,
		DebugEdges: o.res.DebugEdges,
		Text:       o.text,
	}
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, detection.ErrDecode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, detection.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ocr.ErrUnavailable):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error":     msg,
		"requestId": c.GetString(requestIDKey),
	})
}

// formBool reads an optional boolean form field. Absent means false.
func formBool(c *gin.Context, name string) (bool, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("field %q must be a boolean, got %q", name, raw)
	}
	return v, nil
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return true
	}
	return strings.Contains(err.Error(), "request body too large")
}
