package server

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/shelfscan/internal/detection"
	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "spines_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	log := s.log.WithField("tool", params.Name)
	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		log.WithError(err).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool done")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "shelf_rows":
		return s.handleShelfRows(args)
	case "shelf_separators":
		return s.handleShelfSeparators(args)
	case "spine_lines":
		return s.handleSpineLines(args)
	case "spines_detect":
		return s.handleSpinesDetect(args)
	case "spines_recognize":
		return s.handleSpinesRecognize(args)
	case "edge_map":
		return s.handleEdgeMap(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// analysisArgs are the arguments shared by every analysis tool.
type analysisArgs struct {
	Path   string                    `json:"path"`
	Config *detection.ConfigOverride `json:"config,omitempty"`
}

// parseAnalysisArgs decodes args into dst and loads the image bytes.
func (s *Server) parseAnalysisArgs(args json.RawMessage, dst interface{}, base *analysisArgs) ([]byte, error) {
	if err := json.Unmarshal(args, dst); err != nil {
		return nil, err
	}
	if base.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return s.cache.Load(base.Path)
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

type imageLoadResult struct {
	Path string `json:"path"`
	*imaging.ImageInfo
	Backend string `json:"backend"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	return &imageLoadResult{Path: a.Path, ImageInfo: info, Backend: s.detector.BackendName()}, nil
}

// === Shelf Analysis ===

type shelfRowsResult struct {
	Rows  []detection.ShelfRow `json:"rows"`
	Count int                  `json:"count"`
}

func (s *Server) handleShelfRows(args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	data, err := s.parseAnalysisArgs(args, &a, &a)
	if err != nil {
		return nil, err
	}
	rows, err := s.detector.Rows(data, a.Config)
	if err != nil {
		return nil, err
	}
	return &shelfRowsResult{Rows: rows, Count: len(rows)}, nil
}

type linesResult struct {
	Lines []detection.Line `json:"lines"`
	Count int              `json:"count"`
}

func (s *Server) handleShelfSeparators(args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	data, err := s.parseAnalysisArgs(args, &a, &a)
	if err != nil {
		return nil, err
	}
	lines, err := s.detector.Separators(data, a.Config)
	if err != nil {
		return nil, err
	}
	return &linesResult{Lines: lines, Count: len(lines)}, nil
}

type spineLinesResult struct {
	Rows       []detection.RowLines `json:"rows"`
	TotalLines int                  `json:"total_lines"`
}

func (s *Server) handleSpineLines(args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	data, err := s.parseAnalysisArgs(args, &a, &a)
	if err != nil {
		return nil, err
	}
	rows, err := s.detector.Lines(data, a.Config)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, r := range rows {
		total += len(r.Lines)
	}
	return &spineLinesResult{Rows: rows, TotalLines: total}, nil
}

// === Spine Detection ===

type spinesDetectArgs struct {
	analysisArgs
	IncludeImages bool `json:"include_images"`
	Debug         bool `json:"debug"`
	Overlay       bool `json:"overlay"`
}

type spinesDetectResult struct {
	Spines     []detection.Spine    `json:"spines"`
	Count      int                  `json:"count"`
	Filtered   int                  `json:"filtered"`
	Rows       []detection.ShelfRow `json:"rows"`
	Stats      detection.Stats      `json:"stats"`
	DebugEdges string               `json:"debug_edges,omitempty"`
	Overlay    string               `json:"overlay,omitempty"`
	MimeType   string               `json:"mime_type,omitempty"`
}

func (s *Server) handleSpinesDetect(args json.RawMessage) (interface{}, error) {
	var a spinesDetectArgs
	data, err := s.parseAnalysisArgs(args, &a, &a.analysisArgs)
	if err != nil {
		return nil, err
	}

	res, err := s.detector.Detect(data, detection.Request{Override: a.Config, Debug: a.Debug})
	if err != nil {
		return nil, err
	}

	out := &spinesDetectResult{
		Spines:   res.Spines,
		Count:    len(res.Spines),
		Filtered: res.Filtered,
		Rows:     res.Rows,
		Stats:    res.Stats,
	}
	if !a.IncludeImages {
		out.Spines = withoutImages(res.Spines)
	}
	if len(res.DebugEdges) > 0 {
		out.DebugEdges = base64.StdEncoding.EncodeToString(res.DebugEdges)
		out.MimeType = "image/png"
	}
	if a.Overlay {
		png, err := imaging.RenderOverlay(data, imaging.Overlay{
			Rows:  res.RowRects(),
			Boxes: res.SpineRects(),
		})
		if err != nil {
			return nil, err
		}
		out.Overlay = base64.StdEncoding.EncodeToString(png)
		out.MimeType = "image/png"
	}
	return out, nil
}

// withoutImages copies spines dropping the crop bytes.
func withoutImages(spines []detection.Spine) []detection.Spine {
	out := make([]detection.Spine, len(spines))
	copy(out, spines)
	for i := range out {
		out[i].Image = nil
	}
	return out
}

type recognizedSpine struct {
	ocr.SpineText
	BoundingBox detection.BoundingBox `json:"boundingBox"`
}

type spinesRecognizeResult struct {
	Spines   []recognizedSpine `json:"spines"`
	Count    int               `json:"count"`
	Filtered int               `json:"filtered"`
}

func (s *Server) handleSpinesRecognize(args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	data, err := s.parseAnalysisArgs(args, &a, &a)
	if err != nil {
		return nil, err
	}
	if s.recognizer == nil {
		return nil, ocr.ErrUnavailable
	}

	res, err := s.detector.Detect(data, detection.Request{Override: a.Config})
	if err != nil {
		return nil, err
	}
	texts, err := ocr.RecognizeSpines(s.recognizer, res.Spines)
	if err != nil {
		return nil, err
	}

	out := &spinesRecognizeResult{
		Spines:   make([]recognizedSpine, len(texts)),
		Count:    len(texts),
		Filtered: res.Filtered,
	}
	for i, t := range texts {
		out.Spines[i] = recognizedSpine{SpineText: t, BoundingBox: res.Spines[i].BoundingBox}
	}
	return out, nil
}

// === Debug Output ===

type edgeMapResult struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleEdgeMap(args json.RawMessage) (interface{}, error) {
	var a analysisArgs
	data, err := s.parseAnalysisArgs(args, &a, &a)
	if err != nil {
		return nil, err
	}
	png, err := s.detector.EdgeMap(data, a.Config)
	if err != nil {
		return nil, err
	}
	return &edgeMapResult{
		ImageBase64: base64.StdEncoding.EncodeToString(png),
		MimeType:    "image/png",
	}, nil
}
