package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the bookshelf photo (JPEG, PNG or WebP)",
	}
}

func numberProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "number", "description": description}
}

// configProperty describes the optional detection overrides shared by every
// analysis tool.
func configProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional detection parameter overrides; unset fields keep the server defaults",
		"properties": map[string]interface{}{
			"minSpineWidthPercent":   numberProperty("Narrowest accepted spine as % of image width (default 0.8)"),
			"maxSpineWidthPercent":   numberProperty("Widest accepted spine as % of image width (default 12)"),
			"verticalAngleTolerance": numberProperty("Max deviation from vertical in degrees (default 15)"),
			"minLineLengthPercent":   numberProperty("Min edge line length as % of row height (default 15)"),
			"cannyLowThreshold":      numberProperty("Canny hysteresis low threshold (default 30)"),
			"cannyHighThreshold":     numberProperty("Canny hysteresis high threshold (default 120)"),
			"maxImageDimension": map[string]interface{}{
				"type":        "integer",
				"description": "Longest side of the working image in pixels (default 2000)",
			},
			"mergeThreshold":         numberProperty("Lines closer than this many pixels are merged (default 8)"),
			"minQualityWidthPercent": numberProperty("Spines narrower than this % of image width are dropped (default 1.5)"),
			"minMeanBrightness":      numberProperty("Spines darker than this mean brightness are dropped (default 20)"),
			"jpegQuality": map[string]interface{}{
				"type":        "integer",
				"description": "JPEG quality of spine crops, 1-100 (default 90)",
			},
		},
	}
}

func analysisSchema(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"path":   pathProperty(),
		"config": configProperty(),
	}
	for k, v := range extra {
		props[k] = v
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   []string{"path"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load a bookshelf photo and return its dimensions, format and file size. The file is cached for subsequent calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "shelf_rows",
			Description: "Split the photo into horizontal shelf bands using the brightness profile. Returns rows as {y, height} in original pixels.",
			InputSchema: analysisSchema(nil),
		},
		{
			Name:        "shelf_separators",
			Description: "Find long horizontal edges (shelf boards) across the whole photo. Useful to cross-check shelf_rows.",
			InputSchema: analysisSchema(nil),
		},
		{
			Name:        "spine_lines",
			Description: "Find the merged vertical edge lines between book spines in every shelf row, in original pixel coordinates.",
			InputSchema: analysisSchema(nil),
		},
		{
			Name:        "spines_detect",
			Description: "Run the full spine detection pipeline. Returns spine bounding boxes, shelf rows and statistics; optionally the JPEG crops, the last row's edge map and an annotated overlay.",
			InputSchema: analysisSchema(map[string]interface{}{
				"include_images": map[string]interface{}{
					"type":        "boolean",
					"description": "Include base64 JPEG crops of every spine. Default false",
					"default":     false,
				},
				"debug": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the last row's edge map as base64 PNG. Default false",
					"default":     false,
				},
				"overlay": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the photo annotated with rows and numbered spine boxes as base64 PNG. Default false",
					"default":     false,
				},
			}),
		},
		{
			Name:        "spines_recognize",
			Description: "Detect spines and read the title text of each crop with Tesseract OCR. Each crop is tried upright and rotated both ways.",
			InputSchema: analysisSchema(nil),
		},
		{
			Name:        "edge_map",
			Description: "Return the preprocessed Canny edge map of the whole working-resolution photo as base64 PNG.",
			InputSchema: analysisSchema(nil),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
