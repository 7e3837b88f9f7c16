// Package server implements the MCP (Model Context Protocol) server for
// bookshelf spine detection.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - image_load: Load a photo and get its metadata
//   - shelf_rows: Shelf bands from the brightness profile
//   - shelf_separators: Long horizontal edges across the photo
//   - spine_lines: Merged vertical spine edges per row
//   - spines_detect: Full pipeline with optional crops, edge map and overlay
//   - spines_recognize: Full pipeline followed by OCR of every crop
//   - edge_map: Preprocessed edge map of the working image
//
// Every analysis tool takes an optional "config" object whose fields
// override the detection parameters for that call only.
//
// # Image Caching
//
// Encoded files are cached by path and reused across tool calls. The cache
// persists for the lifetime of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
package server
