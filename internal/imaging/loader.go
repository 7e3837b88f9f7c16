package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// FileCache provides thread-safe caching of encoded image files to avoid
// redundant disk reads.
//
// The cache stores the raw file bytes keyed by path. Detection always starts
// from the encoded buffer, so bytes (not decoded images) are what callers
// need to reuse between tool calls.
//
// FileCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached files remain in memory until explicitly removed via Evict() or
// Clear(). For long-running processes handling many images, consider periodic
// cleanup to prevent unbounded memory growth.
type FileCache struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewFileCache creates and initializes a new empty cache.
func NewFileCache() *FileCache {
	return &FileCache{
		files: make(map[string][]byte),
	}
}

// Load returns the bytes of the file at path, reading it on first use.
//
// The file is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate entries. The
// returned slice is shared; callers must not modify it.
func (c *FileCache) Load(path string) ([]byte, error) {
	c.mu.RLock()
	if data, ok := c.files[path]; ok {
		c.mu.RUnlock()
		return data, nil
	}
	c.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	c.mu.Lock()
	c.files[path] = data
	c.mu.Unlock()

	return data, nil
}

// Clear removes all files from the cache.
func (c *FileCache) Clear() {
	c.mu.Lock()
	c.files = make(map[string][]byte)
	c.mu.Unlock()
}

// Evict removes a specific file from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *FileCache) Evict(path string) {
	c.mu.Lock()
	delete(c.files, path)
	c.mu.Unlock()
}

// Len reports the number of cached files.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder name reported by the image header: "jpeg",
	// "png", "gif", "webp", ...
	Format string `json:"format"`

	// FileSizeBytes is the size of the encoded file in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo reads only the image header, so it is cheap even for large
// photos.
func LoadImageInfo(cache *FileCache, path string) (*ImageInfo, error) {
	data, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return DescribeImage(data)
}

// DescribeImage reports the dimensions and format of an encoded buffer.
func DescribeImage(data []byte) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	return &ImageInfo{
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
		FileSizeBytes: int64(len(data)),
	}, nil
}
