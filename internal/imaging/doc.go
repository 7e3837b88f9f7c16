// Package imaging is the pure-Go vision backend and the image helpers the
// server needs around it.
//
// The backend registers itself with the vision registry under the name "go"
// and implements every vision.Backend operation on top of the Mat type, a
// packed 8-bit matrix with one (gray) or four (NRGBA) channels. Decoding,
// encoding, resampling and cropping go through
// github.com/disintegration/imaging; grayscale conversion, Gaussian blur and
// histograms come from github.com/anthonynsimon/bild. Adaptive equalization,
// Canny, dilation and the probabilistic Hough transform are implemented here.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For regions, (x1,y1) is inclusive (top-left), (x2,y2) is exclusive (bottom-right)
//
// # Thread Safety
//
// Backend is stateless and safe for concurrent use. A Mat is not: callers
// must not share one matrix between goroutines while any of them writes to it.
// FileCache is safe for concurrent use.
//
// # Error Handling
//
// Operations fail on matrices produced by another backend, on matrices that
// were already released, and on channel counts an operation does not accept
// (edge detection, dilation and Hough need single-channel input).
//
// # Performance Considerations
//
// For repeated tool calls on the same photo, use FileCache to avoid redundant
// disk reads. Cached files stay in memory until Evict() or Clear().
package imaging
