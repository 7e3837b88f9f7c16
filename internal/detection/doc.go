// Package detection finds book spines in a photograph of a bookshelf.
//
// The pipeline works on an encoded image buffer and a Config and returns
// axis-aligned crops of the individual spines:
//
//  1. Decode the image and downscale a working copy to MaxImageDimension
//  2. Split the working copy into shelf rows from dark horizontal bands in
//     its brightness profile (SegmentRows)
//  3. For every row: gray, blur and equalize (Preprocess), find edges
//     (DetectEdges), extract near-vertical lines (FindLines) and collapse
//     duplicates (MergeLines)
//  4. Turn the gaps between lines into candidate strips (ComputeRegions)
//  5. Scale the strips back to the original resolution and crop them
//  6. Drop strips too narrow or too dark to hold legible text (FilterSpines)
//
// All pixel work goes through a vision.Backend, so the pipeline runs the
// same on the pure Go backend and on OpenCV.
//
// # Coordinate System
//
// Origin (0, 0) is the top-left corner, x grows rightward and y downward.
// Results (Spine, Result.Rows, Line values on a Spine) use original image
// pixels. Stage functions work in the coordinates of the matrix they are
// given.
//
// # Failure Behavior
//
// Row segmentation fails open: with no convincing shelf gaps the whole image
// is one row. A row with no lines is one spine region. Out-of-range Config
// values are clamped, not rejected. Anything else aborts the call with an
// *Error.
package detection
