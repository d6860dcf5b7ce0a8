// Package drift compares a layout catalog with the template it describes.
// Findings are plain messages; the caller decides whether to halt.
package drift
