// Package glyph converts images to character grids using a bitmap font.
//
// A Font is loaded from BDF and restricted to an alphabet. Each glyph gets
// an intensity (ink coverage) and an orientation feature (doubled-angle
// Sobel gradient). Convert splits a grayscale image into font-shaped cells
// and picks the glyph whose features best match each cell.
package glyph
