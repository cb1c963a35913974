//go:build !gocv
// +build !gocv

package geometry

import (
	"image"
	"image/color"
)

func fillRect(dst *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	rectPixels(dst, x1, y1, x2, y2, c)
}

func strokeRect(dst *image.RGBA, x1, y1, x2, y2, thickness int, c color.RGBA) {
	outlinePixels(dst, x1, y1, x2, y2, thickness, c)
}

func fillDisc(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	discPixels(dst, cx, cy, r, c)
}

func strokeSegment(dst *image.RGBA, a, b image.Point, thickness int, c color.RGBA) {
	segmentPixels(dst, a, b, thickness, c)
}
