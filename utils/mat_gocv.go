//go:build gocv
// +build gocv

package utils

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// MatFromPix 把 4 通道像素（RGBA 或 NRGBA 的 Pix）中 area 区域拷贝为 CV_8UC4 Mat，
// bounds 为像素缓冲对应的图像范围
func MatFromPix(pix []uint8, stride int, bounds, area image.Rectangle) (gocv.Mat, error) {
	area = area.Intersect(bounds)
	if area.Empty() {
		return gocv.NewMat(), fmt.Errorf("empty area %v", area)
	}
	w, h := area.Dx(), area.Dy()
	packed := make([]byte, 0, 4*w*h)
	for y := area.Min.Y; y < area.Max.Y; y++ {
		off := (y-bounds.Min.Y)*stride + (area.Min.X-bounds.Min.X)*4
		packed = append(packed, pix[off:off+4*w]...)
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC4, packed)
}

// PixFromMat 把 CV_8UC4 Mat 写回像素缓冲的 area 区域，area 需与 MatFromPix 时一致
func PixFromMat(m gocv.Mat, pix []uint8, stride int, bounds, area image.Rectangle) {
	area = area.Intersect(bounds)
	data := m.ToBytes()
	w := area.Dx()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		off := (y-bounds.Min.Y)*stride + (area.Min.X-bounds.Min.X)*4
		src := (y - area.Min.Y) * 4 * w
		copy(pix[off:off+4*w], data[src:src+4*w])
	}
}

// SwapRB gocv 的绘制函数按 BGRA 顺序写入颜色，在 RGBA 排列的 Mat 上绘制前交换 R 和 B
func SwapRB(c color.RGBA) color.RGBA {
	return color.RGBA{R: c.B, G: c.G, B: c.R, A: c.A}
}
