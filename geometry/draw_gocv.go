//go:build gocv
// +build gocv

package geometry

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// onMat 把 dst 的 area 区域转换为 Mat 交给 draw 绘制后写回，draw 收到的坐标原点为 area.Min。
// 转换失败时返回 false，调用方退回纯 Go 实现。
func onMat(dst *image.RGBA, area image.Rectangle, draw func(m *gocv.Mat, origin image.Point)) bool {
	area = area.Intersect(dst.Rect)
	if area.Empty() {
		return true
	}
	m, err := utils.MatFromPix(dst.Pix, dst.Stride, dst.Rect, area)
	if err != nil {
		return false
	}
	defer m.Close()

	draw(&m, area.Min)
	utils.PixFromMat(m, dst.Pix, dst.Stride, dst.Rect, area)
	return true
}

// fillRect 填充闭区间 [x1,x2]×[y1,y2]
func fillRect(dst *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	ok := onMat(dst, image.Rect(x1, y1, x2+1, y2+1), func(m *gocv.Mat, o image.Point) {
		gocv.Rectangle(m, image.Rect(x1, y1, x2, y2).Sub(o), utils.SwapRB(c), -1)
	})
	if !ok {
		rectPixels(dst, x1, y1, x2, y2, c)
	}
}

// strokeRect 用四条实心边带拼出以边线为中心的边框，与纯 Go 实现逐像素一致
func strokeRect(dst *image.RGBA, x1, y1, x2, y2, thickness int, c color.RGBA) {
	if thickness < 1 {
		thickness = 1
	}
	lo := thickness / 2
	hi := (thickness - 1) / 2

	bands := []image.Rectangle{
		image.Rect(x1-lo, y1-lo, x2+lo, y1+hi),
		image.Rect(x1-lo, y2-hi, x2+lo, y2+lo),
		image.Rect(x1-lo, y1-lo, x1+hi, y2+lo),
		image.Rect(x2-hi, y1-lo, x2+lo, y2+lo),
	}
	col := utils.SwapRB(c)
	ok := onMat(dst, image.Rect(x1-lo, y1-lo, x2+lo+1, y2+lo+1), func(m *gocv.Mat, o image.Point) {
		for _, b := range bands {
			gocv.Rectangle(m, b.Sub(o), col, -1)
		}
	})
	if !ok {
		outlinePixels(dst, x1, y1, x2, y2, thickness, c)
	}
}

// fillDisc 以 (cx, cy) 为圆心填充半径为 r 的圆
func fillDisc(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r < 0 {
		return
	}
	ok := onMat(dst, image.Rect(cx-r, cy-r, cx+r+1, cy+r+1), func(m *gocv.Mat, o image.Point) {
		gocv.Circle(m, image.Pt(cx, cy).Sub(o), r, utils.SwapRB(c), -1)
	})
	if !ok {
		discPixels(dst, cx, cy, r, c)
	}
}

// strokeSegment 绘制宽度为 thickness 的线段，OpenCV 的粗线端点为圆头
func strokeSegment(dst *image.RGBA, a, b image.Point, thickness int, c color.RGBA) {
	if thickness < 1 {
		thickness = 1
	}
	area := image.Rect(
		min(a.X, b.X)-thickness, min(a.Y, b.Y)-thickness,
		max(a.X, b.X)+thickness+1, max(a.Y, b.Y)+thickness+1,
	)

	ok := onMat(dst, area, func(m *gocv.Mat, o image.Point) {
		gocv.Line(m, a.Sub(o), b.Sub(o), utils.SwapRB(c), thickness)
	})
	if !ok {
		segmentPixels(dst, a, b, thickness, c)
	}
}
