package geometry

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"
)

// coverageThreshold 覆盖率达到该值的像素才着色，避免抗锯齿边缘产生半透明颜色
const coverageThreshold = 0x20

func setPixel(dst *image.RGBA, x, y int, c color.RGBA) {
	if !(image.Point{X: x, Y: y}).In(dst.Rect) {
		return
	}
	dst.SetRGBA(x, y, c)
}

// rectPixels 填充闭区间 [x1,x2]×[y1,y2]
func rectPixels(dst *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	r := image.Rect(x1, y1, x2+1, y2+1).Intersect(dst.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			dst.SetRGBA(x, y, c)
		}
	}
}

// outlinePixels 沿矩形边缘绘制宽度为 thickness 的边框，边框以边线为中心
func outlinePixels(dst *image.RGBA, x1, y1, x2, y2, thickness int, c color.RGBA) {
	if thickness < 1 {
		thickness = 1
	}
	lo := thickness / 2
	hi := (thickness - 1) / 2

	outer := image.Rect(x1-lo, y1-lo, x2+lo+1, y2+lo+1).Intersect(dst.Rect)
	for y := outer.Min.Y; y < outer.Max.Y; y++ {
		for x := outer.Min.X; x < outer.Max.X; x++ {
			inside := x > x1+hi && x < x2-hi && y > y1+hi && y < y2-hi
			if !inside {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// discPixels 以 (cx, cy) 为圆心填充半径为 r 的圆
func discPixels(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	if r < 0 {
		return
	}
	box := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(dst.Rect)
	rr := r * r
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := y - cy
		for x := box.Min.X; x < box.Max.X; x++ {
			dx := x - cx
			if dx*dx+dy*dy <= rr {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// rasterize 把闭合路径栅格化为覆盖率图，坐标取像素中心
func rasterize(size image.Point, paths ...[]image.Point) *image.Alpha {
	cov := image.NewAlpha(image.Rectangle{Max: size})
	if size.X <= 0 || size.Y <= 0 {
		return cov
	}
	r := vector.NewRasterizer(size.X, size.Y)
	drawn := false
	for _, path := range paths {
		if len(path) < 3 {
			continue
		}
		r.MoveTo(float32(path[0].X)+0.5, float32(path[0].Y)+0.5)
		for _, p := range path[1:] {
			r.LineTo(float32(p.X)+0.5, float32(p.Y)+0.5)
		}
		r.ClosePath()
		drawn = true
	}
	if drawn {
		r.Draw(cov, cov.Bounds(), image.Opaque, image.Point{})
	}
	return cov
}

// fillPolygon 填充外轮廓并挖去内部空洞，只在外轮廓的包围盒内栅格化
func fillPolygon(dst *image.RGBA, exterior []image.Point, holes [][]image.Point, c color.RGBA) {
	if len(exterior) == 0 {
		return
	}
	area := boundsOf(exterior).Intersect(dst.Rect)
	if area.Empty() {
		return
	}
	origin := area.Min
	size := area.Size()
	shift := func(pts []image.Point) []image.Point {
		out := make([]image.Point, len(pts))
		for i, p := range pts {
			out[i] = p.Sub(origin)
		}
		return out
	}

	ext := rasterize(size, shift(exterior))
	var hole *image.Alpha
	if len(holes) > 0 {
		shifted := make([][]image.Point, len(holes))
		for i, h := range holes {
			shifted[i] = shift(h)
		}
		hole = rasterize(size, shifted...)
	}

	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if ext.AlphaAt(x, y).A < coverageThreshold {
				continue
			}
			if hole != nil && hole.AlphaAt(x, y).A >= coverageThreshold {
				continue
			}
			dst.SetRGBA(x+origin.X, y+origin.Y, c)
		}
	}

	// 退化为线段或点的轮廓不会产生覆盖率，至少保证顶点可见
	for _, p := range exterior {
		if ext.AlphaAt(p.X-origin.X, p.Y-origin.Y).A == 0 {
			setPixel(dst, p.X, p.Y, c)
		}
	}
}

// boundsOf 返回包含所有点的最小矩形，Max 为开区间
func boundsOf(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	r.Max = r.Max.Add(image.Point{X: 1, Y: 1})
	return r
}

// segmentPixels 绘制宽度为 thickness 的线段，端点为圆头
func segmentPixels(dst *image.RGBA, a, b image.Point, thickness int, c color.RGBA) {
	if thickness < 1 {
		thickness = 1
	}
	half := float64(thickness) / 2
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	length := math.Hypot(dx, dy)

	if length > 0 {
		nx, ny := -dy/length*half, dx/length*half
		quad := []image.Point{
			{X: round(float64(a.X) + nx), Y: round(float64(a.Y) + ny)},
			{X: round(float64(b.X) + nx), Y: round(float64(b.Y) + ny)},
			{X: round(float64(b.X) - nx), Y: round(float64(b.Y) - ny)},
			{X: round(float64(a.X) - nx), Y: round(float64(a.Y) - ny)},
		}
		if thickness > 1 {
			fillPolygon(dst, quad, nil, c)
		}
		bresenham(dst, a, b, c)
	}

	r := (thickness - 1) / 2
	discPixels(dst, a.X, a.Y, r, c)
	discPixels(dst, b.X, b.Y, r, c)
}

// bresenham 一像素宽的直线，保证细线连续
func bresenham(dst *image.RGBA, a, b image.Point, c color.RGBA) {
	x0, y0, x1, y1 := a.X, a.Y, b.X, b.Y
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setPixel(dst, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// paintMask 在 mask 非零的位置着色，mask 左上角对齐 origin
func paintMask(dst *image.RGBA, mask *image.Gray, origin image.Point, c color.RGBA) {
	b := mask.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.GrayAt(x, y).Y != 0 {
				setPixel(dst, origin.X+x-b.Min.X, origin.Y+y-b.Min.Y, c)
			}
		}
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
