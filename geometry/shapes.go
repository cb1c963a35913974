package geometry

import (
	"image"
	"image/color"
)

// Point 单点，绘制为实心圆
type Point struct {
	Location image.Point
}

func (p *Point) Type() string { return TypePoint }

func (p *Point) Bounds() image.Rectangle {
	return image.Rectangle{Min: p.Location, Max: p.Location.Add(image.Point{X: 1, Y: 1})}
}

func (p *Point) Scale(sx, sy float64) Geometry {
	return &Point{Location: scalePoint(p.Location, sx, sy)}
}

func (p *Point) Draw(dst *image.RGBA, c color.RGBA, thickness int) {
	fillDisc(dst, p.Location.X, p.Location.Y, thickness, c)
}

// Rectangle 轴对齐矩形，Min/Max 均为包含的像素坐标
type Rectangle struct {
	Min, Max image.Point
}

// NewRectangle 由任意两个对角点构造矩形
func NewRectangle(a, b image.Point) *Rectangle {
	return &Rectangle{
		Min: image.Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: image.Point{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

func (r *Rectangle) Type() string { return TypeRectangle }

func (r *Rectangle) Bounds() image.Rectangle {
	return image.Rectangle{Min: r.Min, Max: r.Max.Add(image.Point{X: 1, Y: 1})}
}

func (r *Rectangle) Scale(sx, sy float64) Geometry {
	return NewRectangle(scalePoint(r.Min, sx, sy), scalePoint(r.Max, sx, sy))
}

func (r *Rectangle) Draw(dst *image.RGBA, c color.RGBA, _ int) {
	fillRect(dst, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, c)
}

// DrawContour 只绘制边框
func (r *Rectangle) DrawContour(dst *image.RGBA, c color.RGBA, thickness int) {
	strokeRect(dst, r.Min.X, r.Min.Y, r.Max.X, r.Max.Y, thickness, c)
}

// Polygon 带空洞的多边形
type Polygon struct {
	Exterior []image.Point
	Interior [][]image.Point
}

func (p *Polygon) Type() string { return TypePolygon }

func (p *Polygon) Bounds() image.Rectangle {
	return boundsOf(p.Exterior)
}

func (p *Polygon) Scale(sx, sy float64) Geometry {
	out := &Polygon{Exterior: scalePoints(p.Exterior, sx, sy)}
	for _, h := range p.Interior {
		out.Interior = append(out.Interior, scalePoints(h, sx, sy))
	}
	return out
}

func (p *Polygon) Draw(dst *image.RGBA, c color.RGBA, _ int) {
	fillPolygon(dst, p.Exterior, p.Interior, c)
}

// Polyline 折线
type Polyline struct {
	Points []image.Point
}

func (l *Polyline) Type() string { return TypeLine }

func (l *Polyline) Bounds() image.Rectangle {
	return boundsOf(l.Points)
}

func (l *Polyline) Scale(sx, sy float64) Geometry {
	return &Polyline{Points: scalePoints(l.Points, sx, sy)}
}

func (l *Polyline) Draw(dst *image.RGBA, c color.RGBA, thickness int) {
	for i := 1; i < len(l.Points); i++ {
		strokeSegment(dst, l.Points[i-1], l.Points[i], thickness, c)
	}
}
