package geometry

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

var (
	// ErrMalformed 点数与几何类型不符，或数据无法解码
	ErrMalformed = errors.New("malformed geometry")
	// ErrUnsupported 未知的几何类型
	ErrUnsupported = errors.New("unsupported geometry type")
)

const (
	TypePoint     = "point"
	TypeRectangle = "rectangle"
	TypePolygon   = "polygon"
	TypeLine      = "line"
	TypeBitmap    = "bitmap"
	TypeCuboid    = "cuboid"
	TypeGraph     = "graph"
)

// Geometry 可缩放、可绘制的几何对象
type Geometry interface {
	Type() string
	Bounds() image.Rectangle
	Scale(sx, sy float64) Geometry
	// Draw 填充绘制；thickness 对点表示半径，对线表示线宽
	Draw(dst *image.RGBA, c color.RGBA, thickness int)
}

// Decode 按 geometryType 解析对象的几何数据。graph 的边来自类别的 geometry_config。
func Decode(obj model.ObjectJSON, geometryConfig json.RawMessage) (Geometry, error) {
	switch obj.GeometryType {
	case TypePoint:
		pts, err := decodePoints(obj)
		if err != nil {
			return nil, err
		}
		if len(pts.exterior) != 1 {
			return nil, malformed(obj, "point needs exactly 1 point, got %d", len(pts.exterior))
		}
		return &Point{Location: pts.exterior[0]}, nil

	case TypeRectangle:
		pts, err := decodePoints(obj)
		if err != nil {
			return nil, err
		}
		if len(pts.exterior) != 2 {
			return nil, malformed(obj, "rectangle needs exactly 2 points, got %d", len(pts.exterior))
		}
		return NewRectangle(pts.exterior[0], pts.exterior[1]), nil

	case TypePolygon:
		pts, err := decodePoints(obj)
		if err != nil {
			return nil, err
		}
		if len(pts.exterior) < 3 {
			return nil, malformed(obj, "polygon exterior needs at least 3 points, got %d", len(pts.exterior))
		}
		for i, h := range pts.interior {
			if len(h) < 3 {
				return nil, malformed(obj, "polygon interior %d needs at least 3 points, got %d", i, len(h))
			}
		}
		return &Polygon{Exterior: pts.exterior, Interior: pts.interior}, nil

	case TypeLine:
		pts, err := decodePoints(obj)
		if err != nil {
			return nil, err
		}
		if len(pts.exterior) < 2 {
			return nil, malformed(obj, "line needs at least 2 points, got %d", len(pts.exterior))
		}
		return &Polyline{Points: pts.exterior}, nil

	case TypeBitmap:
		if obj.Bitmap == nil {
			return nil, malformed(obj, "bitmap data is missing")
		}
		b, err := DecodeBitmap(*obj.Bitmap)
		if err != nil {
			return nil, malformed(obj, "%v", err)
		}
		return b, nil

	case TypeCuboid:
		return decodeCuboid(obj)

	case TypeGraph:
		return decodeGraph(obj, geometryConfig)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, obj.GeometryType)
	}
}

func malformed(obj model.ObjectJSON, format string, args ...any) error {
	return fmt.Errorf("%w: object %d (%s): %s", ErrMalformed, obj.ID, obj.ClassTitle, fmt.Sprintf(format, args...))
}

type pointSet struct {
	exterior []image.Point
	interior [][]image.Point
}

func decodePoints(obj model.ObjectJSON) (pointSet, error) {
	if len(obj.Points) == 0 {
		return pointSet{}, malformed(obj, "points are missing")
	}
	var raw model.PointsJSON
	if err := json.Unmarshal(obj.Points, &raw); err != nil {
		return pointSet{}, malformed(obj, "decode points: %v", err)
	}

	var set pointSet
	var err error
	if set.exterior, err = toPoints(raw.Exterior); err != nil {
		return pointSet{}, malformed(obj, "exterior: %v", err)
	}
	for i, ring := range raw.Interior {
		pts, err := toPoints(ring)
		if err != nil {
			return pointSet{}, malformed(obj, "interior %d: %v", i, err)
		}
		set.interior = append(set.interior, pts)
	}
	return set, nil
}

// toPoints 把 [x, y] 坐标四舍五入为像素
func toPoints(coords [][]float64) ([]image.Point, error) {
	pts := make([]image.Point, 0, len(coords))
	for i, c := range coords {
		if len(c) != 2 {
			return nil, fmt.Errorf("point %d has %d coordinates", i, len(c))
		}
		pts = append(pts, image.Point{X: round(c[0]), Y: round(c[1])})
	}
	return pts, nil
}

func scalePoint(p image.Point, sx, sy float64) image.Point {
	return image.Point{X: round(float64(p.X) * sx), Y: round(float64(p.Y) * sy)}
}

func scalePoints(pts []image.Point, sx, sy float64) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = scalePoint(p, sx, sy)
	}
	return out
}
