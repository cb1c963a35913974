package service

import (
	"image"

	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/annotation"
	"github.com/supervisely-ecosystem/render-previews-app/geometry"
	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// maskLineWidth 掩码层上折线、图和立方体的线宽
const maskLineWidth = 1

// Layers 三个同尺寸的 RGB 渲染层
type Layers struct {
	Mask     *image.RGBA
	BBox     *image.RGBA
	FillBBox *image.RGBA
}

// LayerRenderer 把标注对象画到对应的图层
type LayerRenderer struct{}

func NewLayerRenderer() *LayerRenderer {
	return &LayerRenderer{}
}

// OutputSize 保持宽高比，输出宽度固定为 outputWidth
func OutputSize(height, width, outputWidth int) (int, int) {
	if width <= 0 {
		return 0, outputWidth
	}
	h := int(float64(height) / float64(width) * float64(outputWidth))
	return max(h, 1), outputWidth
}

// Thickness 边框宽度为图像宽度的 percent%，至少 1 像素
func Thickness(width int, percent float64) int {
	return max(int(float64(width)*percent/100), 1)
}

// Render 点画到掩码层，矩形画到边框层和填充层，其余几何以 1 像素线宽画到掩码层
func (r *LayerRenderer) Render(ann *annotation.Annotation, s model.RenderSettings) *Layers {
	rect := image.Rect(0, 0, ann.Width, ann.Height)
	layers := &Layers{
		Mask:     image.NewRGBA(rect),
		BBox:     image.NewRGBA(rect),
		FillBBox: image.NewRGBA(rect),
	}
	thickness := Thickness(ann.Width, s.BBoxThicknessPercent)
	pad := max(thickness, s.PointRadius)

	for _, label := range ann.Labels {
		// 完全落在画布外的对象不绘制
		if !label.Geometry.Bounds().Inset(-pad).Overlaps(rect) {
			utils.Logger.Debug("label outside canvas, skipped",
				zap.String("class", label.Class.Title), zap.String("geometry", label.Geometry.Type()))
			continue
		}

		c := label.Class.Color
		switch g := label.Geometry.(type) {
		case *geometry.Point:
			g.Draw(layers.Mask, c, s.PointRadius)
		case *geometry.Rectangle:
			g.DrawContour(layers.BBox, c, thickness)
			g.Draw(layers.FillBBox, c, thickness)
		default:
			g.Draw(layers.Mask, c, maskLineWidth)
		}
	}
	return layers
}
