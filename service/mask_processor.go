package service

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// MaskProcessor 负责把渲染图层合成为带透明通道的叠加图
type MaskProcessor struct{}

func NewMaskProcessor() *MaskProcessor {
	return &MaskProcessor{}
}

// alphaPixels 非黑色像素的透明度为 opacity*255，其余为 0
func alphaPixels(layer *image.RGBA, opacity float64) *image.Alpha {
	b := layer.Bounds()
	alpha := image.NewAlpha(b)
	a := opacityToAlpha(opacity)
	if a == 0 {
		return alpha
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if nonBlack(layer.RGBAAt(x, y)) {
				alpha.SetAlpha(x, y, color.Alpha{A: a})
			}
		}
	}
	return alpha
}

// compositePixels 逐像素按 边框 > 掩码 > 填充框 的优先级选择颜色和透明度
func compositePixels(layers *Layers, s model.RenderSettings) *image.NRGBA {
	alphaMask := alphaPixels(layers.Mask, s.MaskOpacity)
	alphaBBox := alphaPixels(layers.BBox, s.BBoxOpacity)
	alphaFill := alphaPixels(layers.FillBBox, s.FillBBoxOpacity)

	b := layers.Mask.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var src color.RGBA
			var a uint8
			switch {
			case alphaBBox.AlphaAt(x, y).A != 0:
				src, a = layers.BBox.RGBAAt(x, y), alphaBBox.AlphaAt(x, y).A
			case alphaMask.AlphaAt(x, y).A != 0:
				src, a = layers.Mask.RGBAAt(x, y), alphaMask.AlphaAt(x, y).A
			case alphaFill.AlphaAt(x, y).A != 0:
				src, a = layers.FillBBox.RGBAAt(x, y), alphaFill.AlphaAt(x, y).A
			default:
				continue
			}
			out.SetNRGBA(x, y, color.NRGBA{R: src.R, G: src.G, B: src.B, A: a})
		}
	}
	return out
}

// Overlap 把叠加图按透明度混合到原图上，原图先缩放到叠加图尺寸
func (mp *MaskProcessor) Overlap(orig image.Image, overlay *image.NRGBA) (resized, blended *image.NRGBA) {
	b := overlay.Bounds()
	resized = imaging.Resize(orig, b.Dx(), b.Dy(), imaging.Linear)

	blended = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			base := resized.NRGBAAt(x, y)
			over := overlay.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			a := float64(over.A) / 255
			blended.SetNRGBA(x, y, color.NRGBA{
				R: mix(base.R, over.R, a),
				G: mix(base.G, over.G, a),
				B: mix(base.B, over.B, a),
				A: 255,
			})
		}
	}
	return resized, blended
}

func mix(base, over uint8, a float64) uint8 {
	v := (1-a)*float64(base) + a*float64(over)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

func opacityToAlpha(opacity float64) uint8 {
	if opacity <= 0 {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(opacity * 255)
}

func nonBlack(c color.RGBA) bool {
	return c.R != 0 || c.G != 0 || c.B != 0
}
