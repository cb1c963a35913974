//go:build gocv
// +build gocv

package service

import (
	"image"

	"go.uber.org/zap"
	"gocv.io/x/gocv"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// Alpha 非黑色像素的透明度为 opacity*255，其余为 0
func (mp *MaskProcessor) Alpha(layer *image.RGBA, opacity float64) *image.Alpha {
	m, err := layerMat(layer)
	if err != nil {
		return alphaPixels(layer, opacity)
	}
	defer m.Close()

	am := alphaMat(m, opacity)
	defer am.Close()

	alpha := image.NewAlpha(layer.Bounds())
	copy(alpha.Pix, am.ToBytes())
	return alpha
}

// Composite 按 边框 > 掩码 > 填充框 的优先级合成叠加图：
// 优先级低的图层先写入，优先级高的图层按自己的 alpha 掩码覆盖
func (mp *MaskProcessor) Composite(layers *Layers, s model.RenderSettings) *image.NRGBA {
	b := layers.Mask.Bounds()
	if b.Empty() {
		return image.NewNRGBA(b)
	}

	result := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), b.Dy(), b.Dx(), gocv.MatTypeCV8UC4)
	defer result.Close()

	ordered := []struct {
		layer   *image.RGBA
		opacity float64
	}{
		{layers.FillBBox, s.FillBBoxOpacity},
		{layers.Mask, s.MaskOpacity},
		{layers.BBox, s.BBoxOpacity},
	}
	for _, l := range ordered {
		if err := paintLayer(&result, l.layer, l.opacity); err != nil {
			utils.Logger.Warn("opencv composite failed, using pixel loop", zap.Error(err))
			return compositePixels(layers, s)
		}
	}

	out := image.NewNRGBA(b)
	copy(out.Pix, result.ToBytes())
	return out
}

func layerMat(layer *image.RGBA) (gocv.Mat, error) {
	return utils.MatFromPix(layer.Pix, layer.Stride, layer.Rect, layer.Rect)
}

// alphaMat 返回单通道 Mat，非黑色像素处为 opacity*255
func alphaMat(layer gocv.Mat, opacity float64) gocv.Mat {
	rows, cols := layer.Rows(), layer.Cols()
	out := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	a := opacityToAlpha(opacity)
	if a == 0 {
		return out
	}

	black := gocv.NewMat()
	defer black.Close()
	gocv.InRangeWithScalar(layer, gocv.NewScalar(0, 0, 0, 0), gocv.NewScalar(0, 0, 0, 255), &black)

	painted := gocv.NewMat()
	defer painted.Close()
	gocv.BitwiseNot(black, &painted)

	full := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(float64(a), 0, 0, 0), rows, cols, gocv.MatTypeCV8UC1)
	defer full.Close()
	full.CopyToWithMask(&out, painted)
	return out
}

// paintLayer 把图层的 RGB 和它的 alpha 合并后，按 alpha 掩码写入 result
func paintLayer(result *gocv.Mat, layer *image.RGBA, opacity float64) error {
	m, err := layerMat(layer)
	if err != nil {
		return err
	}
	defer m.Close()

	alpha := alphaMat(m, opacity)
	defer alpha.Close()

	channels := gocv.Split(m)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.Merge([]gocv.Mat{channels[0], channels[1], channels[2], alpha}, &colored)
	colored.CopyToWithMask(result, alpha)
	return nil
}
