//go:build !gocv
// +build !gocv

package service

import (
	"image"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// Alpha 非黑色像素的透明度为 opacity*255，其余为 0
func (mp *MaskProcessor) Alpha(layer *image.RGBA, opacity float64) *image.Alpha {
	return alphaPixels(layer, opacity)
}

// Composite 按 边框 > 掩码 > 填充框 的优先级合成叠加图
func (mp *MaskProcessor) Composite(layers *Layers, s model.RenderSettings) *image.NRGBA {
	return compositePixels(layers, s)
}
