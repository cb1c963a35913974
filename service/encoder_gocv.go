//go:build gocv
// +build gocv

package service

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// EncodePNG 通过 OpenCV 编码为 PNG，先把 RGBA 转为 OpenCV 的 BGRA 通道顺序
func EncodePNG(img *image.NRGBA) ([]byte, error) {
	rgba, err := utils.MatFromPix(img.Pix, img.Stride, img.Rect, img.Rect)
	if err != nil {
		return nil, fmt.Errorf("failed to create mat: %w", err)
	}
	defer rgba.Close()

	bgra := gocv.NewMat()
	defer bgra.Close()
	gocv.CvtColor(rgba, &bgra, gocv.ColorRGBAToBGRA)

	buf, err := gocv.IMEncode(gocv.PNGFileExt, bgra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
