//go:build !gocv
// +build !gocv

package service

import (
	"bytes"
	"image"
	"image/png"
)

// EncodePNG 编码为 PNG，保留透明通道
func EncodePNG(img *image.NRGBA) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
