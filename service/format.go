package service

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat 不支持的输出格式
var ErrUnsupportedFormat = errors.New("unsupported output format")

const (
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Encode 按格式编码叠加图，返回内容和 Content-Type
func Encode(img *image.NRGBA, format string) ([]byte, string, error) {
	switch strings.ToLower(format) {
	case "", FormatPNG:
		data, err := EncodePNG(img)
		return data, "image/png", err
	case FormatWebP:
		var buf bytes.Buffer
		if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
			return nil, "", fmt.Errorf("failed to encode webp: %w", err)
		}
		return buf.Bytes(), "image/webp", nil
	default:
		return nil, "", fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// DecodeImage 解码平台返回的原图，imaging 不支持的格式再尝试 WebP
func DecodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}
	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, nil
	}
	return nil, fmt.Errorf("failed to decode image: %w", err)
}
