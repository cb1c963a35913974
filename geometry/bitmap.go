package geometry

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// Bitmap 以 Origin 为左上角的二值掩码
type Bitmap struct {
	Origin image.Point
	Mask   *image.Gray
}

// DecodeBitmap 解析 base64(zlib(PNG))。带透明通道的 PNG 取 alpha，否则取第一个通道。
func DecodeBitmap(raw model.BitmapJSON) (*Bitmap, error) {
	if raw.Data == "" {
		return nil, errors.New("bitmap data is empty")
	}
	if len(raw.Origin) != 2 {
		return nil, fmt.Errorf("bitmap origin has %d coordinates", len(raw.Origin))
	}

	compressed, err := base64.StdEncoding.DecodeString(raw.Data)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode png: %w", err)
	}

	return &Bitmap{
		Origin: image.Point{X: raw.Origin[0], Y: raw.Origin[1]},
		Mask:   maskFromImage(img),
	}, nil
}

func maskFromImage(img image.Image) *image.Gray {
	b := img.Bounds()
	mask := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))

	useAlpha := false
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		useAlpha = true
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var set bool
			if useAlpha {
				_, _, _, a := img.At(x, y).RGBA()
				set = a != 0
			} else {
				r, _, _, _ := img.At(x, y).RGBA()
				set = r != 0
			}
			if set {
				mask.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: 255})
			}
		}
	}
	return mask
}

func (b *Bitmap) Type() string { return TypeBitmap }

func (b *Bitmap) Bounds() image.Rectangle {
	return image.Rectangle{Min: b.Origin, Max: b.Origin.Add(b.Mask.Bounds().Size())}
}

// Scale 最近邻缩放掩码，原点同比例缩放
func (b *Bitmap) Scale(sx, sy float64) Geometry {
	size := b.Mask.Bounds().Size()
	w := max(1, round(float64(size.X)*sx))
	h := max(1, round(float64(size.Y)*sy))

	resized := imaging.Resize(b.Mask, w, h, imaging.NearestNeighbor)
	mask := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if resized.NRGBAAt(x, y).R != 0 {
				mask.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	return &Bitmap{Origin: scalePoint(b.Origin, sx, sy), Mask: mask}
}

func (b *Bitmap) Draw(dst *image.RGBA, c color.RGBA, _ int) {
	paintMask(dst, b.Mask, b.Origin, c)
}
