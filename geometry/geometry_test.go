package geometry

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supervisely-ecosystem/render-previews-app/model"
)

var red = color.RGBA{R: 255, A: 255}

func object(t *testing.T, src string) model.ObjectJSON {
	t.Helper()
	var obj model.ObjectJSON
	require.NoError(t, json.Unmarshal([]byte(src), &obj))
	return obj
}

// encodeBitmap 按平台格式 base64(zlib(PNG)) 编码掩码
func encodeBitmap(t *testing.T, b *Bitmap) model.BitmapJSON {
	t.Helper()
	var pngBuf bytes.Buffer
	require.NoError(t, png.Encode(&pngBuf, b.Mask))

	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	_, err := zw.Write(pngBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return model.BitmapJSON{
		Data:   base64.StdEncoding.EncodeToString(zbuf.Bytes()),
		Origin: []int{b.Origin.X, b.Origin.Y},
	}
}

func isSet(img *image.RGBA, x, y int) bool {
	c := img.RGBAAt(x, y)
	return c.R != 0 || c.G != 0 || c.B != 0
}

func countSet(img *image.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if isSet(img, x, y) {
				n++
			}
		}
	}
	return n
}

func TestDecode_PointCounts(t *testing.T) {
	cases := []struct {
		name string
		src  string
		ok   bool
	}{
		{"point", `{"geometryType":"point","points":{"exterior":[[5,5]],"interior":[]}}`, true},
		{"point with two", `{"geometryType":"point","points":{"exterior":[[5,5],[6,6]],"interior":[]}}`, false},
		{"rectangle", `{"geometryType":"rectangle","points":{"exterior":[[1,2],[8,9]],"interior":[]}}`, true},
		{"truncated rectangle", `{"geometryType":"rectangle","points":{"exterior":[[1,2]],"interior":[]}}`, false},
		{"polygon", `{"geometryType":"polygon","points":{"exterior":[[0,0],[9,0],[9,9]],"interior":[]}}`, true},
		{"truncated polygon", `{"geometryType":"polygon","points":{"exterior":[[0,0],[9,0]],"interior":[]}}`, false},
		{"truncated hole", `{"geometryType":"polygon","points":{"exterior":[[0,0],[9,0],[9,9]],"interior":[[[1,1],[2,2]]]}}`, false},
		{"line", `{"geometryType":"line","points":{"exterior":[[0,0],[9,9]],"interior":[]}}`, true},
		{"single point line", `{"geometryType":"line","points":{"exterior":[[0,0]],"interior":[]}}`, false},
		{"bad coordinate", `{"geometryType":"polygon","points":{"exterior":[[0,0],[9],[9,9]],"interior":[]}}`, false},
		{"missing points", `{"geometryType":"polygon"}`, false},
		{"missing bitmap", `{"geometryType":"bitmap"}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Decode(object(t, tc.src), nil)
			if tc.ok {
				require.NoError(t, err)
				require.NotNil(t, g)
				return
			}
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode(object(t, `{"geometryType":"pointcloud"}`), nil)
	require.ErrorIs(t, err, ErrUnsupported)
	require.NotErrorIs(t, err, ErrMalformed)
}

func TestRectangle_DrawAndContour(t *testing.T) {
	g, err := Decode(object(t, `{"geometryType":"rectangle","points":{"exterior":[[12,14],[2,4]],"interior":[]}}`), nil)
	require.NoError(t, err)
	rect := g.(*Rectangle)
	require.Equal(t, image.Pt(2, 4), rect.Min)
	require.Equal(t, image.Pt(12, 14), rect.Max)

	fill := image.NewRGBA(image.Rect(0, 0, 20, 20))
	rect.Draw(fill, red, 0)
	assert.Equal(t, 11*11, countSet(fill))
	assert.True(t, isSet(fill, 7, 9))

	contour := image.NewRGBA(image.Rect(0, 0, 20, 20))
	rect.DrawContour(contour, red, 1)
	assert.True(t, isSet(contour, 2, 4))
	assert.True(t, isSet(contour, 12, 9))
	assert.False(t, isSet(contour, 7, 9))
	assert.Equal(t, 11*11-9*9, countSet(contour))

	thick := image.NewRGBA(image.Rect(0, 0, 20, 20))
	rect.DrawContour(thick, red, 3)
	assert.True(t, isSet(thick, 1, 9))
	assert.True(t, isSet(thick, 3, 9))
	assert.False(t, isSet(thick, 4, 9))
	assert.False(t, isSet(thick, 0, 9))
}

func TestRectangle_ContourClipped(t *testing.T) {
	rect := NewRectangle(image.Pt(-5, -5), image.Pt(30, 30))
	dst := image.NewRGBA(image.Rect(0, 0, 10, 10))
	rect.DrawContour(dst, red, 2)
	assert.Equal(t, 0, countSet(dst))
}

func TestPoint_DrawDisc(t *testing.T) {
	p := &Point{Location: image.Pt(10, 10)}
	dst := image.NewRGBA(image.Rect(0, 0, 21, 21))
	p.Draw(dst, red, 3)
	assert.True(t, isSet(dst, 10, 10))
	assert.True(t, isSet(dst, 13, 10))
	assert.False(t, isSet(dst, 14, 10))
	assert.False(t, isSet(dst, 13, 13))
}

func TestPolygon_HoleStaysEmpty(t *testing.T) {
	g, err := Decode(object(t, `{"geometryType":"polygon","points":{
		"exterior":[[0,0],[19,0],[19,19],[0,19]],
		"interior":[[[5,5],[14,5],[14,14],[5,14]]]}}`), nil)
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	g.Draw(dst, red, 0)
	assert.True(t, isSet(dst, 0, 0))
	assert.True(t, isSet(dst, 2, 10))
	assert.True(t, isSet(dst, 19, 19))
	assert.False(t, isSet(dst, 10, 10))
}

func TestPolyline_Draw(t *testing.T) {
	l := &Polyline{Points: []image.Point{{X: 0, Y: 5}, {X: 19, Y: 5}, {X: 19, Y: 15}}}
	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	l.Draw(dst, red, 1)
	for x := 0; x < 20; x++ {
		assert.True(t, isSet(dst, x, 5), "x=%d", x)
	}
	assert.True(t, isSet(dst, 19, 15))
	assert.False(t, isSet(dst, 10, 10))

	thick := image.NewRGBA(image.Rect(0, 0, 20, 20))
	l.Draw(thick, red, 5)
	assert.True(t, isSet(thick, 10, 7))
	assert.False(t, isSet(thick, 10, 10))
}

func TestScale(t *testing.T) {
	rect := NewRectangle(image.Pt(10, 20), image.Pt(30, 40))
	scaled := rect.Scale(0.5, 0.25).(*Rectangle)
	assert.Equal(t, image.Pt(5, 5), scaled.Min)
	assert.Equal(t, image.Pt(15, 10), scaled.Max)

	poly := &Polygon{
		Exterior: []image.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		Interior: [][]image.Point{{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}}},
	}
	sp := poly.Scale(2, 2).(*Polygon)
	assert.Equal(t, image.Pt(20, 20), sp.Exterior[2])
	assert.Equal(t, image.Pt(8, 8), sp.Interior[0][2])
	assert.Equal(t, image.Pt(10, 10), poly.Exterior[2], "scale must not mutate the source")
}

func TestBitmap_RoundTrip(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 4, 3))
	mask.SetGray(0, 0, color.Gray{Y: 255})
	mask.SetGray(3, 2, color.Gray{Y: 1})

	raw := encodeBitmap(t, &Bitmap{Origin: image.Pt(10, 20), Mask: mask})

	obj := model.ObjectJSON{GeometryType: TypeBitmap, Bitmap: &raw}
	g, err := Decode(obj, nil)
	require.NoError(t, err)
	bm := g.(*Bitmap)
	assert.Equal(t, image.Pt(10, 20), bm.Origin)
	assert.Equal(t, image.Rect(10, 20, 14, 23), bm.Bounds())

	dst := image.NewRGBA(image.Rect(0, 0, 30, 30))
	bm.Draw(dst, red, 0)
	assert.Equal(t, 2, countSet(dst))
	assert.True(t, isSet(dst, 10, 20))
	assert.True(t, isSet(dst, 13, 22))
}

func TestBitmap_Scale(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 2, 2))
	mask.SetGray(0, 0, color.Gray{Y: 255})
	bm := &Bitmap{Origin: image.Pt(4, 4), Mask: mask}

	scaled := bm.Scale(2, 2).(*Bitmap)
	assert.Equal(t, image.Pt(8, 8), scaled.Origin)
	assert.Equal(t, image.Pt(4, 4), scaled.Mask.Bounds().Size())

	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	scaled.Draw(dst, red, 0)
	assert.Equal(t, 4, countSet(dst))
	assert.True(t, isSet(dst, 9, 9))
	assert.False(t, isSet(dst, 10, 10))
}

func TestBitmap_Garbage(t *testing.T) {
	obj := model.ObjectJSON{
		GeometryType: TypeBitmap,
		Bitmap:       &model.BitmapJSON{Data: "bm90IHpsaWI=", Origin: []int{0, 0}},
	}
	_, err := Decode(obj, nil)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestCuboid(t *testing.T) {
	g, err := Decode(object(t, `{"geometryType":"cuboid",
		"points":[[0,0],[9,0],[9,9],[0,9]],
		"faces":[[0,1,2,3]]}`), nil)
	require.NoError(t, err)
	dst := image.NewRGBA(image.Rect(0, 0, 12, 12))
	g.Draw(dst, red, 0)
	assert.True(t, isSet(dst, 5, 5))
	assert.False(t, isSet(dst, 11, 11))

	_, err = Decode(object(t, `{"geometryType":"cuboid","points":[[0,0],[9,0]],"faces":[[0,1,2,3]]}`), nil)
	require.ErrorIs(t, err, ErrMalformed)
}

func TestGraph(t *testing.T) {
	cfg := json.RawMessage(`{"nodes":{},"edges":[{"src":"a","dst":"b"},{"src":"a","dst":"gone"}]}`)
	g, err := Decode(object(t, `{"geometryType":"graph","nodes":{
		"a":{"loc":[2,10]},
		"b":{"loc":[17,10]},
		"c":{"loc":[5,5],"disabled":true}}}`), cfg)
	require.NoError(t, err)

	graph := g.(*Graph)
	require.Len(t, graph.Nodes, 2)
	require.Len(t, graph.Edges, 2)

	dst := image.NewRGBA(image.Rect(0, 0, 20, 20))
	graph.Draw(dst, red, 1)
	assert.True(t, isSet(dst, 10, 10))
	assert.False(t, isSet(dst, 5, 5))

	_, err = Decode(object(t, `{"geometryType":"graph","nodes":{}}`), cfg)
	require.ErrorIs(t, err, ErrMalformed)
}
