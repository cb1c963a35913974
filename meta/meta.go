package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// ErrInvalidColor 颜色不是 #RRGGBB 格式
var ErrInvalidColor = errors.New("invalid hex color")

// ShapeAny 允许任意几何类型的类别
const ShapeAny = "any"

// ObjClass 标注类别
type ObjClass struct {
	ID             int64
	Title          string
	Shape          string
	Color          color.RGBA
	GeometryConfig json.RawMessage
}

// ProjectMeta 项目元数据
type ProjectMeta struct {
	classes []*ObjClass
	byTitle map[string]*ObjClass
	byID    map[int64]*ObjClass
}

// FromJSON 解析项目元数据
func FromJSON(raw model.ProjectMetaJSON) (*ProjectMeta, error) {
	m := &ProjectMeta{
		byTitle: make(map[string]*ObjClass, len(raw.Classes)),
		byID:    make(map[int64]*ObjClass, len(raw.Classes)),
	}

	for _, c := range raw.Classes {
		col, err := ParseHexColor(c.Color)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", c.Title, err)
		}
		if _, dup := m.byTitle[c.Title]; dup {
			return nil, fmt.Errorf("duplicate class title %q", c.Title)
		}
		oc := &ObjClass{
			ID:             c.ID,
			Title:          c.Title,
			Shape:          c.Shape,
			Color:          col,
			GeometryConfig: c.GeometryConfig,
		}
		m.classes = append(m.classes, oc)
		m.byTitle[c.Title] = oc
		if c.ID != 0 {
			m.byID[c.ID] = oc
		}
	}

	// 标签不参与绘制，只校验颜色，非法颜色同样触发修复
	for _, t := range raw.TagMetas {
		if _, err := ParseHexColor(t.Color); err != nil {
			return nil, fmt.Errorf("tag %q: %w", t.Name, err)
		}
	}

	return m, nil
}

// ObjClass 按名称查找类别
func (m *ProjectMeta) ObjClass(title string) (*ObjClass, bool) {
	c, ok := m.byTitle[title]
	return c, ok
}

func (m *ProjectMeta) ObjClassByID(id int64) (*ObjClass, bool) {
	c, ok := m.byID[id]
	return c, ok
}

func (m *ProjectMeta) Classes() []*ObjClass {
	return m.classes
}

// ParseHexColor 解析 #RRGGBB
func ParseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// HexColor 转换为 #RRGGBB
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// RepairColors 将非法颜色替换为由名称决定的固定颜色，返回替换数量
func RepairColors(raw model.ProjectMetaJSON) (model.ProjectMetaJSON, int) {
	fixed := raw
	fixed.Classes = append([]model.ObjClassJSON(nil), raw.Classes...)
	fixed.TagMetas = append([]model.TagMetaJSON(nil), raw.TagMetas...)

	repaired := 0
	for i, c := range fixed.Classes {
		if _, err := ParseHexColor(c.Color); err != nil {
			fixed.Classes[i].Color = HexColor(ColorFor(c.Title))
			repaired++
		}
	}
	for i, t := range fixed.TagMetas {
		if _, err := ParseHexColor(t.Color); err != nil {
			fixed.TagMetas[i].Color = HexColor(ColorFor(t.Name))
			repaired++
		}
	}
	return fixed, repaired
}

// ColorFor 根据名称生成稳定的非黑色颜色
func ColorFor(name string) color.RGBA {
	sum := utils.BytesMD5([]byte(strings.TrimSpace(name)))
	v, _ := strconv.ParseUint(sum[:6], 16, 32)
	c := color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
	// 黑色像素在合成时视为空白
	if c.R < 32 && c.G < 32 && c.B < 32 {
		c.R |= 0x80
	}
	return c
}
