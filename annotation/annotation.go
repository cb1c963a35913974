package annotation

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/supervisely-ecosystem/render-previews-app/geometry"
	"github.com/supervisely-ecosystem/render-previews-app/meta"
	"github.com/supervisely-ecosystem/render-previews-app/model"
)

var (
	// ErrStaleMeta 标注引用了元数据中不存在或已变更的类别
	ErrStaleMeta        = errors.New("stale project meta")
	ErrUnknownClass     = fmt.Errorf("%w: unknown class", ErrStaleMeta)
	ErrShapeMismatch    = fmt.Errorf("%w: geometry does not match class shape", ErrStaleMeta)
	ErrMissingImageSize = errors.New("the image file has no information about its size")
	ErrInvalidSize      = errors.New("invalid output size")
)

// Tag 图片或对象上的标签
type Tag struct {
	Name  string
	Value string
}

// Label 一个类别 + 几何对象
type Label struct {
	Class    *meta.ObjClass
	Geometry geometry.Geometry
	Tags     []Tag
}

// Annotation 已解析的图片标注
type Annotation struct {
	Height      int
	Width       int
	Description string
	Labels      []Label
	Tags        []Tag
}

// FromJSON 按项目元数据解析标注
func FromJSON(raw model.AnnotationJSON, m *meta.ProjectMeta) (*Annotation, error) {
	ann := &Annotation{
		Height:      raw.Size.Height,
		Width:       raw.Size.Width,
		Description: raw.Description,
		Tags:        decodeTags(raw.Tags),
	}

	for i, obj := range raw.Objects {
		label, err := decodeObject(obj, m)
		if err != nil {
			return nil, fmt.Errorf("object #%d: %w", i, err)
		}
		ann.Labels = append(ann.Labels, label)
	}

	if ann.Height <= 0 || ann.Width <= 0 {
		return ann, ErrMissingImageSize
	}
	return ann, nil
}

func decodeObject(obj model.ObjectJSON, m *meta.ProjectMeta) (Label, error) {
	class, ok := m.ObjClass(obj.ClassTitle)
	if !ok && obj.ClassID != 0 {
		class, ok = m.ObjClassByID(obj.ClassID)
	}
	if !ok {
		return Label{}, fmt.Errorf("%w %q", ErrUnknownClass, obj.ClassTitle)
	}
	if class.Shape != meta.ShapeAny && class.Shape != obj.GeometryType {
		return Label{}, fmt.Errorf("%w: class %q is %s, object is %s",
			ErrShapeMismatch, class.Title, class.Shape, obj.GeometryType)
	}

	g, err := geometry.Decode(obj, class.GeometryConfig)
	if err != nil {
		return Label{}, err
	}
	return Label{Class: class, Geometry: g, Tags: decodeTags(obj.Tags)}, nil
}

func decodeTags(raw []model.TagJSON) []Tag {
	if len(raw) == 0 {
		return nil
	}
	tags := make([]Tag, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, Tag{Name: t.Name, Value: tagValue(t)})
	}
	return tags
}

func tagValue(t model.TagJSON) string {
	if len(t.Value) == 0 || string(t.Value) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(t.Value, &s); err == nil {
		return s
	}
	return string(t.Value)
}

// Resize 把标注缩放到 height×width，返回新的标注
func (a *Annotation) Resize(height, width int) (*Annotation, error) {
	if height <= 0 || width <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if a.Height <= 0 || a.Width <= 0 {
		return nil, ErrMissingImageSize
	}

	sx := float64(width) / float64(a.Width)
	sy := float64(height) / float64(a.Height)

	out := &Annotation{
		Height:      height,
		Width:       width,
		Description: a.Description,
		Tags:        a.Tags,
		Labels:      make([]Label, 0, len(a.Labels)),
	}
	for _, l := range a.Labels {
		out.Labels = append(out.Labels, Label{
			Class:    l.Class,
			Geometry: l.Geometry.Scale(sx, sy),
			Tags:     l.Tags,
		})
	}
	return out, nil
}
