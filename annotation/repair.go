package annotation

import (
	"github.com/supervisely-ecosystem/render-previews-app/meta"
	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// Dropped 被丢弃的对象及原因
type Dropped struct {
	Index      int
	ClassTitle string
	Reason     error
}

// DropBrokenObjects 只保留类别存在、几何类型匹配并且几何数据可以解码的对象
func DropBrokenObjects(raw model.AnnotationJSON, m *meta.ProjectMeta) ([]model.ObjectJSON, []Dropped) {
	kept := make([]model.ObjectJSON, 0, len(raw.Objects))
	var dropped []Dropped
	for i, obj := range raw.Objects {
		if _, err := decodeObject(obj, m); err != nil {
			dropped = append(dropped, Dropped{Index: i, ClassTitle: obj.ClassTitle, Reason: err})
			continue
		}
		kept = append(kept, obj)
	}
	return kept, dropped
}
