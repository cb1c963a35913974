package model

import "encoding/json"

// AnnotationJSON 平台返回的图片标注
type AnnotationJSON struct {
	Description string       `json:"description"`
	Size        ImageSize    `json:"size"`
	Tags        []TagJSON    `json:"tags"`
	Objects     []ObjectJSON `json:"objects"`
}

// ImageSize 标注记录的原图尺寸，缺失时为 0
type ImageSize struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// ObjectJSON 单个标注对象
type ObjectJSON struct {
	ID           int64               `json:"id,omitempty"`
	ClassID      int64               `json:"classId,omitempty"`
	ClassTitle   string              `json:"classTitle"`
	GeometryType string              `json:"geometryType"`
	Description  string              `json:"description,omitempty"`
	Tags         []TagJSON           `json:"tags,omitempty"`
	Points       json.RawMessage     `json:"points,omitempty"`
	Bitmap       *BitmapJSON         `json:"bitmap,omitempty"`
	Nodes        map[string]NodeJSON `json:"nodes,omitempty"`
	Faces        [][]int             `json:"faces,omitempty"`
}

// PointsJSON 点、矩形、多边形和折线的顶点坐标，每个点为 [x, y]。
// 立方体的 points 是顶点数组，由 geometry 包按类型解析。
type PointsJSON struct {
	Exterior [][]float64   `json:"exterior"`
	Interior [][][]float64 `json:"interior"`
}

// BitmapJSON base64(zlib(PNG)) 编码的掩码及其左上角坐标 [x, y]
type BitmapJSON struct {
	Data   string `json:"data"`
	Origin []int  `json:"origin"`
}

type NodeJSON struct {
	Loc      []float64 `json:"loc"`
	Disabled bool      `json:"disabled,omitempty"`
}

// TagJSON 标签，value 可以是数字、字符串或空
type TagJSON struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}
