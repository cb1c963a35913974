package model

import "encoding/json"

// ProjectMetaJSON 项目的类别与标签定义
type ProjectMetaJSON struct {
	Classes     []ObjClassJSON `json:"classes"`
	TagMetas    []TagMetaJSON  `json:"tags"`
	ProjectType string         `json:"projectType,omitempty"`
}

type ObjClassJSON struct {
	ID             int64           `json:"id,omitempty"`
	Title          string          `json:"title"`
	Shape          string          `json:"shape"`
	Color          string          `json:"color"`
	GeometryConfig json.RawMessage `json:"geometry_config,omitempty"`
}

type TagMetaJSON struct {
	ID             int64    `json:"id,omitempty"`
	Name           string   `json:"name"`
	ValueType      string   `json:"value_type"`
	Color          string   `json:"color"`
	PossibleValues []string `json:"values,omitempty"`
}

// ImageInfo 图片基本信息
type ImageInfo struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	DatasetID int64  `json:"datasetId"`
	ProjectID int64  `json:"projectId"`
	Mime      string `json:"mime,omitempty"`
}
