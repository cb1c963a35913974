package model

import "encoding/json"

// RenderSettings 渲染参数，JSON 键与设置编辑器中的一致
type RenderSettings struct {
	BBoxThicknessPercent float64 `json:"BBOX_THICKNESS_PERCENT"`
	BBoxOpacity          float64 `json:"BBOX_OPACITY"`
	FillBBoxOpacity      float64 `json:"FILLBBOX_OPACITY"`
	MaskOpacity          float64 `json:"MASK_OPACITY"`
	OutputWidthPx        int     `json:"OUTPUT_WIDTH_PX"`
	PointRadius          int     `json:"POINT_RADIUS"`
}

// DefaultRenderSettings 默认渲染参数
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		BBoxThicknessPercent: 0.5,
		BBoxOpacity:          1,
		FillBBoxOpacity:      0.2,
		MaskOpacity:          0.7,
		OutputWidthPx:        500,
		PointRadius:          25,
	}
}

// PreviewRequest 预览请求
type PreviewRequest struct {
	ImageID int64 `json:"image_id" binding:"required"`
	// Settings 覆盖当前参数中的部分键
	Settings json.RawMessage `json:"settings,omitempty"`
}

// PreviewResult 预览生成的三张图片
type PreviewResult struct {
	ImageID     int64  `json:"image_id"`
	ProjectID   int64  `json:"project_id"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	OriginalURL string `json:"original_url"`
	RenderURL   string `json:"render_url"`
	OverlapURL  string `json:"overlap_url"`
}

// PreviewResponse 预览响应
type PreviewResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    *PreviewResult `json:"data,omitempty"`
}

// SettingsResponse 设置响应
type SettingsResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    *RenderSettings `json:"data,omitempty"`
	Path    string          `json:"path,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
