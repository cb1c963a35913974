package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/service"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

type SettingsHandler struct {
	settings       *service.SettingsStore
	previewService *service.PreviewService
}

func NewSettingsHandler(settings *service.SettingsStore, preview *service.PreviewService) *SettingsHandler {
	return &SettingsHandler{
		settings:       settings,
		previewService: preview,
	}
}

// Get 返回当前渲染参数
func (h *SettingsHandler) Get(c *gin.Context) {
	current := h.settings.Get()
	c.JSON(http.StatusOK, model.SettingsResponse{
		Success: true,
		Message: "查询成功",
		Data:    &current,
	})
}

// Update 更新渲染参数，未出现的键保持原值
func (h *SettingsHandler) Update(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "读取请求失败", err)
		return
	}

	merged, err := h.settings.Merge(body)
	if err != nil {
		badRequest(c, "参数错误", err)
		return
	}

	utils.Logger.Info("render settings updated", zap.Any("settings", merged))
	c.JSON(http.StatusOK, model.SettingsResponse{
		Success: true,
		Message: "更新成功",
		Data:    &merged,
	})
}

// Save 保存当前参数到数据目录
func (h *SettingsHandler) Save(c *gin.Context) {
	path, err := h.settings.Save()
	if err != nil {
		utils.Logger.Error("failed to save settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "保存失败",
			Error:   err.Error(),
		})
		return
	}

	current := h.settings.Get()
	c.JSON(http.StatusOK, model.SettingsResponse{
		Success: true,
		Message: "保存成功",
		Data:    &current,
		Path:    path,
	})
}

// Preview 用请求中的参数（缺省为当前参数）生成预览图
func (h *SettingsHandler) Preview(c *gin.Context) {
	var req model.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "请求格式错误", err)
		return
	}

	settings := h.settings.Get()
	if len(req.Settings) > 0 {
		merged, err := service.MergeSettings(settings, req.Settings)
		if err != nil {
			badRequest(c, "参数错误", err)
			return
		}
		settings = merged
	}

	result, err := h.previewService.Preview(c.Request.Context(), req.ImageID, settings)
	if err != nil {
		utils.Logger.Error("failed to generate preview", zap.Int64("image_id", req.ImageID), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: "预览生成失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.PreviewResponse{
		Success: true,
		Message: "预览生成成功",
		Data:    result,
	})
}
