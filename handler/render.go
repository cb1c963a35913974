package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/service"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

const renderCacheControl = "max-age=604800"

type RenderHandler struct {
	renderService *service.RenderService
	settings      *service.SettingsStore
}

func NewRenderHandler(render *service.RenderService, settings *service.SettingsStore) *RenderHandler {
	return &RenderHandler{
		renderService: render,
		settings:      settings,
	}
}

// Render 返回图片标注的透明叠加图
func (h *RenderHandler) Render(c *gin.Context) {
	projectID, err := queryID(c, "project_id")
	if err != nil {
		badRequest(c, "project_id 参数错误", err)
		return
	}
	imageID, err := queryID(c, "image_id")
	if err != nil {
		badRequest(c, "image_id 参数错误", err)
		return
	}
	format := c.DefaultQuery("format", service.FormatPNG)
	if format != service.FormatPNG && format != service.FormatWebP {
		badRequest(c, "不支持的输出格式，仅支持 png/webp", fmt.Errorf("%w %q", service.ErrUnsupportedFormat, format))
		return
	}

	overlay, err := h.renderService.RenderOverlay(c.Request.Context(), projectID, imageID, h.settings.Get())
	if err != nil {
		utils.Logger.Error("failed to render overlay",
			append(utils.ProjectImage(projectID, imageID), zap.Error(err))...)
		status := http.StatusInternalServerError
		if errors.Is(err, service.ErrQueueFull) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, model.ErrorResponse{
			Success: false,
			Message: "渲染失败",
			Error:   err.Error(),
		})
		return
	}

	data, contentType, err := service.Encode(overlay.Image, format)
	if err != nil {
		utils.Logger.Error("failed to encode overlay",
			append(utils.ProjectImage(projectID, imageID), zap.Error(err))...)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "编码失败",
			Error:   fmt.Sprintf("PROJECT_ID: %d, IMAGE_ID: %d. Error: %v", projectID, imageID, err),
		})
		return
	}

	c.Header("Cache-Control", renderCacheControl)
	c.Header("ETag", utils.ETag(data))
	c.Data(http.StatusOK, contentType, data)
}

// Refresh 重新拉取项目元数据，未指定 project_id 时刷新全部已缓存项目
func (h *RenderHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	if raw := c.Query("project_id"); raw != "" {
		projectID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || projectID <= 0 {
			c.String(http.StatusBadRequest, "Error: invalid project_id %q", raw)
			return
		}
		if _, err := h.renderService.RefreshMeta(ctx, projectID); err != nil {
			utils.Logger.Error("failed to refresh project meta", zap.Int64("project_id", projectID), zap.Error(err))
			c.String(http.StatusOK, "Error: %v", err)
			return
		}
		c.String(http.StatusOK, "Projects successfully refreshed")
		return
	}

	refreshed, err := h.renderService.RefreshAll(ctx)
	if err != nil {
		utils.Logger.Error("failed to refresh project metas", zap.Int("refreshed", refreshed), zap.Error(err))
		c.String(http.StatusOK, "Error: %v", err)
		return
	}
	utils.Logger.Info("project metas refreshed", zap.Int("projects", refreshed))
	c.String(http.StatusOK, "Projects successfully refreshed")
}

func queryID(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return id, nil
}

func badRequest(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Success: false,
		Message: message,
		Error:   err.Error(),
	})
}
