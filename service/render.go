package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/annotation"
	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/geometry"
	"github.com/supervisely-ecosystem/render-previews-app/meta"
	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// ErrQueueFull 等待渲染名额超时
var ErrQueueFull = errors.New("render queue is full, please retry later")

// Overlay 渲染结果
type Overlay struct {
	Image *image.NRGBA
	// SourceHeight/SourceWidth 为标注记录的原图尺寸
	SourceHeight int
	SourceWidth  int
}

// RenderService 负责取数、修复异常数据并渲染叠加图
type RenderService struct {
	platform      Platform
	metas         MetaCache
	renderer      *LayerRenderer
	maskProcessor *MaskProcessor
	semaphore     chan struct{}
	queueTimeout  time.Duration
}

func NewRenderService(cfg *config.RenderConfig, platform Platform, metas MetaCache) *RenderService {
	return &RenderService{
		platform:      platform,
		metas:         metas,
		renderer:      NewLayerRenderer(),
		maskProcessor: NewMaskProcessor(),
		semaphore:     make(chan struct{}, max(cfg.MaxConcurrent, 1)),
		queueTimeout:  time.Duration(cfg.QueueTimeout) * time.Second,
	}
}

// acquire 获取渲染名额，返回释放函数
func (s *RenderService) acquire(ctx context.Context) (func(), error) {
	if s.queueTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queueTimeout)
		defer cancel()
	}

	select {
	case s.semaphore <- struct{}{}:
		return func() { <-s.semaphore }, nil
	case <-ctx.Done():
		return nil, ErrQueueFull
	}
}

// RenderOverlay 渲染图片标注的透明叠加图，错误信息带上项目和图片ID
func (s *RenderService) RenderOverlay(ctx context.Context, projectID, imageID int64, settings model.RenderSettings) (*Overlay, error) {
	overlay, err := s.renderOverlay(ctx, projectID, imageID, settings)
	if err != nil {
		return nil, fmt.Errorf("PROJECT_ID: %d, IMAGE_ID: %d. Error: %w", projectID, imageID, err)
	}
	return overlay, nil
}

func (s *RenderService) renderOverlay(ctx context.Context, projectID, imageID int64, settings model.RenderSettings) (*Overlay, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	startTime := time.Now()

	ann, err := s.LoadAnnotation(ctx, projectID, imageID)
	if err != nil {
		return nil, err
	}

	img, err := s.Compose(ann, settings)
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("overlay rendered",
		append(utils.ProjectImage(projectID, imageID),
			zap.Int("labels", len(ann.Labels)),
			zap.Int("width", img.Bounds().Dx()),
			zap.Int("height", img.Bounds().Dy()),
			zap.Duration("cost", time.Since(startTime)))...)

	return &Overlay{Image: img, SourceHeight: ann.Height, SourceWidth: ann.Width}, nil
}

// Compose 缩放标注到输出宽度，分层绘制并合成
func (s *RenderService) Compose(ann *annotation.Annotation, settings model.RenderSettings) (*image.NRGBA, error) {
	if ann.Height <= 0 || ann.Width <= 0 {
		return nil, annotation.ErrMissingImageSize
	}
	h, w := OutputSize(ann.Height, ann.Width, settings.OutputWidthPx)
	resized, err := ann.Resize(h, w)
	if err != nil {
		return nil, err
	}
	layers := s.renderer.Render(resized, settings)
	return s.maskProcessor.Composite(layers, settings), nil
}

// LoadAnnotation 下载并解析标注。
// 类别元数据过期时重新拉取一次元数据；仍然失败或几何数据损坏时丢弃无法解析的对象后再解析一次。
func (s *RenderService) LoadAnnotation(ctx context.Context, projectID, imageID int64) (*annotation.Annotation, error) {
	m, err := s.ProjectMeta(ctx, projectID)
	if err != nil {
		return nil, err
	}

	raw, err := s.platform.DownloadAnnotation(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("failed to download annotation: %w", err)
	}

	ann, err := annotation.FromJSON(raw, m)
	if errors.Is(err, annotation.ErrStaleMeta) {
		utils.Logger.Warn("annotation references stale project meta, refreshing",
			append(utils.ProjectImage(projectID, imageID), zap.Error(err))...)
		if m, err = s.RefreshMeta(ctx, projectID); err != nil {
			return nil, err
		}
		ann, err = annotation.FromJSON(raw, m)
	}
	if errors.Is(err, annotation.ErrStaleMeta) || errors.Is(err, geometry.ErrMalformed) || errors.Is(err, geometry.ErrUnsupported) {
		kept, dropped := annotation.DropBrokenObjects(raw, m)
		for _, d := range dropped {
			utils.Logger.Warn("drop broken object",
				append(utils.ProjectImage(projectID, imageID),
					zap.Int("index", d.Index),
					zap.String("class", d.ClassTitle),
					zap.Error(d.Reason))...)
		}
		raw.Objects = kept
		ann, err = annotation.FromJSON(raw, m)
	}
	if err != nil {
		return nil, err
	}
	return ann, nil
}

// ProjectMeta 优先读缓存，未命中时从平台拉取
func (s *RenderService) ProjectMeta(ctx context.Context, projectID int64) (*meta.ProjectMeta, error) {
	cached, err := s.metas.Get(ctx, projectID)
	if err != nil {
		utils.Logger.Warn("failed to get cache", zap.Int64("project_id", projectID), zap.Error(err))
	}
	if cached != nil {
		m, fixed, repaired, err := parseMeta(projectID, *cached)
		if err == nil {
			if repaired {
				s.storeMeta(ctx, projectID, fixed)
			}
			return m, nil
		}
		utils.Logger.Warn("cached meta is unusable, refetching", zap.Int64("project_id", projectID), zap.Error(err))
	}
	return s.RefreshMeta(ctx, projectID)
}

// RefreshMeta 从平台重新拉取元数据并覆盖缓存
func (s *RenderService) RefreshMeta(ctx context.Context, projectID int64) (*meta.ProjectMeta, error) {
	raw, err := s.platform.GetProjectMeta(ctx, projectID)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			// 项目已被删除，不再保留缓存
			if derr := s.metas.Delete(ctx, projectID); derr != nil {
				utils.Logger.Warn("failed to delete cache", zap.Int64("project_id", projectID), zap.Error(derr))
			} else {
				utils.Logger.Info("project not found, meta removed from cache", zap.Int64("project_id", projectID))
			}
		}
		return nil, fmt.Errorf("failed to get project meta: %w", err)
	}
	m, fixed, _, err := parseMeta(projectID, raw)
	if err != nil {
		return nil, err
	}
	s.storeMeta(ctx, projectID, fixed)
	utils.Logger.Debug("project meta refreshed",
		zap.Int64("project_id", projectID), zap.Int("classes", len(m.Classes())))
	return m, nil
}

// RefreshAll 刷新所有已缓存项目的元数据，返回成功数量
func (s *RenderService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.metas.ProjectIDs(ctx)
	if err != nil {
		return 0, err
	}

	var errs []error
	refreshed := 0
	for _, id := range ids {
		if _, err := s.RefreshMeta(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("project %d: %w", id, err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

func (s *RenderService) storeMeta(ctx context.Context, projectID int64, raw model.ProjectMetaJSON) {
	if err := s.metas.Set(ctx, projectID, raw); err != nil {
		utils.Logger.Warn("failed to set cache", zap.Int64("project_id", projectID), zap.Error(err))
	}
}

// parseMeta 解析元数据，颜色非法时修复一次。返回修复后的 JSON 以及是否做过修复。
func parseMeta(projectID int64, raw model.ProjectMetaJSON) (*meta.ProjectMeta, model.ProjectMetaJSON, bool, error) {
	m, err := meta.FromJSON(raw)
	repaired := false
	if errors.Is(err, meta.ErrInvalidColor) {
		var n int
		raw, n = meta.RepairColors(raw)
		utils.Logger.Warn("repaired invalid colors in project meta",
			zap.Int64("project_id", projectID), zap.Int("repaired", n), zap.Error(err))
		m, err = meta.FromJSON(raw)
		repaired = true
	}
	if err != nil {
		return nil, raw, repaired, fmt.Errorf("failed to parse project meta: %w", err)
	}
	return m, raw, repaired, nil
}
