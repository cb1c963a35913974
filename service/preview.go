package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

const (
	dirOriginals = "resizedorigs"
	dirRenders   = "renders"
	dirOverlaps  = "overlaps"
)

// PreviewService 为设置页生成 缩放原图 / 叠加图 / 混合图 三张预览
type PreviewService struct {
	render        *RenderService
	platform      Platform
	maskProcessor *MaskProcessor
	dataDir       string
}

func NewPreviewService(render *RenderService, platform Platform, dataDir string) *PreviewService {
	return &PreviewService{
		render:        render,
		platform:      platform,
		maskProcessor: NewMaskProcessor(),
		dataDir:       dataDir,
	}
}

// Preview 按给定参数渲染图片并写入静态目录，返回可访问的相对 URL
func (s *PreviewService) Preview(ctx context.Context, imageID int64, settings model.RenderSettings) (*model.PreviewResult, error) {
	info, err := s.platform.GetImageInfo(ctx, imageID)
	if err != nil {
		return nil, fmt.Errorf("IMAGE_ID: %d. Error: failed to get image info: %w", imageID, err)
	}
	if info.ProjectID == 0 {
		return nil, fmt.Errorf("IMAGE_ID: %d. Error: image info has no project id", imageID)
	}

	result, err := s.preview(ctx, info, settings)
	if err != nil {
		return nil, fmt.Errorf("PROJECT_ID: %d, IMAGE_ID: %d. Error: %w", info.ProjectID, imageID, err)
	}
	return result, nil
}

func (s *PreviewService) preview(ctx context.Context, info *model.ImageInfo, settings model.RenderSettings) (*model.PreviewResult, error) {
	release, err := s.render.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	ann, err := s.render.LoadAnnotation(ctx, info.ProjectID, info.ID)
	if err != nil {
		return nil, err
	}
	overlay, err := s.render.Compose(ann, settings)
	if err != nil {
		return nil, err
	}

	data, err := s.platform.DownloadImage(ctx, info.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	orig, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	resized, blended := s.maskProcessor.Overlap(orig, overlay)

	name := strconv.FormatInt(info.ID, 10) + ".png"
	outputs := []struct {
		dir string
		img image.Image
	}{
		{dirOriginals, resized},
		{dirRenders, overlay},
		{dirOverlaps, blended},
	}
	for _, o := range outputs {
		if err := s.save(o.dir, name, o.img); err != nil {
			return nil, err
		}
	}

	utils.Logger.Info("preview generated",
		append(utils.ProjectImage(info.ProjectID, info.ID),
			zap.Int("labels", len(ann.Labels)))...)

	b := overlay.Bounds()
	return &model.PreviewResult{
		ImageID:     info.ID,
		ProjectID:   info.ProjectID,
		Width:       b.Dx(),
		Height:      b.Dy(),
		OriginalURL: staticURL(dirOriginals, name),
		RenderURL:   staticURL(dirRenders, name),
		OverlapURL:  staticURL(dirOverlaps, name),
	}, nil
}

func (s *PreviewService) save(dir, name string, img image.Image) error {
	if s.dataDir == "" {
		return errors.New("data dir is not configured")
	}
	full := filepath.Join(s.dataDir, dir)
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if err := imaging.Save(img, filepath.Join(full, name)); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", dir, name, err)
	}
	return nil
}

func staticURL(dir, name string) string {
	return "static/" + dir + "/" + name
}
