package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/model"
)

// fakePlatform 内存中的平台实现
type fakePlatform struct {
	mu          sync.Mutex
	metas       map[int64]model.ProjectMetaJSON
	annotations map[int64]model.AnnotationJSON
	infos       map[int64]*model.ImageInfo
	images      map[int64][]byte
	metaCalls   map[int64]int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		metas:       make(map[int64]model.ProjectMetaJSON),
		annotations: make(map[int64]model.AnnotationJSON),
		infos:       make(map[int64]*model.ImageInfo),
		images:      make(map[int64][]byte),
		metaCalls:   make(map[int64]int),
	}
}

func (p *fakePlatform) GetProjectMeta(_ context.Context, projectID int64) (model.ProjectMetaJSON, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metaCalls[projectID]++
	m, ok := p.metas[projectID]
	if !ok {
		return model.ProjectMetaJSON{}, &APIError{Method: "projects.meta", Status: 404, Body: "project not found"}
	}
	return m, nil
}

func (p *fakePlatform) DownloadAnnotation(_ context.Context, imageID int64) (model.AnnotationJSON, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.annotations[imageID]
	if !ok {
		return model.AnnotationJSON{}, fmt.Errorf("annotation for image %d not found", imageID)
	}
	return a, nil
}

func (p *fakePlatform) GetImageInfo(_ context.Context, imageID int64) (*model.ImageInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info, ok := p.infos[imageID]
	if !ok {
		return nil, fmt.Errorf("image %d not found", imageID)
	}
	return info, nil
}

func (p *fakePlatform) DownloadImage(_ context.Context, imageID int64) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.images[imageID]
	if !ok {
		return nil, fmt.Errorf("image %d not found", imageID)
	}
	return data, nil
}

func (p *fakePlatform) calls(projectID int64) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metaCalls[projectID]
}

// failingPlatform 获取元数据时总是返回 err
type failingPlatform struct {
	*fakePlatform
	err error
}

func (p *failingPlatform) GetProjectMeta(context.Context, int64) (model.ProjectMetaJSON, error) {
	return model.ProjectMetaJSON{}, p.err
}

const (
	testProjectID = 7
	testImageID   = 42
)

func carMeta() model.ProjectMetaJSON {
	return model.ProjectMetaJSON{
		Classes: []model.ObjClassJSON{
			{ID: 1, Title: "car", Shape: "rectangle", Color: "#FF0000"},
			{ID: 2, Title: "person", Shape: "point", Color: "#00FF00"},
		},
	}
}

// carAnnotation 100x200 的图片上一个矩形和一个点
func carAnnotation(t *testing.T) model.AnnotationJSON {
	t.Helper()
	var raw model.AnnotationJSON
	require.NoError(t, json.Unmarshal([]byte(`{
		"size": {"height": 100, "width": 200},
		"objects": [
			{"classTitle": "car", "geometryType": "rectangle",
			 "points": {"exterior": [[10, 20], [50, 60]], "interior": []}},
			{"classTitle": "person", "geometryType": "point",
			 "points": {"exterior": [[160, 40]], "interior": []}}
		]
	}`), &raw))
	return raw
}

func testRenderConfig() *config.RenderConfig {
	return &config.RenderConfig{MaxConcurrent: 2, QueueTimeout: 1}
}

func newTestRenderService(t *testing.T, p Platform) (*RenderService, *MemoryMetaCache) {
	t.Helper()
	cache, err := NewMemoryMetaCache("")
	require.NoError(t, err)
	return NewRenderService(testRenderConfig(), p, cache), cache
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
