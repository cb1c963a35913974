package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/service"
)

type stubPlatform struct {
	metas       map[int64]model.ProjectMetaJSON
	annotations map[int64]model.AnnotationJSON
	infos       map[int64]*model.ImageInfo
	images      map[int64][]byte
}

func (p *stubPlatform) GetProjectMeta(_ context.Context, projectID int64) (model.ProjectMetaJSON, error) {
	m, ok := p.metas[projectID]
	if !ok {
		return model.ProjectMetaJSON{}, fmt.Errorf("project %d not found", projectID)
	}
	return m, nil
}

func (p *stubPlatform) DownloadAnnotation(_ context.Context, imageID int64) (model.AnnotationJSON, error) {
	a, ok := p.annotations[imageID]
	if !ok {
		return model.AnnotationJSON{}, fmt.Errorf("image %d not found", imageID)
	}
	return a, nil
}

func (p *stubPlatform) GetImageInfo(_ context.Context, imageID int64) (*model.ImageInfo, error) {
	info, ok := p.infos[imageID]
	if !ok {
		return nil, fmt.Errorf("image %d not found", imageID)
	}
	return info, nil
}

func (p *stubPlatform) DownloadImage(_ context.Context, imageID int64) ([]byte, error) {
	data, ok := p.images[imageID]
	if !ok {
		return nil, fmt.Errorf("image %d not found", imageID)
	}
	return data, nil
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testServer struct {
	router   *gin.Engine
	platform *stubPlatform
	metas    *service.MemoryMetaCache
	dataDir  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var ann model.AnnotationJSON
	require.NoError(t, json.Unmarshal([]byte(`{
		"size": {"height": 100, "width": 200},
		"objects": [{"classTitle": "car", "geometryType": "rectangle",
			"points": {"exterior": [[10, 20], [50, 60]], "interior": []}}]
	}`), &ann))

	p := &stubPlatform{
		metas: map[int64]model.ProjectMetaJSON{
			7: {Classes: []model.ObjClassJSON{{Title: "car", Shape: "rectangle", Color: "#FF0000"}}},
		},
		annotations: map[int64]model.AnnotationJSON{42: ann},
		infos:       map[int64]*model.ImageInfo{42: {ID: 42, ProjectID: 7, Width: 200, Height: 100}},
		images:      map[int64][]byte{42: whitePNG(t, 200, 100)},
	}

	dataDir := t.TempDir()
	metas, err := service.NewMemoryMetaCache("")
	require.NoError(t, err)

	settings := service.NewSettingsStore(model.DefaultRenderSettings(), dataDir)
	render := service.NewRenderService(&config.RenderConfig{MaxConcurrent: 2, QueueTimeout: 1}, p, metas)
	preview := service.NewPreviewService(render, p, dataDir)

	r := NewRouter(NewRenderHandler(render, settings), NewSettingsHandler(settings, preview), dataDir, BuildInfo{Version: "test"})
	return &testServer{router: r, platform: p, metas: metas, dataDir: dataDir}
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestRender(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/renders?project_id=7&image_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))
	require.Equal(t, "max-age=604800", w.Header().Get("Cache-Control"))
	require.NotEmpty(t, w.Header().Get("ETag"))

	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 500, 250), img.Bounds())
	_, _, _, a := img.At(0, 0).RGBA()
	require.Zero(t, a)
	r, _, _, a := img.At(25, 100).RGBA()
	require.Equal(t, uint32(0xffff), r)
	require.Equal(t, uint32(0xffff), a)
}

func TestRender_WebP(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/renders?project_id=7&image_id=42&format=webp", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/webp", w.Header().Get("Content-Type"))
}

func TestRender_BadRequest(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/renders?image_id=42",
		"/renders?project_id=abc&image_id=42",
		"/renders?project_id=7&image_id=-1",
		"/renders?project_id=7&image_id=42&format=gif",
	} {
		w := s.do(http.MethodGet, target, "")
		require.Equal(t, http.StatusBadRequest, w.Code, target)

		var resp model.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.False(t, resp.Success)
		require.NotEmpty(t, resp.Error)
	}
}

func TestRender_Failure(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/renders?project_id=8&image_id=42", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Error, "PROJECT_ID: 8, IMAGE_ID: 42. Error: ")
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, s.metas.Set(ctx, 7, model.ProjectMetaJSON{}))

	w := s.do(http.MethodGet, "/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "Projects successfully refreshed", w.Body.String())

	cached, err := s.metas.Get(ctx, 7)
	require.NoError(t, err)
	require.Len(t, cached.Classes, 1)

	w = s.do(http.MethodGet, "/refresh?project_id=9", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.HasPrefix(w.Body.String(), "Error: "))

	w = s.do(http.MethodGet, "/refresh?project_id=x", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/settings", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp model.SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, model.DefaultRenderSettings(), *resp.Data)

	w = s.do(http.MethodPut, "/api/v1/settings", `{"OUTPUT_WIDTH_PX": 300}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 300, resp.Data.OutputWidthPx)

	w = s.do(http.MethodPut, "/api/v1/settings", `{"MASK_OPACITY": 2}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	// 修改后的宽度作用于渲染
	w = s.do(http.MethodGet, "/renders?project_id=7&image_id=42", "")
	require.Equal(t, http.StatusOK, w.Code)
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	require.Equal(t, 300, img.Bounds().Dx())

	w = s.do(http.MethodPost, "/api/v1/settings/save", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.FileExists(t, resp.Path)
}

func TestPreview(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/v1/preview", `{"image_id": 42, "settings": {"OUTPUT_WIDTH_PX": 100}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp model.PreviewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.Equal(t, 100, resp.Data.Width)
	require.Equal(t, 50, resp.Data.Height)

	w = s.do(http.MethodGet, "/"+resp.Data.OverlapURL, "")
	require.Equal(t, http.StatusOK, w.Code)

	// 预览参数不影响当前参数
	w = s.do(http.MethodGet, "/api/v1/settings", "")
	var settings model.SettingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
	require.Equal(t, 500, settings.Data.OutputWidthPx)

	w = s.do(http.MethodPost, "/api/v1/preview", `{"settings": {}}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/preview", `{"image_id": 404}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = s.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status": "ok", "version": "test"}`, w.Body.String())
}
