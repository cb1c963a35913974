package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/model"
)

const apiPrefix = "/public/api/v3/"

// ErrPlatformNotConfigured 未配置平台地址或令牌
var ErrPlatformNotConfigured = errors.New("platform server address or api token is not configured")

// Platform 渲染所需的平台接口
type Platform interface {
	GetProjectMeta(ctx context.Context, projectID int64) (model.ProjectMetaJSON, error)
	DownloadAnnotation(ctx context.Context, imageID int64) (model.AnnotationJSON, error)
	GetImageInfo(ctx context.Context, imageID int64) (*model.ImageInfo, error)
	DownloadImage(ctx context.Context, imageID int64) ([]byte, error)
}

// APIError 平台返回的非 2xx 响应
type APIError struct {
	Method string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: server returned status %d: %s", e.Method, e.Status, e.Body)
}

// PlatformClient 平台公共 API 客户端
type PlatformClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewPlatformClient(cfg *config.PlatformConfig) *PlatformClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PlatformClient{
		baseURL: strings.TrimSuffix(cfg.ServerAddress, "/"),
		token:   cfg.APIToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetProjectMeta 获取项目元数据
func (c *PlatformClient) GetProjectMeta(ctx context.Context, projectID int64) (model.ProjectMetaJSON, error) {
	var m model.ProjectMetaJSON
	err := c.call(ctx, "projects.meta", map[string]int64{"id": projectID}, &m)
	return m, err
}

type annotationInfo struct {
	ImageID    int64                `json:"imageId"`
	ImageName  string               `json:"imageName"`
	Annotation model.AnnotationJSON `json:"annotation"`
}

// DownloadAnnotation 下载图片标注
func (c *PlatformClient) DownloadAnnotation(ctx context.Context, imageID int64) (model.AnnotationJSON, error) {
	var info annotationInfo
	if err := c.call(ctx, "annotations.info", map[string]int64{"imageId": imageID}, &info); err != nil {
		return model.AnnotationJSON{}, err
	}
	return info.Annotation, nil
}

// GetImageInfo 获取图片信息
func (c *PlatformClient) GetImageInfo(ctx context.Context, imageID int64) (*model.ImageInfo, error) {
	var info model.ImageInfo
	if err := c.call(ctx, "images.info", map[string]int64{"id": imageID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadImage 下载原图
func (c *PlatformClient) DownloadImage(ctx context.Context, imageID int64) ([]byte, error) {
	return c.send(ctx, "images.download", map[string]int64{"id": imageID})
}

func (c *PlatformClient) call(ctx context.Context, method string, payload, out any) error {
	body, err := c.send(ctx, method, payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", method, err)
	}
	return nil
}

func (c *PlatformClient) send(ctx context.Context, method string, payload any) ([]byte, error) {
	if c.baseURL == "" || c.token == "" {
		return nil, ErrPlatformNotConfigured
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to marshal request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+method, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send request: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", method, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: method, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}
