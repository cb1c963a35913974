package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

const (
	settingsFile = "settings.json"
	settingsDir  = "settings"
	maxOutputPx  = 10000
)

// ErrInvalidSettings 渲染参数超出范围
var ErrInvalidSettings = errors.New("invalid render settings")

// SettingsStore 当前渲染参数
type SettingsStore struct {
	mu      sync.RWMutex
	current model.RenderSettings
	dataDir string
}

// SettingsFromConfig 把配置中的渲染默认值转换为渲染参数
func SettingsFromConfig(cfg *config.RenderConfig) model.RenderSettings {
	return model.RenderSettings{
		BBoxThicknessPercent: cfg.BBoxThicknessPercent,
		BBoxOpacity:          cfg.BBoxOpacity,
		FillBBoxOpacity:      cfg.FillBBoxOpacity,
		MaskOpacity:          cfg.MaskOpacity,
		OutputWidthPx:        cfg.OutputWidthPx,
		PointRadius:          cfg.PointRadius,
	}
}

// NewSettingsStore 创建参数存储，dataDir 下有已保存的参数时优先使用
func NewSettingsStore(defaults model.RenderSettings, dataDir string) *SettingsStore {
	if err := ValidateSettings(defaults); err != nil {
		utils.Logger.Warn("invalid render defaults, using built-in values", zap.Error(err))
		defaults = model.DefaultRenderSettings()
	}
	s := &SettingsStore{current: defaults, dataDir: dataDir}
	if dataDir == "" {
		return s
	}

	path := filepath.Join(dataDir, settingsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			utils.Logger.Warn("failed to read saved settings", zap.String("file", path), zap.Error(err))
		}
		return s
	}

	loaded, err := MergeSettings(defaults, data)
	if err != nil {
		utils.Logger.Warn("ignore saved settings", zap.String("file", path), zap.Error(err))
		return s
	}
	s.current = loaded
	utils.Logger.Info("saved settings loaded", zap.String("file", path))
	return s
}

func (s *SettingsStore) Get() model.RenderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Merge 在当前参数上覆盖 JSON 中出现的键，读取和写回在同一把锁内完成
func (s *SettingsStore) Merge(data []byte) (model.RenderSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, err := MergeSettings(s.current, data)
	if err != nil {
		return s.current, err
	}
	s.current = merged
	return merged, nil
}

// Save 写入 settings.json，并在 settings/ 下保留一份带时间戳的副本
func (s *SettingsStore) Save() (string, error) {
	if s.dataDir == "" {
		return "", errors.New("data dir is not configured")
	}
	data, err := json.MarshalIndent(s.Get(), "", "    ")
	if err != nil {
		return "", err
	}

	historyDir := filepath.Join(s.dataDir, settingsDir)
	if err := os.MkdirAll(historyDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create settings dir: %w", err)
	}

	path := filepath.Join(s.dataDir, settingsFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write settings: %w", err)
	}
	snapshot := filepath.Join(historyDir, fmt.Sprintf("%d.json", utils.GenerateID()))
	if err := os.WriteFile(snapshot, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write settings snapshot: %w", err)
	}
	return path, nil
}

// MergeSettings 在 base 上覆盖 JSON 中出现的键并校验
func MergeSettings(base model.RenderSettings, data []byte) (model.RenderSettings, error) {
	merged := base
	if err := json.Unmarshal(data, &merged); err != nil {
		return base, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if err := ValidateSettings(merged); err != nil {
		return base, err
	}
	return merged, nil
}

func ValidateSettings(v model.RenderSettings) error {
	opacities := []struct {
		name  string
		value float64
	}{
		{"BBOX_OPACITY", v.BBoxOpacity},
		{"FILLBBOX_OPACITY", v.FillBBoxOpacity},
		{"MASK_OPACITY", v.MaskOpacity},
	}
	for _, o := range opacities {
		if o.value < 0 || o.value > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %v", ErrInvalidSettings, o.name, o.value)
		}
	}
	if v.BBoxThicknessPercent < 0 || v.BBoxThicknessPercent > 100 {
		return fmt.Errorf("%w: BBOX_THICKNESS_PERCENT must be in [0, 100], got %v", ErrInvalidSettings, v.BBoxThicknessPercent)
	}
	if v.OutputWidthPx < 1 || v.OutputWidthPx > maxOutputPx {
		return fmt.Errorf("%w: OUTPUT_WIDTH_PX must be in [1, %d], got %d", ErrInvalidSettings, maxOutputPx, v.OutputWidthPx)
	}
	if v.PointRadius < 0 {
		return fmt.Errorf("%w: POINT_RADIUS must not be negative, got %d", ErrInvalidSettings, v.PointRadius)
	}
	return nil
}
