package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

// MetaCache 按项目ID缓存项目元数据，未命中时返回 nil, nil
type MetaCache interface {
	Get(ctx context.Context, projectID int64) (*model.ProjectMetaJSON, error)
	Set(ctx context.Context, projectID int64, m model.ProjectMetaJSON) error
	Delete(ctx context.Context, projectID int64) error
	ProjectIDs(ctx context.Context) ([]int64, error)
}

// MemoryMetaCache 进程内缓存，每次写入后快照到本地文件
type MemoryMetaCache struct {
	mu    sync.RWMutex
	metas map[int64]model.ProjectMetaJSON
	path  string
}

// NewMemoryMetaCache 创建内存缓存，path 为空时不落盘；快照存在时先加载
func NewMemoryMetaCache(path string) (*MemoryMetaCache, error) {
	c := &MemoryMetaCache{
		metas: make(map[int64]model.ProjectMetaJSON),
		path:  path,
	}
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read meta cache file: %w", err)
	}

	var snapshot map[string]model.ProjectMetaJSON
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse meta cache file: %w", err)
	}
	for key, m := range snapshot {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			utils.Logger.Warn("skip invalid project id in meta cache file", zap.String("key", key))
			continue
		}
		c.metas[id] = m
	}
	utils.Logger.Info("meta cache loaded", zap.String("file", path), zap.Int("projects", len(c.metas)))
	return c, nil
}

func (c *MemoryMetaCache) Get(_ context.Context, projectID int64) (*model.ProjectMetaJSON, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metas[projectID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (c *MemoryMetaCache) Set(_ context.Context, projectID int64, m model.ProjectMetaJSON) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metas[projectID] = m
	return c.persist()
}

func (c *MemoryMetaCache) Delete(_ context.Context, projectID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.metas, projectID)
	return c.persist()
}

func (c *MemoryMetaCache) ProjectIDs(_ context.Context) ([]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]int64, 0, len(c.metas))
	for id := range c.metas {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// persist 先写临时文件再重命名，调用方持有写锁
func (c *MemoryMetaCache) persist() error {
	if c.path == "" {
		return nil
	}
	snapshot := make(map[string]model.ProjectMetaJSON, len(c.metas))
	for id, m := range c.metas {
		snapshot[strconv.FormatInt(id, 10)] = m
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal meta cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create meta cache dir: %w", err)
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write meta cache file: %w", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return fmt.Errorf("failed to replace meta cache file: %w", err)
	}
	return nil
}
