package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/model"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

const projectsKey = "meta:projects"

// RedisService 基于 Redis 的项目元数据缓存
type RedisService struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisService(cfg *config.RedisConfig) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisService{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (s *RedisService) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func metaKey(projectID int64) string {
	return "meta:" + strconv.FormatInt(projectID, 10)
}

// Get 从缓存获取项目元数据
func (s *RedisService) Get(ctx context.Context, projectID int64) (*model.ProjectMetaJSON, error) {
	data, err := s.client.Get(ctx, metaKey(projectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // 缓存未命中
		}
		return nil, err
	}

	var m model.ProjectMetaJSON
	if err := json.Unmarshal(data, &m); err != nil {
		utils.Logger.Error("failed to unmarshal project meta",
			zap.Int64("project_id", projectID), zap.Error(err))
		return nil, err
	}

	return &m, nil
}

// Set 写入项目元数据并登记项目ID
func (s *RedisService) Set(ctx context.Context, projectID int64, m model.ProjectMetaJSON) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, metaKey(projectID), data, s.ttl)
		pipe.SAdd(ctx, projectsKey, projectID)
		return nil
	})
	return err
}

func (s *RedisService) Delete(ctx context.Context, projectID int64) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, metaKey(projectID))
		pipe.SRem(ctx, projectsKey, projectID)
		return nil
	})
	return err
}

// ProjectIDs 返回登记过的项目ID，包含已过期的项目以便刷新
func (s *RedisService) ProjectIDs(ctx context.Context) ([]int64, error) {
	members, err := s.client.SMembers(ctx, projectsKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *RedisService) Close() error {
	return s.client.Close()
}
