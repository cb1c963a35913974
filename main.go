package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/supervisely-ecosystem/render-previews-app/config"
	"github.com/supervisely-ecosystem/render-previews-app/handler"
	"github.com/supervisely-ecosystem/render-previews-app/service"
	"github.com/supervisely-ecosystem/render-previews-app/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

func main() {
	// 加载配置
	cfg := config.New()

	// 初始化日志
	if err := utils.InitLogger(cfg.Server.Mode, cfg.Server.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.Sync()

	utils.Logger.Info("starting render previews server",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
		zap.String("git_branch", GitBranch),
		zap.String("platform", cfg.Platform.ServerAddress),
		zap.Int("team_id", cfg.Platform.TeamID))

	// 确保数据目录存在
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		utils.Logger.Fatal("failed to create data directory", zap.Error(err))
	}

	// 初始化元数据缓存
	metas, closeCache := newMetaCache(cfg)
	defer closeCache()

	platform := service.NewPlatformClient(&cfg.Platform)
	settingsStore := service.NewSettingsStore(service.SettingsFromConfig(&cfg.Render), cfg.Storage.DataDir)
	renderService := service.NewRenderService(&cfg.Render, platform, metas)
	previewService := service.NewPreviewService(renderService, platform, cfg.Storage.DataDir)

	renderHandler := handler.NewRenderHandler(renderService, settingsStore)
	settingsHandler := handler.NewSettingsHandler(settingsStore, previewService)

	// 设置Gin模式
	gin.SetMode(cfg.Server.Mode)

	r := handler.NewRouter(renderHandler, settingsHandler, cfg.Storage.DataDir, handler.BuildInfo{
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
		GitBranch: GitBranch,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 启动服务器
	utils.Logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		utils.Logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newMetaCache 按配置选择缓存，Redis 不可用时退回内存缓存
func newMetaCache(cfg *config.Config) (service.MetaCache, func()) {
	if cfg.Cache.Backend == "redis" {
		redisService := service.NewRedisService(&cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := redisService.Ping(ctx); err != nil {
			utils.Logger.Warn("redis connection failed, using memory cache", zap.Error(err))
			_ = redisService.Close()
		} else {
			utils.Logger.Info("redis connected successfully")
			return redisService, func() { _ = redisService.Close() }
		}
	}

	path := filepath.Join(cfg.Storage.DataDir, "metas.json")
	memory, err := service.NewMemoryMetaCache(path)
	if err != nil {
		utils.Logger.Warn("meta cache file is unreadable, starting empty", zap.String("file", path), zap.Error(err))
		memory, _ = service.NewMemoryMetaCache("")
	}
	return memory, func() {}
}
