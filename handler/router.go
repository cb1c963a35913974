package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/supervisely-ecosystem/render-previews-app/middleware"
	"github.com/supervisely-ecosystem/render-previews-app/web"
)

// BuildInfo 版本信息
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
	GitBranch string
}

// NewRouter 注册全部路由，dataDir 作为 /static 目录对外提供预览图
func NewRouter(render *RenderHandler, settings *SettingsHandler, dataDir string, build BuildInfo) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	r.Static("/static", dataDir)
	r.GET("/", web.Index)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"version": build.Version,
		})
	})

	r.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    build.Version,
			"build_time": build.BuildTime,
			"git_commit": build.GitCommit,
			"git_branch": build.GitBranch,
		})
	})

	r.GET("/renders", render.Render)
	r.GET("/refresh", render.Refresh)

	api := r.Group("/api/v1")
	{
		api.GET("/settings", settings.Get)
		api.PUT("/settings", settings.Update)
		api.POST("/settings/save", settings.Save)
		api.POST("/preview", settings.Preview)
	}

	return r
}
