package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 全局日志，InitLogger 之前为空实现
var Logger = zap.NewNop()

// InitLogger 按运行模式初始化日志，level 为空时使用模式默认级别
func InitLogger(mode, level string) error {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return err
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := config.Build(zap.Fields(zap.String("app", "render-previews")))
	if err != nil {
		return err
	}

	Logger = logger
	return nil
}

// ProjectImage 渲染相关日志的公共字段
func ProjectImage(projectID, imageID int64) []zap.Field {
	return []zap.Field{zap.Int64("project_id", projectID), zap.Int64("image_id", imageID)}
}

func Sync() {
	_ = Logger.Sync()
}
