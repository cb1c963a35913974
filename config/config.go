package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Platform PlatformConfig `mapstructure:"platform"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Render   RenderConfig   `mapstructure:"render"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	LogLevel     string        `mapstructure:"log_level"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// PlatformConfig 标注平台 API 连接参数
type PlatformConfig struct {
	ServerAddress string        `mapstructure:"server_address"`
	APIToken      string        `mapstructure:"api_token"`
	TeamID        int           `mapstructure:"team_id"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Backend string `mapstructure:"backend"` // memory, redis
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// RenderConfig 渲染默认参数与并发限制
type RenderConfig struct {
	BBoxThicknessPercent float64 `mapstructure:"bbox_thickness_percent"`
	BBoxOpacity          float64 `mapstructure:"bbox_opacity"`
	FillBBoxOpacity      float64 `mapstructure:"fillbbox_opacity"`
	MaskOpacity          float64 `mapstructure:"mask_opacity"`
	OutputWidthPx        int     `mapstructure:"output_width_px"`
	PointRadius          int     `mapstructure:"point_radius"`
	MaxConcurrent        int     `mapstructure:"max_concurrent"`
	QueueTimeout         int     `mapstructure:"queue_timeout"`
}

// Load 从 YAML 文件加载配置
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// New 使用默认配置路径加载配置
func New() *Config {
	cfg, err := Load("config.yaml")
	if err != nil {
		// 配置文件不存在时仍然读取环境变量
		return fromEnv()
	}
	return cfg
}

// loadEnvFiles 加载本地开发用的 env 文件，文件不存在时忽略
func loadEnvFiles() {
	_ = godotenv.Load("local.env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, "supervisely.env"))
	}
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("platform.server_address", "SERVER_ADDRESS")
	_ = v.BindEnv("platform.api_token", "API_TOKEN")
	_ = v.BindEnv("platform.team_id", "TEAM_ID")
	_ = v.BindEnv("storage.data_dir", "SLY_APP_DATA_DIR")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
}

func fromEnv() *Config {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return getDefaultConfig()
	}
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8000")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("platform.server_address", "")
	v.SetDefault("platform.api_token", "")
	v.SetDefault("platform.team_id", 0)
	v.SetDefault("platform.timeout", 30*time.Second)

	v.SetDefault("cache.backend", "memory")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("storage.data_dir", "./APP_DATA")

	v.SetDefault("render.bbox_thickness_percent", 0.5)
	v.SetDefault("render.bbox_opacity", 1.0)
	v.SetDefault("render.fillbbox_opacity", 0.2)
	v.SetDefault("render.mask_opacity", 0.7)
	v.SetDefault("render.output_width_px", 500)
	v.SetDefault("render.point_radius", 25)
	v.SetDefault("render.max_concurrent", 4)
	v.SetDefault("render.queue_timeout", 30)
}

func getDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8000",
			Mode:         "debug",
			LogLevel:     "info",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Platform: PlatformConfig{
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			Backend: "memory",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			TTL:      24 * time.Hour,
		},
		Storage: StorageConfig{
			DataDir: "./APP_DATA",
		},
		Render: RenderConfig{
			BBoxThicknessPercent: 0.5,
			BBoxOpacity:          1,
			FillBBoxOpacity:      0.2,
			MaskOpacity:          0.7,
			OutputWidthPx:        500,
			PointRadius:          25,
			MaxConcurrent:        4,
			QueueTimeout:         30,
		},
	}
}
