package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全量配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	AI       AIConfig       `mapstructure:"ai"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Task     TaskConfig     `mapstructure:"task"`
	Admin    AdminConfig    `mapstructure:"admin"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"` // dev | prod
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// JWTConfig 认证配置
type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	Issuer          string        `mapstructure:"issuer"`
}

// AIConfig AI 协作方配置
type AIConfig struct {
	ApiKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SnapshotConfig 载荷归档配置
type SnapshotConfig struct {
	Provider  string `mapstructure:"provider"` // s3 | local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint"`
	BasePath  string `mapstructure:"base_path"`
}

// TaskConfig 后台任务配置
type TaskConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	CatalogCron string `mapstructure:"catalog_cron"`
}

// AdminConfig 启动兜底管理员
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Load 读取 config.yaml，环境变量可覆盖（点号换下划线，如 DATABASE_HOST）
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// 没有配置文件时全走默认值 + 环境变量
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "dev")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "shophub")
	viper.SetDefault("database.user", "shophub")
	viper.SetDefault("database.password", "shophub")
	viper.SetDefault("database.ssl_mode", "disable")

	viper.SetDefault("jwt.secret", "shophub-secret-key-change-in-production")
	viper.SetDefault("jwt.access_token_ttl", "2h")
	viper.SetDefault("jwt.refresh_token_ttl", "168h")
	viper.SetDefault("jwt.issuer", "shophub")

	viper.SetDefault("ai.model", "gemini-2.5-flash")
	viper.SetDefault("ai.timeout", "60s")

	viper.SetDefault("snapshot.provider", "local")
	viper.SetDefault("snapshot.base_path", "./snapshots")

	viper.SetDefault("task.enabled", true)
	viper.SetDefault("task.catalog_cron", "0 30 3 * * *")

	viper.SetDefault("admin.username", "admin")
	viper.SetDefault("admin.password", "")
}
