package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New 按运行模式构建 SugaredLogger
// dev 模式彩色控制台输出，prod 模式 JSON 输出
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}

// NewNop 测试用的静默 logger
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
