package logging

import (
	"strings"

	"go.uber.org/zap"
)

// Log starts as a nop so packages can log before Init runs (tests mostly).
var Log = zap.NewNop().Sugar()

func Init(mode string) error {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = logger.Sugar()
	return nil
}

func Sync() {
	_ = Log.Sync()
}
