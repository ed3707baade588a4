package app

import (
	"time"

	"github.com/yungbote/platebook-backend/internal/platform/envutil"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type Config struct {
	JWTSecretKey     string
	AutosaveInterval time.Duration
	// StepConfigPath optionally overrides the built-in step sequence.
	StepConfigPath string
	Port           string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	autosaveSeconds := envutil.GetEnvAsInt("AUTOSAVE_INTERVAL_SECONDS", 30, log)
	stepConfigPath := envutil.GetEnv("STEP_CONFIG_PATH", "", log)
	port := envutil.GetEnv("PORT", "8080", log)
	return Config{
		JWTSecretKey:     jwtSecretKey,
		AutosaveInterval: time.Duration(autosaveSeconds) * time.Second,
		StepConfigPath:   stepConfigPath,
		Port:             port,
	}
}
