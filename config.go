package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"cultivos/apperr"
)

type Config struct {
	MongoURI         string
	MongoDB          string
	JWTSecret        string
	Port             string
	MLServiceURL     string // empty disables the remote model
	MLTimeout        time.Duration
	CropProfilesFile string
	CORSOrigins      []string
	CompatThreshold  float64
	TokenTTL         time.Duration
}

// loadConfig reads .env (if present) and the environment.
func loadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MongoURI:         getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:          getenv("MONGO_DB", "cultivos"),
		JWTSecret:        getenv("JWT_SECRET", "change_me"),
		Port:             getenv("PORT", "8080"),
		MLServiceURL:     strings.TrimSpace(os.Getenv("ML_SERVICE_URL")),
		CropProfilesFile: os.Getenv("CROP_PROFILES_FILE"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173,http://localhost:3000")),
	}

	var err error
	if cfg.MLTimeout, err = getDuration("ML_TIMEOUT", 8*time.Second); err != nil {
		return cfg, err
	}
	if cfg.TokenTTL, err = getDuration("JWT_TTL", 24*time.Hour); err != nil {
		return cfg, err
	}
	if cfg.CompatThreshold, err = getFloat("COMPAT_THRESHOLD", 0.5); err != nil {
		return cfg, err
	}
	if cfg.CompatThreshold <= 0 || cfg.CompatThreshold >= 1 {
		return cfg, apperr.ConfigInvalid("COMPAT_THRESHOLD must be in (0,1)")
	}
	if cfg.MLTimeout <= 0 {
		return cfg, apperr.ConfigInvalid("ML_TIMEOUT must be positive")
	}
	return cfg, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, apperr.ConfigInvalid(fmt.Sprintf("%s: %v", k, err))
	}
	return d, nil
}

func getFloat(k string, def float64) (float64, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def, apperr.ConfigInvalid(fmt.Sprintf("%s: %v", k, err))
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
