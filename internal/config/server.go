package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// ServerConfig is read from the environment by cmd/api.
type ServerConfig struct {
	Port        string
	Env         string
	LogMode     string
	RunTTL      time.Duration
	CORSOrigins []string
}

func (s ServerConfig) IsProduction() bool { return s.Env == "production" }

// ServerFromEnv reads API_PORT, API_ENV, LOG_MODE, RUN_TTL and CORS_ORIGINS
// (comma separated). Unset variables fall back to development defaults.
func ServerFromEnv() (ServerConfig, error) {
	s := ServerConfig{
		Port:        getenv("API_PORT", "8080"),
		Env:         getenv("API_ENV", "development"),
		RunTTL:      time.Hour,
		CORSOrigins: []string{"*"},
	}
	s.LogMode = getenv("LOG_MODE", s.Env)
	if v := os.Getenv("RUN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return ServerConfig{}, fmt.Errorf("RUN_TTL must be a positive duration, got %q", v)
		}
		s.RunTTL = d
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		s.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.CORSOrigins = append(s.CORSOrigins, o)
			}
		}
	}
	return s, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
