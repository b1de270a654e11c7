// Package internal holds process-level plumbing shared by the binaries.
package internal

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`
	Host           string `env:"HOST,default=localhost"`
	Port           int    `env:"PORT,default=8080"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	// SessionBufferSize caps how many undelivered push events a single
	// websocket session may queue before frames are dropped.
	SessionBufferSize  int `env:"SESSION_BUFFER_SIZE,default=256"`
	PresenceBufferSize int `env:"PRESENCE_BUFFER_SIZE,default=64"`

	// SessionKeepAlive is the ping interval for idle websocket sessions.
	// Sessions are listen-only by default, so liveness comes from pings,
	// not from a read deadline; a failed ping tears the session down.
	SessionKeepAlive time.Duration `env:"SESSION_KEEPALIVE_INTERVAL,default=1m"`

	LimitMessages   *int          `env:"LIMIT_MESSAGES"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HealthInterval  time.Duration `env:"HEALTH_INTERVAL,default=30s"`
}

// ParseLogLevel turns the LOG_LEVEL value into a slog level.
func ParseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(raw) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", raw)
	}
}
