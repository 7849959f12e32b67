// Package config loads process configuration the way the rest of this
// codebase's ambient stack does: a YAML file selected by CONFIG_ENV, with
// viper defaults filling anything the file omits.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config carries every tunable named in spec §6: listen address/port, ping
// period, idle timeout, empty-room grace period, and an optional room cap.
type Config struct {
	Mode string `mapstructure:"mode"`

	Addr string `mapstructure:"addr"`
	Port int    `mapstructure:"port"`

	PingPeriod    time.Duration `mapstructure:"ping_period"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	GCGracePeriod time.Duration `mapstructure:"gc_grace_period"`
	RoomCap       int           `mapstructure:"room_cap"`

	// Secret signs the client-correlation cookie set by the admin HTTP
	// surface. It is not used for authorization.
	Secret string `mapstructure:"secret"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (default env "dev"), falling
// back to defaults when the file is absent — mirroring the teacher's
// tolerant Load().
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8080)
	v.SetDefault("ping_period", "15s")
	v.SetDefault("idle_timeout", "15s")
	v.SetDefault("gc_grace_period", "60s")
	v.SetDefault("room_cap", 0)
	v.SetDefault("secret", "dev-secret-change-me")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
