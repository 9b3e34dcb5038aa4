package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Reconnect struct {
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
	MaxRetries int           `mapstructure:"max_retries"`
}

type Agent struct {
	Port       int           `mapstructure:"port"`
	Secret     string        `mapstructure:"secret"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	TextLimit  int           `mapstructure:"text_limit"`
	TextWindow time.Duration `mapstructure:"text_window"`
}

type Config struct {
	Mode            string          `mapstructure:"mode"`
	LogLevel        string          `mapstructure:"log_level"`
	WSURL           string          `mapstructure:"ws_url"`
	EnableMic       bool            `mapstructure:"enable_mic"`
	EnableCam       bool            `mapstructure:"enable_cam"`
	ProtocolVersion string          `mapstructure:"protocol_version"`
	Reconnect       Reconnect       `mapstructure:"reconnect"`
	PingPeriod      time.Duration   `mapstructure:"ping_period"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ReadLimit       int64           `mapstructure:"read_limit"`
	Devices         []domain.Device `mapstructure:"devices"`
	Agent           Agent           `mapstructure:"agent"`
}

// Load reads config/config.<CONFIG_ENV>.yaml, dev by default.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads the given YAML file. A missing file falls back to defaults;
// a file that exists but cannot be parsed is an error. VOICELINK_*
// environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("VOICELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("ws_url", "ws://localhost:8765/ws")
	v.SetDefault("enable_mic", true)
	v.SetDefault("enable_cam", false)
	v.SetDefault("protocol_version", "1.0.0")
	v.SetDefault("reconnect.base_delay", "1s")
	v.SetDefault("reconnect.max_delay", "30s")
	v.SetDefault("reconnect.max_retries", 5)
	v.SetDefault("ping_period", "30s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("agent.port", 8765)
	v.SetDefault("agent.secret", "voicelink-dev-secret")
	v.SetDefault("agent.ping_period", "0s")
	v.SetDefault("agent.text_limit", 20)
	v.SetDefault("agent.text_window", "10s")
	v.SetDefault("devices", []map[string]any{
		{"id": "default-mic", "kind": "audioinput", "label": "Default Microphone"},
		{"id": "default-cam", "kind": "videoinput", "label": "Default Camera"},
		{"id": "default-speaker", "kind": "audiooutput", "label": "Default Speaker"},
	})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	log.Info().Str("module", "config").
		Str("mode", cfg.Mode).
		Str("ws_url", cfg.WSURL).
		Bool("mic", cfg.EnableMic).
		Bool("cam", cfg.EnableCam).
		Msg("config ready")
	return &cfg, nil
}
