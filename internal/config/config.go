package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bassista/go_wind/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// starterSpotsFile is written when the spots file does not exist yet.
const starterSpotsFile = `# Spots shown on the dashboard. Edit here or through /config.
rotation:
  enabled: false
  interval_seconds: 30
spots: {}
`

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Data   DataConfig   `mapstructure:"data"`
	Images ImageConfig  `mapstructure:"images"`
	Misc   MiscConfig   `mapstructure:"misc"`
}

type ServerConfig struct {
	Port               int           `mapstructure:"port"`
	ReadTimeout        time.Duration `mapstructure:"read_timeout"`
	WriteTimeout       time.Duration `mapstructure:"write_timeout"`
	IdleTimeout        time.Duration `mapstructure:"idle_timeout"`
	ShutDownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
}

type DataConfig struct {
	FilePath        string `mapstructure:"file_path"`
	CreateIfMissing bool   `mapstructure:"create_if_missing"`
}

// ImageConfig controls the weather chart cache.
type ImageConfig struct {
	CacheDir         string        `mapstructure:"cache_dir"`
	MaxAge           time.Duration `mapstructure:"max_age"`
	FetchTimeout     time.Duration `mapstructure:"fetch_timeout"`
	PrefetchInterval time.Duration `mapstructure:"prefetch_interval"` // 0 disables prefetching
	CacheControl     string        `mapstructure:"cache_control"`
}

type MiscConfig struct {
	GinMode         string `mapstructure:"gin_mode"`
	LogLevel        string `mapstructure:"log_level"`
	HoneybadgerKey  string `mapstructure:"honeybadger_api_key"`
	Environment     string `mapstructure:"environment"`
	DefaultViewName string `mapstructure:"default_view"`
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.idle_timeout", 120*time.Second)
	viper.SetDefault("server.shutdown_timeout", 5*time.Second)
	viper.SetDefault("server.request_timeout", 20*time.Second)
	viper.SetDefault("server.cors_allowed_origins", "*")

	viper.SetDefault("data.file_path", "./config/data/spots.yaml")
	viper.SetDefault("data.create_if_missing", true)

	viper.SetDefault("images.cache_dir", "./cache/images")
	viper.SetDefault("images.max_age", 2*time.Hour)
	viper.SetDefault("images.fetch_timeout", 15*time.Second)
	viper.SetDefault("images.prefetch_interval", time.Duration(0))
	viper.SetDefault("images.cache_control", "public, max-age=600")

	viper.SetDefault("misc.gin_mode", "release")
	viper.SetDefault("misc.log_level", "info")
	viper.SetDefault("misc.honeybadger_api_key", "")
	viper.SetDefault("misc.environment", "")
	viper.SetDefault("misc.default_view", "")
}

// LoadConfig reads settings from .env, config.yaml and the environment, in that
// order of increasing precedence. GO_WIND_CONFIG_PATH selects the directory
// holding config.yaml; GO_WIND_SERVER_PORT style variables override single keys.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.WithComponent("config").Debugf("no .env file loaded: %v", err)
	}

	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(getEnvOrDefault("GO_WIND_CONFIG_PATH", "./config"))

	setDefaults()

	viper.SetEnvPrefix("GO_WIND")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		logger.WithComponent("config").Info("no config file found, using defaults and env vars")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// PORT is honoured for container platforms that only set that variable.
	port, err := getEnvOrViperPort("PORT", "server.port")
	if err != nil {
		return nil, err
	}
	cfg.Server.Port = port

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Data.CreateIfMissing {
		if err := ensureSpotsFile(cfg.Data.FilePath); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.IdleTimeout <= 0 {
		return errors.New("server read, write and idle timeouts must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}
	if strings.TrimSpace(c.Data.FilePath) == "" {
		return errors.New("data file path is required")
	}
	if strings.TrimSpace(c.Images.CacheDir) == "" {
		return errors.New("image cache dir is required")
	}
	if c.Images.MaxAge <= 0 {
		return errors.New("image max age must be positive")
	}
	if c.Images.FetchTimeout <= 0 {
		return errors.New("image fetch timeout must be positive")
	}
	if c.Images.PrefetchInterval < 0 {
		return errors.New("image prefetch interval cannot be negative")
	}
	return nil
}

// ensureSpotsFile creates the spots file with a starter document when absent.
// An existing file is never touched.
func ensureSpotsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat spots file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create spots dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(starterSpotsFile), 0o644); err != nil {
		return fmt.Errorf("create spots file: %w", err)
	}
	logger.WithComponent("config").Infof("created starter spots file at %s", path)
	return nil
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvOrViperPort(envKey, viperKey string) (int, error) {
	if v := os.Getenv(envKey); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return port, nil
	}
	return viper.GetInt(viperKey), nil
}
