package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"aitrade-engine/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig      `mapstructure:"app"`
	Logging    logging.Config `mapstructure:"logging"`
	Engine     EngineConfig   `mapstructure:"engine"`
	Storage    StorageConfig  `mapstructure:"storage"`
	OrderLog   OrderLogConfig `mapstructure:"orderlog"`
	Wallet     ServiceConfig  `mapstructure:"wallet"`
	Permission ServiceConfig  `mapstructure:"permission"`
	Metrics    ListenerConfig `mapstructure:"metrics"`
	Feed       ListenerConfig `mapstructure:"feed"`
	Export     ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata plus the user the process acts for.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	UserID      string `mapstructure:"user_id"`
}

// EngineConfig governs session timing and the cosmetic curve tuning.
type EngineConfig struct {
	AnalysisDuration time.Duration `mapstructure:"analysis_duration"`
	RunDuration      time.Duration `mapstructure:"run_duration"`
	TickInterval     time.Duration `mapstructure:"tick_interval"`
	MaxPoints        int           `mapstructure:"max_points"`

	RandomWinProbability float64 `mapstructure:"random_win_probability"`
	WinSpreadLow         float64 `mapstructure:"win_spread_low"`
	WinSpreadHigh        float64 `mapstructure:"win_spread_high"`
	LossSpreadLow        float64 `mapstructure:"loss_spread_low"`
	LossSpreadHigh       float64 `mapstructure:"loss_spread_high"`
	WaveCycles           float64 `mapstructure:"wave_cycles"`
	WaveAmplitude        float64 `mapstructure:"wave_amplitude"`
	NoiseAmplitude       float64 `mapstructure:"noise_amplitude"`
}

// StorageConfig selects and parameterises the local session store.
type StorageConfig struct {
	Backend    string      `mapstructure:"backend"` // sqlite | redis | memory
	SQLitePath string      `mapstructure:"sqlite_path"`
	Redis      RedisConfig `mapstructure:"redis"`
}

// RedisConfig covers the redis store backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// OrderLogConfig covers the best-effort remote settlement mirror.
type OrderLogConfig struct {
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServiceConfig covers an external HTTP collaborator.
type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"request_timeout"`
}

// ListenerConfig covers an optional local HTTP listener.
type ListenerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AITRADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aitrade")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.user_id", "local")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("engine.analysis_duration", "5s")
	v.SetDefault("engine.run_duration", "35s")
	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.max_points", 120)
	v.SetDefault("engine.random_win_probability", 0.28)
	v.SetDefault("engine.win_spread_low", 0.97)
	v.SetDefault("engine.win_spread_high", 1.03)
	v.SetDefault("engine.loss_spread_low", 0.90)
	v.SetDefault("engine.loss_spread_high", 1.06)
	v.SetDefault("engine.wave_cycles", 6)
	v.SetDefault("engine.wave_amplitude", 0.0022)
	v.SetDefault("engine.noise_amplitude", 0.0012)

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.sqlite_path", "data/aitrade.db")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.prefix", "aitrade")

	v.SetDefault("orderlog.timeout", "5s")

	v.SetDefault("wallet.request_timeout", "10s")
	v.SetDefault("permission.request_timeout", "10s")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", ":9182")
	v.SetDefault("feed.enabled", false)
	v.SetDefault("feed.listen", ":8791")

	v.SetDefault("export.max_data_points", 10000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.App.UserID == "" {
		return fmt.Errorf("app.user_id is required")
	}
	if c.Engine.AnalysisDuration <= 0 {
		return fmt.Errorf("engine.analysis_duration must be greater than zero")
	}
	if c.Engine.RunDuration <= 0 {
		return fmt.Errorf("engine.run_duration must be greater than zero")
	}
	if c.Engine.TickInterval <= 0 {
		return fmt.Errorf("engine.tick_interval must be greater than zero")
	}
	if c.Engine.RandomWinProbability < 0 || c.Engine.RandomWinProbability > 1 {
		return fmt.Errorf("engine.random_win_probability must lie in [0,1]")
	}
	if c.Engine.WinSpreadLow > c.Engine.WinSpreadHigh {
		return fmt.Errorf("engine.win_spread_low cannot exceed engine.win_spread_high")
	}
	if c.Engine.LossSpreadLow > c.Engine.LossSpreadHigh {
		return fmt.Errorf("engine.loss_spread_low cannot exceed engine.loss_spread_high")
	}
	switch c.Storage.Backend {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("storage.backend must be sqlite, redis, or memory")
	}
	if c.Storage.Backend == "sqlite" && c.Storage.SQLitePath == "" {
		return fmt.Errorf("storage.sqlite_path is required for the sqlite backend")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
