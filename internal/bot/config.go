package bot

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken     string `env:"DISCORD_TOKEN,notEmpty"`
	DeveloperGuildID string `env:"DEVELOPER_GUILD_ID"`
	DeveloperUserID  string `env:"DEVELOPER_USER_ID"`

	DatabaseURL            string        `env:"DATABASE_URL"`
	DatabaseMaxConnections int32         `env:"DATABASE_MAX_CONNECTIONS" envDefault:"5"`
	DatabaseIdleTimeout    time.Duration `env:"DATABASE_IDLE_TIMEOUT" envDefault:"10s"`

	CommandPrefixes     []string      `env:"COMMAND_PREFIXES" envDefault:"!,?,." envSeparator:","`
	CooldownMaxAttempts int           `env:"COOLDOWN_MAX_ATTEMPTS" envDefault:"5"`
	CooldownWindow      time.Duration `env:"COOLDOWN_WINDOW" envDefault:"10s"`
	ExecuteTimeout      time.Duration `env:"EXECUTE_TIMEOUT" envDefault:"30s"`

	PluginDirs      []string `env:"PLUGIN_DIRS" envDefault:"plugins" envSeparator:","`
	LoadConcurrency int      `env:"LOAD_CONCURRENCY" envDefault:"8"`

	MetricsAddr string     `env:"METRICS_ADDR"`
	LogLevel    slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing or invalid.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	for name, id := range map[string]string{
		"DEVELOPER_GUILD_ID": c.DeveloperGuildID,
		"DEVELOPER_USER_ID":  c.DeveloperUserID,
	} {
		if id == "" {
			continue
		}
		if _, err := snowflake.Parse(id); err != nil {
			return fmt.Errorf("%s is not a valid snowflake: %w", name, err)
		}
	}

	if c.DatabaseMaxConnections < 1 || c.DatabaseMaxConnections > 20 {
		return fmt.Errorf("DATABASE_MAX_CONNECTIONS must be between 1 and 20, got %d", c.DatabaseMaxConnections)
	}
	if c.CooldownMaxAttempts < 1 {
		return fmt.Errorf("COOLDOWN_MAX_ATTEMPTS must be positive, got %d", c.CooldownMaxAttempts)
	}
	if c.CooldownWindow <= 0 || c.ExecuteTimeout <= 0 {
		return fmt.Errorf("COOLDOWN_WINDOW and EXECUTE_TIMEOUT must be positive")
	}

	prefixes := c.CommandPrefixes[:0]
	for _, p := range c.CommandPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	if len(prefixes) == 0 {
		return fmt.Errorf("COMMAND_PREFIXES must contain at least one prefix")
	}
	c.CommandPrefixes = prefixes

	return nil
}
