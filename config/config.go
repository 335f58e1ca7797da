package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig represents the application configuration
type AppConfig struct {
	Http struct {
		Port              string
		ReadHeaderTimeout time.Duration
		ShutdownTimeout   time.Duration
	}
	Backend   BackendConfig
	Site      SiteConfig
	Cors      CorsConfig
	Dashboard struct {
		StateTTL      time.Duration
		SweepInterval time.Duration
	}
	Logging struct {
		Level string // e.g., "debug", "info", "warn", "error"
	}
	Nats      NatsConfig
	Telemetry struct {
		ServiceName  string
		OtelEndpoint string
	}
}

type BackendConfig struct {
	BaseURL       string
	Timeout       time.Duration
	SessionCookie string
}

// SiteConfig holds the message strings injected into the pages.
type SiteConfig struct {
	Message          string
	AdminMessage     string
	DashboardMessage string
}

type CorsConfig struct {
	AllowedOrigins string
}

func (c CorsConfig) GetAllowedOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type NatsConfig struct {
	Enabled bool
	// Embedded starts an in-process server instead of dialing URL.
	Embedded     bool
	URL          string
	ServerName   string
	Port         int
	Subject      string
	StartTimeout time.Duration
}

//go:embed config.yaml
var configData []byte

// LoadConfig reads the embedded config.yaml, resolving ${ENV:default} values.
// A .env file in the working directory, if any, is loaded first.
func LoadConfig() (AppConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return AppConfig{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	return loadConfig(configData)
}

func loadConfig(data []byte) (AppConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read config data: %w", err)
	}

	for _, key := range v.AllKeys() {
		if s, ok := v.Get(key).(string); ok {
			v.Set(key, substituteEnvVars(s))
		}
	}

	var config AppConfig
	if err := v.Unmarshal(&config); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}

func validateConfig(config AppConfig) error {
	if config.Http.Port == "" {
		return fmt.Errorf("http port not defined")
	}

	u, err := url.Parse(config.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend base url %q: %w", config.Backend.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend base url %q must be an absolute http(s) url", config.Backend.BaseURL)
	}

	if config.Backend.SessionCookie == "" {
		return fmt.Errorf("backend session cookie name not defined")
	}
	if config.Dashboard.StateTTL <= 0 || config.Dashboard.SweepInterval <= 0 {
		return fmt.Errorf("dashboard state ttl and sweep interval must be positive")
	}
	if config.Nats.Enabled && !config.Nats.Embedded && config.Nats.URL == "" {
		return fmt.Errorf("nats is enabled but neither embedded nor url is set")
	}
	return nil
}

func substituteEnvVars(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		content := value[2 : len(value)-1]

		// First colon outside backticks separates the variable from its default.
		var colonPos int = -1
		inBackticks := false
		for i, char := range content {
			if char == '`' {
				inBackticks = !inBackticks
			} else if char == ':' && !inBackticks {
				colonPos = i
				break
			}
		}

		envVar := content
		defaultValue := ""
		if colonPos != -1 {
			envVar = content[:colonPos]
			defaultValue = content[colonPos+1:]
		}
		envVar = strings.ReplaceAll(envVar, "`", "")
		defaultValue = strings.ReplaceAll(defaultValue, "`", "")

		if envValue := os.Getenv(envVar); envValue != "" {
			return envValue
		}
		return defaultValue
	}
	return value
}
