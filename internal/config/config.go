package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mhmd-mcp/backend/internal/logging"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`

	Server struct {
		Addr        string   `mapstructure:"addr"`
		CORSOrigins []string `mapstructure:"cors_origins"`
	} `mapstructure:"server"`

	Dispatch struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"dispatch"`

	Store struct {
		Backend  string `mapstructure:"backend"` // "json" or "postgres"
		JSONPath string `mapstructure:"json_path"`
		DB       struct {
			Host     string `mapstructure:"host"`
			Port     int    `mapstructure:"port"`
			User     string `mapstructure:"user"`
			Password string `mapstructure:"password"`
			Name     string `mapstructure:"name"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"db"`
	} `mapstructure:"store"`

	Browser struct {
		Headless   bool          `mapstructure:"headless"`
		NavTimeout time.Duration `mapstructure:"nav_timeout"`
		BaseURL    string        `mapstructure:"base_url"`
	} `mapstructure:"browser"`

	LLM struct {
		Endpoint   string        `mapstructure:"endpoint"`
		APIKey     string        `mapstructure:"api_key"`
		Model      string        `mapstructure:"model"`
		Timeout    time.Duration `mapstructure:"timeout"`
		MaxElapsed time.Duration `mapstructure:"max_elapsed"`
	} `mapstructure:"llm"`

	Artifacts struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"artifacts"`

	Auth struct {
		Enable          bool   `mapstructure:"enable"`
		OktaDomain      string `mapstructure:"okta_domain"`
		ClientID        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		RedirectURL     string `mapstructure:"redirect_url"`
		SwaggerClientID string `mapstructure:"swagger_client_id"`
		DevModeBypass   bool   `mapstructure:"dev_mode_bypass"`
	} `mapstructure:"auth"`

	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`

	Logging logging.Config `mapstructure:"logging"`
}

// LoadConfig loads the configuration from a file and the environment.
// An empty path falls back to config.yaml in the working directory or ./config.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("MHMD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Auth.OktaDomain = normalizeIssuer(config.Auth.OktaDomain)

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "DEV")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("dispatch.timeout", 2*time.Minute)
	v.SetDefault("store.backend", "json")
	v.SetDefault("store.json_path", "user_data.json")
	v.SetDefault("store.db.port", 5432)
	v.SetDefault("store.db.sslmode", "disable")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.nav_timeout", 30*time.Second)
	v.SetDefault("browser.base_url", "http://localhost:3000")
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_elapsed", 2*time.Minute)
	v.SetDefault("artifacts.dir", "automation_results")
	v.SetDefault("auth.dev_mode_bypass", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// normalizeIssuer ensures the provided issuer string is in a predictable
// form. It removes any trailing slash and leaves the scheme and path intact,
// so users can paste the full URL from the Okta admin console.
func normalizeIssuer(input string) string {
	iss := strings.TrimSpace(input)
	if strings.HasSuffix(iss, "/") {
		iss = strings.TrimRight(iss, "/")
	}
	return iss
}
