package config

import (
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Timeplus TimeplusConfig `mapstructure:"timeplus"`
	Oref     OrefConfig     `mapstructure:"oref"`
	Alerting AlertingConfig `mapstructure:"alerting"`
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Port            string `mapstructure:"port"`
	AllowedOrigins  string `mapstructure:"allowedOrigins"`
	ShutdownTimeout int    `mapstructure:"shutdownTimeout"`
}

// DatabaseConfig holds the Postgres connection configuration backing the
// alert state store
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"maxConns"`
	MinConns int32  `mapstructure:"minConns"`
}

// TimeplusConfig holds the Timeplus connection configuration for the
// notification distribution stream
type TimeplusConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	Username  string `mapstructure:"username"`
	Workspace string `mapstructure:"workspace"`
	Stream    string `mapstructure:"stream"`
}

// OrefConfig holds the configuration for the public alert source
type OrefConfig struct {
	BaseURL       string `mapstructure:"baseUrl"`
	PollIntervalS int    `mapstructure:"pollIntervalS"`
}

// AlertingConfig holds the dedup and query tuning knobs
type AlertingConfig struct {
	CooldownS int `mapstructure:"cooldownS"` // re-alert window for the same (district, category) key
	PageSize  int `mapstructure:"pageSize"`
}

// LoadConfig loads the application configuration from file or environment variables
func LoadConfig(configPath string) (*Config, error) {
	var config Config

	// Set default values
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.allowedOrigins", "*")
	viper.SetDefault("server.shutdownTimeout", 10)
	viper.SetDefault("database.url", "postgres://localhost:5432/redalert?sslmode=disable")
	viper.SetDefault("database.maxConns", 10)
	viper.SetDefault("database.minConns", 2)
	viper.SetDefault("timeplus.stream", "red_alert_notifications")
	viper.SetDefault("oref.baseUrl", "https://www.oref.org.il")
	viper.SetDefault("oref.pollIntervalS", 10)
	viper.SetDefault("alerting.cooldownS", 120)
	viper.SetDefault("alerting.pageSize", 100)

	// Allow environment variables to override config file
	viper.SetEnvPrefix("REDALERT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If config file is provided, read it
	if configPath != "" {
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			logrus.Warnf("Error reading config file: %v", err)
		}
	}

	// Unmarshal config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
