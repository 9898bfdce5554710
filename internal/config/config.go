package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Lewsiafat/TradeGuard/internal/domain"
)

// Config holds all configuration for the application.
type Config struct {
	Server    Server    `mapstructure:"server"`
	Database  Database  `mapstructure:"database"`
	Market    Market    `mapstructure:"market"`
	Gemini    Gemini    `mapstructure:"gemini"`
	Logger    Logger    `mapstructure:"logger"`
	Checklist Checklist `mapstructure:"checklist"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the state store.
type Database struct {
	Path string `mapstructure:"path"`
}

// Market holds the configuration for the market data stream.
type Market struct {
	WSURL string `mapstructure:"ws_url"`
}

// Gemini holds the AI analyzer credentials. The key is normally supplied via
// the GEMINI_API_KEY environment variable; a missing key is not fatal and
// degrades analysis to placeholder reports.
type Gemini struct {
	APIKey string `mapstructure:"api_key"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Checklist optionally points at a YAML file seeding the checklist template
// on first run.
type Checklist struct {
	File string `mapstructure:"file"`
}

// LoadConfig reads configuration from file or environment variables. A
// missing config file is fine: defaults apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.BindEnv("gemini.api_key", "GEMINI_API_KEY")

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "tradeguard.db")
	v.SetDefault("market.ws_url", "wss://stream.binance.com:9443/ws")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}

	err = v.Unmarshal(&config)
	return
}

// LoadChecklistSeed decodes a checklist template from a YAML file. An empty
// path returns nil, which means the built-in default template.
func LoadChecklistSeed(path string) ([]domain.ChecklistItem, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []domain.ChecklistItem
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&items); err != nil {
		return nil, err
	}
	return items, nil
}
