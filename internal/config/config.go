// Package config loads server configuration from a file with environment
// overrides.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	DB struct {
		Path string
	} `mapstructure:"db"`

	Gemini struct {
		APIKey string `mapstructure:"api_key"`
	} `mapstructure:"gemini"`

	Auth struct {
		JWTSecret string `mapstructure:"jwt_secret"`
	} `mapstructure:"auth"`

	Square struct {
		SignatureKey    string `mapstructure:"signature_key"`
		NotificationURL string `mapstructure:"notification_url"`
	} `mapstructure:"square"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// Load reads the config file at path, or runs on defaults and environment
// alone when path is empty. ESTIMATOR_* environment variables override file
// values, e.g. ESTIMATOR_GEMINI_API_KEY for gemini.api_key.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ESTIMATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("db.path", "./data/estimator.db")
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("square.signature_key", "")
	v.SetDefault("square.notification_url", "")
	v.SetDefault("metrics.enabled", true)

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
