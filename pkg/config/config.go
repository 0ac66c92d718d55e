// Package config loads layered service settings: a YAML file per
// environment, overridden by prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config gives access to loaded settings.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
	IsSet(key string) bool
	SetDefault(key string, value interface{})
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string              { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int                    { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool                  { return c.v.GetBool(key) }
func (c *viperConfig) GetFloat64(key string) float64            { return c.v.GetFloat64(key) }
func (c *viperConfig) GetDuration(key string) time.Duration     { return c.v.GetDuration(key) }
func (c *viperConfig) GetStringSlice(key string) []string       { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool                    { return c.v.IsSet(key) }
func (c *viperConfig) SetDefault(key string, value interface{}) { c.v.SetDefault(key, value) }

const configDir = "configs"

// EnvPrefix turns a service name such as "customer-io" into CUSTOMERIO.
func EnvPrefix(serviceName string) string {
	return strings.ToUpper(strings.NewReplacer("-", "", "_", "").Replace(serviceName))
}

// Load reads configs/{APP_ENV}/{serviceName}.yaml, or the directory named by
// CONFIG_PATH, falling back to configs/example. A missing file is not an
// error when allowMissing is set; defaults and environment still apply.
func Load(serviceName string, allowMissing bool) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(serviceName)

	v.SetEnvPrefix(EnvPrefix(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = filepath.Join(configDir, env)
	}
	v.AddConfigPath(configPath)
	v.AddConfigPath(filepath.Join(configDir, "example"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !allowMissing || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to load config for %s: %w", serviceName, err)
		}
	}

	return &viperConfig{v: v}, nil
}
