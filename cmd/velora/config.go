package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type cliConfig struct {
	APIURL        string        `mapstructure:"api_url"`
	Token         string        `mapstructure:"token"`
	Name          string        `mapstructure:"name"`
	Email         string        `mapstructure:"email"`
	CartPath      string        `mapstructure:"cart_path"`
	PostalAPIURL  string        `mapstructure:"postal_api_url"`
	GeocodeAPIURL string        `mapstructure:"geocode_api_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func veloraDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".velora"
	}
	return filepath.Join(home, ".velora")
}

// loadConfig merges defaults, the YAML file at path (default
// ~/.velora/config.yaml) and VELORA_* environment variables, in that order.
// A missing file is not an error.
func loadConfig(path string) (*cliConfig, error) {
	v := viper.New()
	v.SetDefault("api_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("name", "")
	v.SetDefault("email", "")
	v.SetDefault("cart_path", filepath.Join(veloraDir(), "cart.db"))
	v.SetDefault("postal_api_url", "https://api.postalpincode.in")
	v.SetDefault("geocode_api_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("timeout", "10s")

	v.SetEnvPrefix("VELORA")
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = filepath.Join(veloraDir(), "config.yaml")
	}

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg cliConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}
