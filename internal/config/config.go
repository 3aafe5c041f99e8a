package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Get returns the environment variable for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SiteConfig describes the rendered site. It lives in an optional YAML file
// next to the ride list; absent file or fields fall back to defaults.
type SiteConfig struct {
	Title       string `yaml:"title" validate:"required"`
	Host        string `yaml:"host" validate:"required,url"`
	CNAME       string `yaml:"cname" validate:"omitempty,hostname"`
	Workers     int    `yaml:"workers" validate:"gte=0,lte=32"`
	FetchImages bool   `yaml:"fetchImages"`
}

func defaultSiteConfig() SiteConfig {
	return SiteConfig{
		Title:   "Loudoun Velo - Local Bike Routes",
		Host:    "https://ridewithgps.com",
		CNAME:   "loudounvelo.com",
		Workers: 0, // acquisition default
	}
}

// LoadSite reads and validates the site configuration. A missing file is
// not an error; defaults apply.
func LoadSite(path string) (SiteConfig, error) {
	cfg := defaultSiteConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("load site config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("load site config: parse %s: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("load site config: validate %s: %w", path, err)
	}

	return cfg, nil
}
