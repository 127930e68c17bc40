// Package config loads runtime settings from the environment, an optional
// .env file and an optional YAML site file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Port               string
	LogLevel           string
	UpstreamBaseURL    string
	InternalAuthToken  string
	UpstreamTimeout    time.Duration
	RedisURL           string
	SummaryURL         string // empty disables post summaries
	CacheBackend       string // "redis", "memory" or empty for auto
	TrustForwardedHost bool // origin guard prefers X-Forwarded-Host
	TrustProxy         bool // client IP and scheme from X-Forwarded-For/-Proto
	LinkColor          string
	FrameRPS           float64
	FrameBurst         int
	Site               SiteConfig
}

// SiteConfig is the YAML site file.
type SiteConfig struct {
	Name         string        `yaml:"name"`
	Description  string        `yaml:"description"`
	BaseURL      string        `yaml:"base_url"`
	OriginalURL  string        `yaml:"original_url"`
	EmojiBaseURL string        `yaml:"emoji_base_url"`
	TitlePattern string        `yaml:"title_pattern"`
	AdSense      AdSenseConfig `yaml:"adsense"`
}

type AdSenseConfig struct {
	PublisherID string `yaml:"publisher_id"`
	AdSlot      string `yaml:"ad_slot"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:               "3000",
		LogLevel:           "info",
		UpstreamBaseURL:    "http://127.0.0.1:8081",
		UpstreamTimeout:    5 * time.Second,
		TrustForwardedHost: true,
		FrameRPS:           10,
		FrameBurst:         20,
		Site: SiteConfig{
			Name:        "Feed Mirror",
			Description: "干净、快速、可分享的动态镜像",
			OriginalURL: "https://www.coolapk.com/feed/%s",
		},
	}
}

// Load reads .env (if present), the site file named by SITE_CONFIG (default
// config/site.yaml, if present) and environment overrides, in that order.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not read .env", "error", err)
	}

	cfg := Defaults()

	path := envOr("SITE_CONFIG", "config/site.yaml")
	if err := loadSiteFile(path, &cfg.Site); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func loadSiteFile(path string, site *SiteConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("site config file not found, using defaults", "path", path)
			return nil
		}
		return fmt.Errorf("read site config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, site); err != nil {
		return fmt.Errorf("parse site config %s: %w", path, err)
	}
	slog.Info("loaded site configuration", "path", path, "name", site.Name)
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envOr("PORT", cfg.Port)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)
	cfg.UpstreamBaseURL = envOr("UPSTREAM_BASE_URL", cfg.UpstreamBaseURL)
	cfg.InternalAuthToken = envOr("INTERNAL_AUTH_TOKEN", cfg.InternalAuthToken)
	cfg.RedisURL = envOr("REDIS_URL", cfg.RedisURL)
	cfg.SummaryURL = envOr("SUMMARY_URL", cfg.SummaryURL)
	cfg.CacheBackend = strings.ToLower(envOr("CACHE_BACKEND", cfg.CacheBackend))
	cfg.LinkColor = envOr("LINK_COLOR", cfg.LinkColor)
	cfg.Site.AdSense.PublisherID = envOr("ADSENSE_PUBLISHER_ID", cfg.Site.AdSense.PublisherID)
	cfg.Site.AdSense.AdSlot = envOr("ADSENSE_AD_SLOT", cfg.Site.AdSense.AdSlot)

	envBool("TRUST_FORWARDED_HOST", &cfg.TrustForwardedHost)
	envBool("TRUST_PROXY", &cfg.TrustProxy)
	if v := os.Getenv("FRAME_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.FrameRPS = f
		} else {
			slog.Warn("invalid FRAME_RPS, ignoring", "value", v)
		}
	}
	if v := os.Getenv("FRAME_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FrameBurst = n
		} else {
			slog.Warn("invalid FRAME_BURST, ignoring", "value", v)
		}
	}
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.CacheBackend {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be redis or memory, got %q", c.CacheBackend)
	}
	if c.CacheBackend == "redis" && c.RedisURL == "" {
		return errors.New("CACHE_BACKEND=redis requires REDIS_URL")
	}
	if c.Site.TitlePattern != "" {
		re, err := regexp.Compile(c.Site.TitlePattern)
		if err != nil {
			return fmt.Errorf("invalid title_pattern: %w", err)
		}
		if re.NumSubexp() < 2 {
			return errors.New("title_pattern needs two capture groups (title, body)")
		}
	}
	if c.Site.OriginalURL != "" && strings.Count(c.Site.OriginalURL, "%s") != 1 {
		return errors.New("original_url must contain exactly one %s")
	}
	return nil
}

// TitleRegexp returns the compiled title pattern, or nil for the default.
func (c Config) TitleRegexp() *regexp.Regexp {
	if c.Site.TitlePattern == "" {
		return nil
	}
	return regexp.MustCompile(c.Site.TitlePattern)
}

func envBool(key string, dst *bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean, ignoring", "key", key, "value", v)
		return
	}
	*dst = b
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
