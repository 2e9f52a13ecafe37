// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads configuration from config.yaml and environment variables.
//
// Every outbound integration is independently optional: an empty credential
// disables that one channel and nothing else. The whole surface is resolved
// once at startup and handed to the pipeline as a plain struct — nothing
// re-reads the environment per request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultImageHostURL is the ImgBB upload endpoint.
	DefaultImageHostURL = "https://api.imgbb.com/1/upload"

	// DefaultEmailRelayURL is the Resend API base.
	DefaultEmailRelayURL = "https://api.resend.com"

	// defaultFromEmail is the Resend sandbox sender, usable without a
	// verified domain.
	defaultFromEmail = "onboarding@resend.dev"
)

// OAuth holds client-credentials settings for a protected data sink.
type OAuth struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Enabled reports whether enough of the block is set to build a token source.
func (o OAuth) Enabled() bool {
	return o.TokenURL != "" && o.ClientID != "" && o.ClientSecret != ""
}

// Config holds all configuration for the lead relay service.
type Config struct {
	Port int

	// Primary channel — transactional email relay
	EmailRelayURL  string
	ResendAPIKey   string
	FromEmail      string
	RecipientEmail string

	// Secondary channel — spreadsheet/data-sink webhook
	SheetsWebhookURL string
	SheetsOAuth      OAuth

	// Image host
	ImageHostURL  string
	ImgBBAPIKey   string
	MaxImages     int
	MaxImageBytes int64
	UploadQuota   int // uploads per hour, 0 = unlimited

	// Optional infrastructure
	DatabaseURL string // Postgres lead archive
	RedisURL    string // upload quota counter
	LeadsDir    string // local JSONL archive, writable-filesystem deployments only

	DashboardBaseURL string
	FallbackPhone    string

	UploadTimeout   time.Duration
	DeliveryTimeout time.Duration
}

// rawConfig mirrors the YAML structure for unmarshalling.
type rawConfig struct {
	Email struct {
		RelayURL  string `yaml:"relay_url"`
		APIKey    string `yaml:"api_key"`
		From      string `yaml:"from"`
		Recipient string `yaml:"recipient"`
	} `yaml:"email"`
	Sheets struct {
		WebhookURL string `yaml:"webhook_url"`
		OAuth      OAuth  `yaml:"oauth"`
	} `yaml:"sheets"`
	Images struct {
		HostURL  string `yaml:"host_url"`
		APIKey   string `yaml:"api_key"`
		MaxCount int    `yaml:"max_count"`
		MaxBytes int64  `yaml:"max_bytes"`
		Quota    int    `yaml:"quota_per_hour"`
	} `yaml:"images"`
	DatabaseURL      string `yaml:"database_url"`
	RedisURL         string `yaml:"redis_url"`
	LeadsDir         string `yaml:"leads_dir"`
	DashboardBaseURL string `yaml:"dashboard_base_url"`
	FallbackPhone    string `yaml:"fallback_phone"`
}

// Load reads configuration from config.yaml (with env var expansion) and
// environment variables. A missing config file is not an error — the service
// runs fine from environment variables alone, and with nothing configured it
// still accepts submissions (they just fail delivery and tell the caller to
// phone in).
func Load() (*Config, error) {
	configPath := envOrDefault("CONFIG_PATH", "config.yaml")

	var raw rawConfig
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		// Expand ${VAR} references in the YAML
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
			return nil, fmt.Errorf("parse config YAML %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// env-only mode
	default:
		return nil, fmt.Errorf("read config file %s: %w", configPath, err)
	}

	cfg := &Config{
		Port: envOrDefaultInt("PORT", 8080),

		EmailRelayURL:  firstNonEmpty(raw.Email.RelayURL, envOrDefault("EMAIL_RELAY_URL", DefaultEmailRelayURL)),
		ResendAPIKey:   firstNonEmpty(raw.Email.APIKey, os.Getenv("RESEND_API_KEY")),
		FromEmail:      firstNonEmpty(raw.Email.From, envOrDefault("FROM_EMAIL", defaultFromEmail)),
		RecipientEmail: firstNonEmpty(raw.Email.Recipient, os.Getenv("RECIPIENT_EMAIL")),

		SheetsWebhookURL: firstNonEmpty(raw.Sheets.WebhookURL, os.Getenv("SHEETS_WEBHOOK_URL")),
		SheetsOAuth:      raw.Sheets.OAuth,

		ImageHostURL: firstNonEmpty(raw.Images.HostURL, envOrDefault("IMAGE_HOST_URL", DefaultImageHostURL)),
		// IMGG_API_KEY is a legacy misspelling still present in some
		// deployment environments.
		ImgBBAPIKey:   firstNonEmpty(raw.Images.APIKey, os.Getenv("IMGBB_API_KEY"), os.Getenv("IMGG_API_KEY")),
		MaxImages:     firstPositive(raw.Images.MaxCount, envOrDefaultInt("MAX_IMAGES", 5)),
		MaxImageBytes: firstPositive64(raw.Images.MaxBytes, envOrDefaultInt64("MAX_IMAGE_BYTES", 10<<20)),
		UploadQuota:   firstPositive(raw.Images.Quota, envOrDefaultInt("UPLOAD_QUOTA", 0)),

		DatabaseURL: firstNonEmpty(raw.DatabaseURL, os.Getenv("DATABASE_URL")),
		RedisURL:    firstNonEmpty(raw.RedisURL, os.Getenv("REDIS_URL")),
		LeadsDir:    firstNonEmpty(raw.LeadsDir, os.Getenv("LEADS_DIR")),

		DashboardBaseURL: firstNonEmpty(raw.DashboardBaseURL, os.Getenv("DASHBOARD_BASE_URL")),
		FallbackPhone:    firstNonEmpty(raw.FallbackPhone, envOrDefault("FALLBACK_PHONE", "0176 32333561")),

		UploadTimeout:   envOrDefaultDuration("UPLOAD_TIMEOUT", 30*time.Second),
		DeliveryTimeout: envOrDefaultDuration("DELIVERY_TIMEOUT", 15*time.Second),
	}

	if cfg.SheetsOAuth.TokenURL == "" {
		cfg.SheetsOAuth = OAuth{
			TokenURL:     os.Getenv("SHEETS_OAUTH_TOKEN_URL"),
			ClientID:     os.Getenv("SHEETS_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("SHEETS_OAUTH_CLIENT_SECRET"),
		}
		if scopes := os.Getenv("SHEETS_OAUTH_SCOPES"); scopes != "" {
			cfg.SheetsOAuth.Scopes = strings.Fields(scopes)
		}
	}

	return cfg, nil
}

// EmailConfigured reports whether the primary channel can be attempted.
func (c *Config) EmailConfigured() bool {
	return c.ResendAPIKey != "" && c.RecipientEmail != ""
}

// SheetsConfigured reports whether the secondary channel can be attempted.
func (c *Config) SheetsConfigured() bool {
	return c.SheetsWebhookURL != ""
}

// UploadsConfigured reports whether image ingestion should run at all.
func (c *Config) UploadsConfigured() bool {
	return c.ImgBBAPIKey != ""
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envOrDefaultDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstPositive64(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
