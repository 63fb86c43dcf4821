// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the three binaries need. Values come from an
// optional YAML file, then environment variables override field by field.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Site     SiteConfig     `yaml:"site"`
	Mailer   MailerConfig   `yaml:"mailer"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Tracking TrackingConfig `yaml:"tracking"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type SiteConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

type MailerConfig struct {
	// Type selects the transport: "smtp", "sendgrid" or "mock".
	Type           string        `yaml:"type"`
	FromName       string        `yaml:"from_name"`
	FromEmail      string        `yaml:"from_email"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	SMTPHost       string        `yaml:"smtp_host"`
	SMTPPort       int           `yaml:"smtp_port"`
	SMTPUser       string        `yaml:"smtp_user"`
	SMTPPassword   string        `yaml:"smtp_password"`
	SendGridAPIKey string        `yaml:"sendgrid_api_key"`
}

type DeliveryConfig struct {
	BatchSize        int           `yaml:"batch_size"`
	MaxAttempts      int           `yaml:"max_attempts"`
	Interval         time.Duration `yaml:"interval"`
	PromoterInterval time.Duration `yaml:"promoter_interval"`
}

type TrackingConfig struct {
	Secret       string `yaml:"secret"`
	EnableOpens  bool   `yaml:"enable_opens"`
	EnableClicks bool   `yaml:"enable_clicks"`
	AMQPURL      string `yaml:"amqp_url"`
}

// Load reads .env (if present), then the YAML file at path (if present),
// then applies environment overrides and defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	// Tracking defaults to on; a YAML key or env var turns it off.
	cfg := Config{Tracking: TrackingConfig{EnableOpens: true, EnableClicks: true}}
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Tracking.Secret == "" {
		return nil, fmt.Errorf("tracking secret is required (BSM_SECRET)")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.Server.Addr, "SERVER_ADDR")
	setStr(&c.Database.Host, "DB_HOST")
	setStr(&c.Database.Port, "DB_PORT")
	setStr(&c.Database.User, "DB_USER")
	setStr(&c.Database.Password, "DB_PASSWORD")
	setStr(&c.Database.Name, "DB_NAME")
	setStr(&c.Database.SSLMode, "DB_SSLMODE")
	setStr(&c.Site.Name, "SITE_NAME")
	setStr(&c.Site.BaseURL, "SITE_URL")
	setStr(&c.Mailer.Type, "MAILER_TYPE")
	setStr(&c.Mailer.FromName, "FROM_NAME")
	setStr(&c.Mailer.FromEmail, "FROM_EMAIL")
	setStr(&c.Mailer.SMTPHost, "SMTP_HOST")
	setInt(&c.Mailer.SMTPPort, "SMTP_PORT")
	setStr(&c.Mailer.SMTPUser, "SMTP_USER")
	setStr(&c.Mailer.SMTPPassword, "SMTP_PASSWORD")
	setStr(&c.Mailer.SendGridAPIKey, "SENDGRID_API_KEY")
	setInt(&c.Delivery.BatchSize, "DELIVERY_BATCH_SIZE")
	setInt(&c.Delivery.MaxAttempts, "DELIVERY_MAX_ATTEMPTS")
	setDur(&c.Delivery.Interval, "DELIVERY_INTERVAL")
	setDur(&c.Delivery.PromoterInterval, "PROMOTER_INTERVAL")
	setStr(&c.Tracking.Secret, "BSM_SECRET")
	setBool(&c.Tracking.EnableOpens, "ENABLE_OPEN_TRACKING")
	setBool(&c.Tracking.EnableClicks, "ENABLE_CLICK_TRACKING")
	setStr(&c.Tracking.AMQPURL, "AMQP_URL")
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == "" {
		c.Database.Port = "5432"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = "http://localhost:8080"
	}
	if c.Mailer.Type == "" {
		c.Mailer.Type = "smtp"
	}
	if c.Mailer.SMTPPort == 0 {
		c.Mailer.SMTPPort = 587
	}
	if c.Mailer.SendTimeout == 0 {
		c.Mailer.SendTimeout = 30 * time.Second
	}
	if c.Delivery.BatchSize == 0 {
		c.Delivery.BatchSize = 20
	}
	if c.Delivery.MaxAttempts == 0 {
		c.Delivery.MaxAttempts = 3
	}
	if c.Delivery.Interval == 0 {
		c.Delivery.Interval = 5 * time.Minute
	}
	if c.Delivery.PromoterInterval == 0 {
		c.Delivery.PromoterInterval = 5 * time.Minute
	}
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDur(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
