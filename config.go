package chronicle

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// SiteConfig holds all configuration for a chronicle site. It can be built
// in code or loaded from an environment-specific YAML file via LoadConfig,
// with every field overridable through environment variables.
type SiteConfig struct {
	Env         string `yaml:"env" env:"CHRONICLE_ENV" env-default:"dev"`
	Name        string `yaml:"name" env:"SITE_NAME"`                // Site name (default "Blog")
	URL         string `yaml:"url" env:"SITE_URL"`                  // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description" env:"SITE_DESCRIPTION"`  // Site description for RSS and meta tags
	Author      string `yaml:"author" env:"SITE_AUTHOR"`            // Author name for JSON-LD

	Addr         string `yaml:"addr" env:"ADDR"`                   // Listen address (default ":3000")
	DatabasePath string `yaml:"database_path" env:"DATABASE_PATH"` // SQLite path (default "data/blog.db")

	BlogSlug  string `yaml:"blog_slug" env:"BLOG_SLUG"`   // Slug of the served blog index (default "blog")
	BlogTitle string `yaml:"blog_title" env:"BLOG_TITLE"` // Title used when the blog index is first created

	Debug        bool     `yaml:"debug" env:"DEBUG"`                 // Debug mode: verbose errors, console mail backend
	AllowedHosts []string `yaml:"allowed_hosts" env:"ALLOWED_HOSTS"` // Host header allowlist; empty means any

	AdminPassword string `yaml:"admin_password" env:"ADMIN_PASSWORD"` // Required: admin login password
	SecretKey     string `yaml:"secret_key" env:"SECRET_KEY"`         // Required: session encryption secret
	CookieSecure  bool   `yaml:"cookie_secure" env:"COOKIE_SECURE"`   // Set true for HTTPS

	Mail MailConfig `yaml:"mail"` // Outbound mail transport

	PostCacheTTL time.Duration `yaml:"post_cache_ttl" env:"POST_CACHE_TTL"` // Post cache TTL (default 5min)
}

// MailConfig selects the outbound mail transport. With no SMTP host (or in
// debug mode) messages go to the console backend instead of the network.
type MailConfig struct {
	From     string `yaml:"from" env:"MAIL_FROM"`
	SMTPHost string `yaml:"smtp_host" env:"MAIL_SMTP_HOST"`
	SMTPPort int    `yaml:"smtp_port" env:"MAIL_SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"smtp_user" env:"MAIL_SMTP_USER"`
	SMTPPass string `yaml:"smtp_pass" env:"MAIL_SMTP_PASS"`
}

func (c *SiteConfig) setDefaults() {
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/blog.db"
	}
	if c.BlogSlug == "" {
		c.BlogSlug = "blog"
	}
	if c.BlogTitle == "" {
		c.BlogTitle = c.Name
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// LoadConfig reads an environment-specific YAML config file, applying
// environment-variable overrides on top.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("chronicle: config file %s: %w", path, err)
	}
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, fmt.Errorf("chronicle: read config %s: %w", path, err)
	}
	cfg.setDefaults()
	return cfg, nil
}

// MustLoadConfig is LoadConfig that exits the process on error, for use in
// scaffolded main.go files.
func MustLoadConfig(path string) SiteConfig {
	cfg, err := LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithMailer replaces the outbound mail sender, mainly for tests.
func WithMailer(m *Mailer) Option {
	return func(a *App) {
		a.mailer = m
	}
}
