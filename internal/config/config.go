// Load envs from .env
// Load YAML config
// Validate config
// Provide default values

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go-ronin-automation/internal/logger"
	"go-ronin-automation/internal/models"
)

// Config is the full application configuration. Secrets come from the
// environment; everything else from the YAML file.
type Config struct {
	DatabaseURL    string `yaml:"database_url"`
	GroqAPIKey     string `yaml:"-"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID int64  `yaml:"telegram_chat_id"`

	Logging logger.Config `yaml:"logging"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Apply   ApplyConfig   `yaml:"apply"`

	Profile models.CandidateProfile `yaml:"profile"`
}

// ScrapeConfig drives posting discovery.
type ScrapeConfig struct {
	Keywords        []string `yaml:"keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords"`
	Location        string   `yaml:"location"`
	CookiesPath     string   `yaml:"cookies_path"`
	CachePath       string   `yaml:"cache_path"`
}

// ApplyConfig drives the submission orchestrator and the form driver.
type ApplyConfig struct {
	ScoreThreshold int           `yaml:"score_threshold"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RateLimit      time.Duration `yaml:"rate_limit"`
	FieldTimeout   time.Duration `yaml:"field_timeout"`
	PageTimeout    time.Duration `yaml:"page_timeout"`
	MaxPages       int           `yaml:"max_pages"`
	// RecoverAfter is the age at which a leftover IN_PROGRESS claim counts
	// as abandoned; keep it well above a full form traversal.
	RecoverAfter   time.Duration `yaml:"recover_after"`
	QuickApplyOnly bool          `yaml:"quick_apply_only"`
	// Order is a policy knob, not a correctness requirement:
	// oldest (default), newest, or score.
	Order string `yaml:"order"`
}

// Load reads the YAML file at path, overrides secrets from the environment
// and applies defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with env vars
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.DatabaseURL = url
	}
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.TelegramToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Scrape.CookiesPath == "" {
		c.Scrape.CookiesPath = ".cookies"
	}
	if c.Scrape.CachePath == "" {
		c.Scrape.CachePath = ".cache"
	}
	if c.Apply.ScoreThreshold == 0 {
		c.Apply.ScoreThreshold = 40
	}
	if c.Apply.MaxAttempts == 0 {
		c.Apply.MaxAttempts = 3
	}
	if c.Apply.RateLimit == 0 {
		c.Apply.RateLimit = 30 * time.Second
	}
	if c.Apply.FieldTimeout == 0 {
		c.Apply.FieldTimeout = 20 * time.Second
	}
	if c.Apply.PageTimeout == 0 {
		c.Apply.PageTimeout = 15 * time.Second
	}
	if c.Apply.MaxPages == 0 {
		c.Apply.MaxPages = 8
	}
	if c.Apply.RecoverAfter == 0 {
		c.Apply.RecoverAfter = 30 * time.Minute
	}
	if c.Apply.Order == "" {
		c.Apply.Order = "oldest"
	}
	if c.Profile.DefaultTag == "" {
		c.Profile.DefaultTag = "mixed"
	}
	if c.Profile.NoticePeriod == "" {
		c.Profile.NoticePeriod = "Immediately"
	}
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Apply.Order {
	case "oldest", "newest", "score":
	default:
		return fmt.Errorf("invalid apply.order %q (want oldest, newest or score)", c.Apply.Order)
	}
	if len(c.Profile.ResumeText) == 0 {
		return fmt.Errorf("profile.resume_text must define at least one resume variant")
	}
	if _, ok := c.Profile.ResumeText[c.Profile.DefaultTag]; !ok {
		return fmt.Errorf("profile.resume_text has no entry for default tag %q", c.Profile.DefaultTag)
	}
	return nil
}
