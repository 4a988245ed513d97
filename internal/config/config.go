package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // Timezones must resolve in scratch containers.

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"dailypaper/internal/digest"
)

type Config struct {
	FreshRSSURL string `env:"FRESHRSS_URL,required,notEmpty"`
	APIUser     string `env:"API_USER,required,notEmpty"`
	APIPassword string `env:"API_PASSWORD,required,notEmpty"`

	CategoryIDs []int64       `env:"CATEGORY_IDS,required,notEmpty" envSeparator:","`
	FetchDays   int           `env:"FETCH_DAYS"                     envDefault:"1"`
	SkipRead    bool          `env:"SKIP_READ"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT"                   envDefault:"30s"`

	MaxImageWidthPx  int         `env:"MAX_IMAGE_WIDTH_PX" envDefault:"600"`
	MaxExcerptLength int         `env:"MAX_EXCERPT_LENGTH" envDefault:"300"`
	ExcerptMode      digest.Mode `env:"EXCERPT_MODE"       envDefault:"summary"`

	SMTPServer   string        `env:"SMTP_SERVER,required,notEmpty"`
	SMTPPort     int           `env:"SMTP_PORT"                     envDefault:"587"`
	SMTPUsername string        `env:"SMTP_USERNAME"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT"                  envDefault:"30s"`
	FromEmail    string        `env:"FROM_EMAIL,required,notEmpty"`
	ToEmail      []string      `env:"TO_EMAIL,required,notEmpty"    envSeparator:","`
	Subject      string        `env:"SUBJECT"                       envDefault:"Your Daily Paper"`

	Schedule   string        `env:"SCHEDULE"    envDefault:"0 7 * * *"`
	Timezone   string        `env:"TIMEZONE"    envDefault:"UTC"`
	RunTimeout time.Duration `env:"RUN_TIMEOUT" envDefault:"15m"`
	RunOnce    bool          `env:"RUN_ONCE"`
	SkipEmpty  bool          `env:"SKIP_EMPTY"`

	DBPath            string `env:"DB_PATH"`
	ResumeFromLastRun bool   `env:"RESUME_FROM_LAST_RUN"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

// LoadDotEnv loads .env files when present. Missing files are not an error.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env file: %w", err)
	}

	return nil
}

func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)

	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.FetchDays <= 0 {
		errs = append(errs, fmt.Errorf("FETCH_DAYS must be positive (got %d)", c.FetchDays))
	}

	if c.MaxImageWidthPx <= 0 {
		errs = append(errs, fmt.Errorf("MAX_IMAGE_WIDTH_PX must be positive (got %d)", c.MaxImageWidthPx))
	}

	if c.MaxExcerptLength < 0 {
		errs = append(errs, fmt.Errorf("MAX_EXCERPT_LENGTH must not be negative (got %d)", c.MaxExcerptLength))
	}

	if !c.ExcerptMode.Valid() {
		errs = append(errs, fmt.Errorf("EXCERPT_MODE must be %q or %q (got %q)",
			digest.ModeSummary, digest.ModeFull, c.ExcerptMode))
	}

	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("SMTP_PORT is out of range (got %d)", c.SMTPPort))
	}

	if c.HTTPTimeout <= 0 || c.SMTPTimeout <= 0 || c.RunTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT, SMTP_TIMEOUT and RUN_TIMEOUT must be positive"))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	if !c.RunOnce {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("parse SCHEDULE %q: %w", c.Schedule, err))
		}
	}

	if c.ResumeFromLastRun && strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("RESUME_FROM_LAST_RUN requires DB_PATH"))
	}

	return errors.Join(errs...)
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return nil, fmt.Errorf("load TIMEZONE %q: %w", c.Timezone, err)
	}

	return loc, nil
}
