// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/abhisek/calcbot/internal/llm"
)

// Config is the full process configuration.
type Config struct {
	TelegramToken string
	AdminUserIDs  []int64
	DBPath        string
	Quiz          QuizConfig
	LLM           llm.Config
	Log           LogConfig

	// MetricsAddr is the listen address of the /metrics endpoint. Empty
	// disables it.
	MetricsAddr string
}

// QuizConfig bounds quiz sizes and idle expiry.
type QuizConfig struct {
	MaxQuestions     int
	DefaultQuestions int
	IdleTimeout      time.Duration
	SweepInterval    time.Duration
}

type LogConfig struct {
	Mode  string
	Level string
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Quiz: QuizConfig{
			MaxQuestions:     30,
			DefaultQuestions: 3,
			IdleTimeout:      5 * time.Minute,
			SweepInterval:    time.Minute,
		},
		LLM: llm.DefaultConfig(),
		Log: LogConfig{Mode: "dev", Level: "info"},
	}
}

// Load reads the given .env files (".env" when none are named) into the
// process environment and builds a Config from it. Missing files are not
// an error. Variables already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from environment variables over the defaults.
func FromEnv() (Config, error) {
	cfg := Default()
	cfg.LLM = llm.ConfigFromEnv()

	var errs []error
	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.DBPath = os.Getenv("CALCBOT_DB")
	cfg.MetricsAddr = os.Getenv("CALCBOT_METRICS_ADDR")
	if v := os.Getenv("CALCBOT_LOG_MODE"); v != "" {
		cfg.Log.Mode = v
	}
	if v := os.Getenv("CALCBOT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	ids, err := ParseUserIDs(os.Getenv("ADMIN_USER_IDS"))
	if err != nil {
		errs = append(errs, fmt.Errorf("ADMIN_USER_IDS: %w", err))
	}
	cfg.AdminUserIDs = ids

	errs = append(errs,
		envInt(&cfg.Quiz.MaxQuestions, "CALCBOT_MAX_QUIZ_QUESTIONS"),
		envInt(&cfg.Quiz.DefaultQuestions, "CALCBOT_DEFAULT_QUIZ_QUESTIONS"),
		envDuration(&cfg.Quiz.IdleTimeout, "CALCBOT_QUIZ_IDLE_TIMEOUT"),
		envDuration(&cfg.Quiz.SweepInterval, "CALCBOT_SWEEP_INTERVAL"),
	)
	return cfg, errors.Join(errs...)
}

// ParseUserIDs parses a comma-separated list of numeric user ids.
func ParseUserIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func envInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

// IsAdmin reports whether userID is listed in AdminUserIDs.
func (c Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Validate checks quiz bounds and the LLM settings. The Telegram token is
// only checked when requireToken is set, since offline commands run
// without it.
func (c Config) Validate(requireToken bool) error {
	var errs []error
	if requireToken && c.TelegramToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.Quiz.MaxQuestions <= 0 {
		errs = append(errs, fmt.Errorf("max quiz questions must be positive, got %d", c.Quiz.MaxQuestions))
	}
	if c.Quiz.DefaultQuestions <= 0 || c.Quiz.DefaultQuestions > c.Quiz.MaxQuestions {
		errs = append(errs, fmt.Errorf("default quiz questions %d must be in [1, %d]", c.Quiz.DefaultQuestions, c.Quiz.MaxQuestions))
	}
	if c.Quiz.IdleTimeout <= 0 {
		errs = append(errs, errors.New("quiz idle timeout must be positive"))
	}
	if c.Quiz.SweepInterval <= 0 {
		errs = append(errs, errors.New("sweep interval must be positive"))
	}
	if err := c.LLM.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
