// Package config loads the bot's runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// DefaultTemplateMapID is the spreadsheet holding review rubrics per template key.
const DefaultTemplateMapID = "1kepJ6yKQUxt4N8uRcVCOAz4Do5_PpU6AUqwsSS0ZNyw"

// Config is the process configuration.
type Config struct {
	SlackToken         string
	SlackSigningSecret string

	GoogleProjectID   string
	GoogleClientEmail string
	GooglePrivateKey  string

	OpenAIKey           string
	OpenAIModel         string
	CompletionRateLimit int // per minute, 0 = unlimited

	DefaultClientID      string
	TemplateMapID        string
	ReviewFetchDocuments bool

	Port    string
	DevMode bool
}

// DotEnvFile is read by Load and LoadLocal when it exists.
const DotEnvFile = ".env"

// Load reads the configuration. A .env file in the working directory is
// loaded first if present; variables already set in the environment win.
func Load() (Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}
	return FromEnv(os.Getenv)
}

// LoadLocal is Load for running commands from a terminal. It always runs in
// dev mode, so Slack settings aren't required.
func LoadLocal() (Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return Config{}, err
	}
	return FromEnv(func(key string) string {
		if key == "REVIEWBOT_DEV_MODE" {
			return "true"
		}
		return os.Getenv(key)
	})
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := Config{
		SlackToken:         get("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: get("SLACK_SIGNING_SECRET", ""),

		GoogleProjectID:   get("GOOGLE_PROJECT_ID", ""),
		GoogleClientEmail: get("GOOGLE_CLIENT_EMAIL", ""),
		// the key is multi-line once unescaped, don't trim it here
		GooglePrivateKey: getenv("GOOGLE_PRIVATE_KEY"),

		OpenAIKey:   get("OPENAI_API_KEY", ""),
		OpenAIModel: get("OPENAI_MODEL", ""),

		DefaultClientID: get("DEFAULT_CLIENT_ID", "client1"),
		TemplateMapID:   get("TEMPLATE_MAP_ID", DefaultTemplateMapID),
		Port:            get("PORT", "3000"),
	}

	var err error
	if cfg.DevMode, err = parseBool(getenv, "REVIEWBOT_DEV_MODE"); err != nil {
		return Config{}, err
	}
	if cfg.ReviewFetchDocuments, err = parseBool(getenv, "REVIEW_FETCH_DOCUMENTS"); err != nil {
		return Config{}, err
	}

	if v := get("COMPLETION_RATE_LIMIT", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, errors.Errorf("COMPLETION_RATE_LIMIT must be a non-negative integer, got %q", v)
		}
		cfg.CompletionRateLimit = n
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return Config{}, errors.Errorf("PORT must be numeric, got %q", cfg.Port)
	}

	if !cfg.DevMode {
		if cfg.SlackToken == "" {
			return Config{}, errors.New("slack token must be set in the SLACK_BOT_TOKEN environment variable")
		}
		if cfg.SlackSigningSecret == "" {
			return Config{}, errors.New("signing secret must be set in the SLACK_SIGNING_SECRET environment variable")
		}
	}

	return cfg, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return errors.Wrapf(err, "loading %s", path)
}

func parseBool(getenv func(string) string, key string) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "parsing %s", key)
	}
	return b, nil
}
