// Package config loads application configuration from environment variables
// and the GitHub Actions event payload.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration. It is resolved once at startup
// and passed explicitly to the services that need it.
type Config struct {
	GitHubToken  string
	APIURL       string // Empty for github.com.
	RepoFullName string // "owner/repo".
	Number       int    // Pull request or issue number; 0 when unresolved.
	IsPR         bool   // Number refers to a pull request.
	PageSize     int
	Greeting     string
	LockDBPath   string // Empty disables the advisory lock.
	LockTimeout  time.Duration
	LogLevel     slog.Level
}

// HasTarget reports whether an issue or pull request to comment on was resolved.
func (c *Config) HasTarget() bool {
	return c.RepoFullName != "" && c.Number > 0
}

// Load reads configuration from environment variables and returns a validated Config.
//
// The token comes from PRCOMMENT_GITHUB_TOKEN, falling back to GITHUB_TOKEN.
// The repository comes from GITHUB_REPOSITORY and the target number from the
// event payload at GITHUB_EVENT_PATH (pull_request takes priority over issue),
// unless PRCOMMENT_NUMBER is set. A missing token or target is not an error:
// the commands log a warning and skip the write.
//
// Optional variables with defaults: PRCOMMENT_PAGE_SIZE (100),
// PRCOMMENT_GREETING (empty, service default), PRCOMMENT_LOCK_DB (disabled),
// PRCOMMENT_LOCK_TIMEOUT (30s), PRCOMMENT_LOG_LEVEL (info).
func Load() (*Config, error) {
	token := os.Getenv("PRCOMMENT_GITHUB_TOKEN")
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}

	cfg := &Config{
		GitHubToken:  token,
		APIURL:       os.Getenv("GITHUB_API_URL"),
		RepoFullName: os.Getenv("GITHUB_REPOSITORY"),
		PageSize:     100,
		Greeting:     os.Getenv("PRCOMMENT_GREETING"),
		LockDBPath:   os.Getenv("PRCOMMENT_LOCK_DB"),
		LockTimeout:  30 * time.Second,
		LogLevel:     slog.LevelInfo,
	}

	if path, ok := os.LookupEnv("GITHUB_EVENT_PATH"); ok && path != "" {
		number, isPR, err := readEventTarget(path)
		if err != nil {
			slog.Warn("could not read event payload", "path", path, "error", err)
		}
		cfg.Number, cfg.IsPR = number, isPR
	}

	if v, ok := os.LookupEnv("PRCOMMENT_NUMBER"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("PRCOMMENT_NUMBER has invalid value %q", v)
		}
		cfg.Number = n
	}

	if v, ok := os.LookupEnv("PRCOMMENT_PAGE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return nil, fmt.Errorf("PRCOMMENT_PAGE_SIZE must be between 1 and 100, got %q", v)
		}
		cfg.PageSize = n
	}

	if v, ok := os.LookupEnv("PRCOMMENT_LOCK_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("PRCOMMENT_LOCK_TIMEOUT has invalid duration %q: %w", v, err)
		}
		cfg.LockTimeout = parsed
	}

	if v, ok := os.LookupEnv("PRCOMMENT_LOG_LEVEL"); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.TrimSpace(v))); err != nil {
			return nil, fmt.Errorf("PRCOMMENT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	return cfg, nil
}

// eventPayload is the subset of a GitHub Actions event we need.
type eventPayload struct {
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Issue *struct {
		Number int `json:"number"`
	} `json:"issue"`
}

// readEventTarget returns the pull request or issue number from the event
// payload file. Events with neither (push, schedule) yield 0.
func readEventTarget(path string) (number int, isPR bool, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("reading event payload: %w", err)
	}

	var event eventPayload
	if err := json.Unmarshal(raw, &event); err != nil {
		return 0, false, fmt.Errorf("parsing event payload: %w", err)
	}

	switch {
	case event.PullRequest != nil && event.PullRequest.Number > 0:
		return event.PullRequest.Number, true, nil
	case event.Issue != nil && event.Issue.Number > 0:
		return event.Issue.Number, false, nil
	default:
		return 0, false, nil
	}
}
