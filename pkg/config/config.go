// Package config loads the control plane's composition-root configuration:
// idempotency rules, setup throttle interval, deletion retry backoff, and
// tracing on/off. A YAML root struct, ${VAR} environment substitution via
// os.ExpandEnv, and a validate() pass after unmarshal.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is the root composition-root configuration.
type AppConfig struct {
	Idempotency IdempotencyConfig `yaml:"idempotency"`
	Setup       SetupConfig       `yaml:"setup"`
	Deletion    DeletionConfig    `yaml:"deletion"`
	Tracing     TracingConfig     `yaml:"tracing"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// IdempotencyConfig lists which intent types are suppression-governed.
type IdempotencyConfig struct {
	Rules []IdempotencyRuleConfig `yaml:"rules"`
}

// IdempotencyRuleConfig mirrors dispatch.IdempotencyRule's static shape —
// GetKey/IsForced are wired up in code; ResetOn is data.
type IdempotencyRuleConfig struct {
	IntentType string `yaml:"intent_type"`
	ResetOn    string `yaml:"reset_on"`
}

// SetupConfig holds the setup operation's progress-throttle setting.
type SetupConfig struct {
	// ProgressThrottle is the minimum interval between progress emissions
	// per row. It is loaded and checked to be non-negative, but the
	// composition root does not pass it to app:setup, whose throttle falls
	// back to 100ms when its payload leaves the interval unset.
	ProgressThrottle time.Duration `yaml:"progress_throttle"`
}

// DeletionConfig holds the deletion retry loop's re-detect backoff setting.
// DetectBackoff is loaded but not read by the deletion operation, whose
// retry loop waits only on the user's retry/dismiss choice.
type DeletionConfig struct {
	DetectBackoff time.Duration `yaml:"detect_backoff"`
}

// TracingConfig toggles the JSON dispatch-trace recorder.
type TracingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// LoggingConfig configures the file-backed logger.
type LoggingConfig struct {
	Path string `yaml:"path"`
}

func defaults() AppConfig {
	return AppConfig{
		Idempotency: IdempotencyConfig{
			Rules: []IdempotencyRuleConfig{
				// Mirrors deletion.IntentType / the workspace:deleted event: a
				// second identical delete while one is in flight is suppressed
				// until the first either completes or a force=true delete
				// bypasses it (see composition.idempotencyForcedFor).
				{IntentType: "workspace:delete", ResetOn: "workspace:deleted"},
			},
		},
		Setup: SetupConfig{
			ProgressThrottle: 100 * time.Millisecond,
		},
		Deletion: DeletionConfig{
			DetectBackoff: 0,
		},
		Tracing: TracingConfig{
			Enabled: false,
			Dir:     "traces",
		},
		Logging: LoggingConfig{
			Path: "controlplane.log",
		},
	}
}

// Load reads path, substitutes ${VAR} environment references, and parses
// the YAML into an AppConfig, then validates the result.
func Load(path string) (*AppConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// os.ExpandEnv replaces ${VAR} or $VAR with the value from the
	// environment.
	contentWithEnv := os.ExpandEnv(string(rawBytes))

	cfg := defaults()
	if err := yaml.Unmarshal([]byte(contentWithEnv), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *AppConfig) validate() error {
	seen := make(map[string]bool, len(c.Idempotency.Rules))
	for _, rule := range c.Idempotency.Rules {
		if rule.IntentType == "" {
			return fmt.Errorf("idempotency.rules: intent_type is required")
		}
		if seen[rule.IntentType] {
			return fmt.Errorf("idempotency.rules: duplicate intent_type %q", rule.IntentType)
		}
		seen[rule.IntentType] = true
	}
	if c.Setup.ProgressThrottle < 0 {
		return fmt.Errorf("setup.progress_throttle must not be negative")
	}
	return nil
}
