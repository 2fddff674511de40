// Package config handles loading and merging of assignwatch configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	DefaultFormat string `yaml:"default_format,omitempty"`
	DefaultRepo   string `yaml:"default_repo,omitempty"` // owner/name

	// Top-level config sections
	Policy  *PolicyOverrides  `yaml:"policy,omitempty"`
	Scoring *ScoringOverrides `yaml:"scoring,omitempty"`
}

// PolicyOverrides allows customizing the fixed dashboard policy.
type PolicyOverrides struct {
	ClaimRiskThreshold  *int `yaml:"claim_risk_threshold,omitempty"`
	StaleDays           *int `yaml:"stale_days,omitempty"`
	DormantDays         *int `yaml:"dormant_days,omitempty"`
	RecentDays          *int `yaml:"recent_days,omitempty"`
	ConsistentCloseDays *int `yaml:"consistent_close_days,omitempty"`
	NewHistoryMax       *int `yaml:"new_history_max,omitempty"`
}

// ScoringOverrides - reliability and completion probability modifiers
type ScoringOverrides struct {
	ReliabilityBase     *int `yaml:"reliability_base,omitempty"`
	ClosedIssueBonus    *int `yaml:"closed_issue_bonus,omitempty"`
	ClosedIssueMaxBonus *int `yaml:"closed_issue_max_bonus,omitempty"`
	FastCloseBonus      *int `yaml:"fast_close_bonus,omitempty"`
	SlowClosePenalty    *int `yaml:"slow_close_penalty,omitempty"`
	BacklogPenaltyPer   *int `yaml:"backlog_penalty_per,omitempty"`
	BacklogPenaltyMax   *int `yaml:"backlog_penalty_max,omitempty"`
	RecentActivityBonus *int `yaml:"recent_activity_bonus,omitempty"`
	DormantPenalty      *int `yaml:"dormant_penalty,omitempty"`

	ProbabilityBase      *int `yaml:"probability_base,omitempty"`
	LoadPenaltyPerIssue  *int `yaml:"load_penalty_per_issue,omitempty"`
	LoadPenaltyMax       *int `yaml:"load_penalty_max,omitempty"`
	FastCloseProbBonus   *int `yaml:"fast_close_prob_bonus,omitempty"`
	SteadyCloseProbBonus *int `yaml:"steady_close_prob_bonus,omitempty"`
	SlowCloseProbPenalty *int `yaml:"slow_close_prob_penalty,omitempty"`
	OverduePenaltyPer    *int `yaml:"overdue_penalty_per,omitempty"`
	OverduePenaltyMax    *int `yaml:"overdue_penalty_max,omitempty"`
	HotIssuePenalty      *int `yaml:"hot_issue_penalty,omitempty"`
	HotIssueThreshold    *int `yaml:"hot_issue_threshold,omitempty"`
	StarterLabelBonus    *int `yaml:"starter_label_bonus,omitempty"`
}

// Policy holds the fixed thresholds the dashboard applies. The values are
// named constants rather than hard-coded control flow so they can be tuned
// without touching logic.
type Policy struct {
	// ClaimRiskThreshold is the reliability score below which a claim
	// comment is tagged as a likely non-delivery.
	ClaimRiskThreshold int

	// StaleDays is the quiet period after which an open, non-PR-linked
	// issue is considered stale.
	StaleDays int

	// DormantDays is the inactivity window after which a contributor's
	// pattern is dormant.
	DormantDays int

	// RecentDays is the window within which activity counts as recent.
	RecentDays int

	// ConsistentCloseDays is the maximum average close time for the
	// consistent pattern.
	ConsistentCloseDays int

	// NewHistoryMax is the event count at or below which a contributor
	// with recent history is still considered new.
	NewHistoryMax int
}

// StaleAfter returns the staleness quiet period as a duration.
func (p Policy) StaleAfter() time.Duration {
	return time.Duration(p.StaleDays) * 24 * time.Hour
}

// Weights defines the complete set of scoring weights.
type Weights struct {
	// Reliability score
	ReliabilityBase     int
	ClosedIssueBonus    int
	ClosedIssueMaxBonus int
	FastCloseBonus      int
	SlowClosePenalty    int
	BacklogPenaltyPer   int
	BacklogPenaltyMax   int
	RecentActivityBonus int
	DormantPenalty      int

	// Close-speed buckets shared by both scorers
	FastCloseDays int
	SlowCloseDays int

	// Completion probability
	ProbabilityBase      int
	LoadPenaltyPerIssue  int
	LoadPenaltyMax       int
	FastCloseProbBonus   int
	SteadyCloseProbBonus int
	SlowCloseProbPenalty int
	OverduePenaltyPer    int // per multiple of the assignee's average close time
	OverduePenaltyMax    int
	HotIssuePenalty      int
	HotIssueThreshold    int
	StarterLabelBonus    int
}

// DefaultPolicy returns the default policy thresholds.
func DefaultPolicy() Policy {
	return Policy{
		ClaimRiskThreshold:  45,
		StaleDays:           7,
		DormantDays:         60,
		RecentDays:          7,
		ConsistentCloseDays: 7,
		NewHistoryMax:       2,
	}
}

// DefaultWeights returns the default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		ReliabilityBase:     50,
		ClosedIssueBonus:    3,
		ClosedIssueMaxBonus: 25,
		FastCloseBonus:      15,
		SlowClosePenalty:    -15,
		BacklogPenaltyPer:   5,
		BacklogPenaltyMax:   25,
		RecentActivityBonus: 10,
		DormantPenalty:      -20,

		FastCloseDays: 3,
		SlowCloseDays: 14,

		ProbabilityBase:      50,
		LoadPenaltyPerIssue:  6,
		LoadPenaltyMax:       30,
		FastCloseProbBonus:   20,
		SteadyCloseProbBonus: 10,
		SlowCloseProbPenalty: -10,
		OverduePenaltyPer:    8,
		OverduePenaltyMax:    24,
		HotIssuePenalty:      -5,
		HotIssueThreshold:    10,
		StarterLabelBonus:    5,
	}
}

// GetPolicy returns the policy with user overrides merged over defaults.
func (c *Config) GetPolicy() Policy {
	policy := DefaultPolicy()

	if c.Policy != nil {
		p := c.Policy
		if p.ClaimRiskThreshold != nil {
			policy.ClaimRiskThreshold = *p.ClaimRiskThreshold
		}
		if p.StaleDays != nil {
			policy.StaleDays = *p.StaleDays
		}
		if p.DormantDays != nil {
			policy.DormantDays = *p.DormantDays
		}
		if p.RecentDays != nil {
			policy.RecentDays = *p.RecentDays
		}
		if p.ConsistentCloseDays != nil {
			policy.ConsistentCloseDays = *p.ConsistentCloseDays
		}
		if p.NewHistoryMax != nil {
			policy.NewHistoryMax = *p.NewHistoryMax
		}
	}

	return policy
}

// GetWeights returns the scoring weights with user overrides merged over defaults.
func (c *Config) GetWeights() Weights {
	weights := DefaultWeights()

	if c.Scoring != nil {
		s := c.Scoring
		if s.ReliabilityBase != nil {
			weights.ReliabilityBase = *s.ReliabilityBase
		}
		if s.ClosedIssueBonus != nil {
			weights.ClosedIssueBonus = *s.ClosedIssueBonus
		}
		if s.ClosedIssueMaxBonus != nil {
			weights.ClosedIssueMaxBonus = *s.ClosedIssueMaxBonus
		}
		if s.FastCloseBonus != nil {
			weights.FastCloseBonus = *s.FastCloseBonus
		}
		if s.SlowClosePenalty != nil {
			weights.SlowClosePenalty = *s.SlowClosePenalty
		}
		if s.BacklogPenaltyPer != nil {
			weights.BacklogPenaltyPer = *s.BacklogPenaltyPer
		}
		if s.BacklogPenaltyMax != nil {
			weights.BacklogPenaltyMax = *s.BacklogPenaltyMax
		}
		if s.RecentActivityBonus != nil {
			weights.RecentActivityBonus = *s.RecentActivityBonus
		}
		if s.DormantPenalty != nil {
			weights.DormantPenalty = *s.DormantPenalty
		}
		if s.ProbabilityBase != nil {
			weights.ProbabilityBase = *s.ProbabilityBase
		}
		if s.LoadPenaltyPerIssue != nil {
			weights.LoadPenaltyPerIssue = *s.LoadPenaltyPerIssue
		}
		if s.LoadPenaltyMax != nil {
			weights.LoadPenaltyMax = *s.LoadPenaltyMax
		}
		if s.FastCloseProbBonus != nil {
			weights.FastCloseProbBonus = *s.FastCloseProbBonus
		}
		if s.SteadyCloseProbBonus != nil {
			weights.SteadyCloseProbBonus = *s.SteadyCloseProbBonus
		}
		if s.SlowCloseProbPenalty != nil {
			weights.SlowCloseProbPenalty = *s.SlowCloseProbPenalty
		}
		if s.OverduePenaltyPer != nil {
			weights.OverduePenaltyPer = *s.OverduePenaltyPer
		}
		if s.OverduePenaltyMax != nil {
			weights.OverduePenaltyMax = *s.OverduePenaltyMax
		}
		if s.HotIssuePenalty != nil {
			weights.HotIssuePenalty = *s.HotIssuePenalty
		}
		if s.HotIssueThreshold != nil {
			weights.HotIssueThreshold = *s.HotIssueThreshold
		}
		if s.StarterLabelBonus != nil {
			weights.StarterLabelBonus = *s.StarterLabelBonus
		}
	}

	return weights
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".assignwatch"
	}
	return filepath.Join(configDir, "assignwatch")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".assignwatch.yaml"
}

// Load loads the configuration from disk.
// It first loads the global config from the XDG config directory, then merges
// any local .assignwatch.yaml config on top (local values take precedence).
func Load() (*Config, error) {
	cfg := &Config{
		DefaultFormat: "table",
	}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "table"
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	result := &Config{}

	if local.DefaultFormat != "" {
		result.DefaultFormat = local.DefaultFormat
	} else {
		result.DefaultFormat = global.DefaultFormat
	}

	if local.DefaultRepo != "" {
		result.DefaultRepo = local.DefaultRepo
	} else {
		result.DefaultRepo = global.DefaultRepo
	}

	result.Policy = mergePolicyOverrides(global.Policy, local.Policy)
	result.Scoring = mergeScoringOverrides(global.Scoring, local.Scoring)

	return result
}

func mergePolicyOverrides(global, local *PolicyOverrides) *PolicyOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	result := *global
	if local.ClaimRiskThreshold != nil {
		result.ClaimRiskThreshold = local.ClaimRiskThreshold
	}
	if local.StaleDays != nil {
		result.StaleDays = local.StaleDays
	}
	if local.DormantDays != nil {
		result.DormantDays = local.DormantDays
	}
	if local.RecentDays != nil {
		result.RecentDays = local.RecentDays
	}
	if local.ConsistentCloseDays != nil {
		result.ConsistentCloseDays = local.ConsistentCloseDays
	}
	if local.NewHistoryMax != nil {
		result.NewHistoryMax = local.NewHistoryMax
	}
	return &result
}

func mergeScoringOverrides(global, local *ScoringOverrides) *ScoringOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	result := *global
	if local.ReliabilityBase != nil {
		result.ReliabilityBase = local.ReliabilityBase
	}
	if local.ClosedIssueBonus != nil {
		result.ClosedIssueBonus = local.ClosedIssueBonus
	}
	if local.ClosedIssueMaxBonus != nil {
		result.ClosedIssueMaxBonus = local.ClosedIssueMaxBonus
	}
	if local.FastCloseBonus != nil {
		result.FastCloseBonus = local.FastCloseBonus
	}
	if local.SlowClosePenalty != nil {
		result.SlowClosePenalty = local.SlowClosePenalty
	}
	if local.BacklogPenaltyPer != nil {
		result.BacklogPenaltyPer = local.BacklogPenaltyPer
	}
	if local.BacklogPenaltyMax != nil {
		result.BacklogPenaltyMax = local.BacklogPenaltyMax
	}
	if local.RecentActivityBonus != nil {
		result.RecentActivityBonus = local.RecentActivityBonus
	}
	if local.DormantPenalty != nil {
		result.DormantPenalty = local.DormantPenalty
	}
	if local.ProbabilityBase != nil {
		result.ProbabilityBase = local.ProbabilityBase
	}
	if local.LoadPenaltyPerIssue != nil {
		result.LoadPenaltyPerIssue = local.LoadPenaltyPerIssue
	}
	if local.LoadPenaltyMax != nil {
		result.LoadPenaltyMax = local.LoadPenaltyMax
	}
	if local.FastCloseProbBonus != nil {
		result.FastCloseProbBonus = local.FastCloseProbBonus
	}
	if local.SteadyCloseProbBonus != nil {
		result.SteadyCloseProbBonus = local.SteadyCloseProbBonus
	}
	if local.SlowCloseProbPenalty != nil {
		result.SlowCloseProbPenalty = local.SlowCloseProbPenalty
	}
	if local.OverduePenaltyPer != nil {
		result.OverduePenaltyPer = local.OverduePenaltyPer
	}
	if local.OverduePenaltyMax != nil {
		result.OverduePenaltyMax = local.OverduePenaltyMax
	}
	if local.HotIssuePenalty != nil {
		result.HotIssuePenalty = local.HotIssuePenalty
	}
	if local.HotIssueThreshold != nil {
		result.HotIssueThreshold = local.HotIssueThreshold
	}
	if local.StarterLabelBonus != nil {
		result.StarterLabelBonus = local.StarterLabelBonus
	}
	return &result
}
