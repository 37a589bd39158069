package secrets

import (
	"fmt"
	"regexp"

	"github.com/fyrsmithlabs/ragchat/internal/config"
)

// Config configures the scrubber.
type Config struct {
	Enabled bool `koanf:"enabled"`

	// Rules are the regexp rules checked on every document.
	Rules []Rule `koanf:"rules"`

	// AllowList holds patterns whose matches are never redacted.
	AllowList []string `koanf:"allow_list"`

	// Gitleaks adds the gitleaks default ruleset on top of Rules.
	Gitleaks bool `koanf:"gitleaks"`

	compiledRules     []*compiledRule
	compiledAllowList []*regexp.Regexp
}

// Rule defines a secret detection rule.
type Rule struct {
	ID          string `koanf:"id"`
	Description string `koanf:"description"`
	Pattern     string `koanf:"pattern"`
	// Keywords must appear somewhere in the content for the rule to run.
	Keywords []string `koanf:"keywords"`
	Severity string   `koanf:"severity"`
}

type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

// DefaultConfig enables the built-in rules and gitleaks.
func DefaultConfig() *Config {
	return &Config{
		Enabled:  true,
		Rules:    DefaultRules(),
		Gitleaks: true,
	}
}

// FromIngestConfig builds a scrubber config from the ingest section, merging
// the allowlist file when one is configured.
func FromIngestConfig(ic config.IngestConfig) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Enabled = ic.ScrubSecrets
	if ic.AllowlistPath != "" {
		allow, err := LoadAllowlist(ic.AllowlistPath)
		if err != nil {
			return nil, err
		}
		cfg.AllowList = append(cfg.AllowList, allow.Regexes...)
	}
	return cfg, nil
}

// Validate compiles rules and allowlist patterns.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	c.compiledRules = make([]*compiledRule, 0, len(c.Rules))
	for i, rule := range c.Rules {
		if rule.ID == "" {
			return fmt.Errorf("%w: rule %d: ID is required", ErrInvalidRule, i)
		}
		if rule.Pattern == "" {
			return fmt.Errorf("%w: rule %s: pattern is required", ErrInvalidRule, rule.ID)
		}
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return fmt.Errorf("%w: rule %s: %v", ErrInvalidRegex, rule.ID, err)
		}
		compiled := &compiledRule{Rule: rule, pattern: pattern}
		for _, kw := range rule.Keywords {
			compiled.keywords = append(compiled.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
		}
		c.compiledRules = append(c.compiledRules, compiled)
	}

	c.compiledAllowList = make([]*regexp.Regexp, 0, len(c.AllowList))
	for i, pattern := range c.AllowList {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: allow_list %d: %v", ErrInvalidRegex, i, err)
		}
		c.compiledAllowList = append(c.compiledAllowList, re)
	}
	return nil
}
