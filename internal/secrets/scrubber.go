package secrets

import (
	"sort"
	"strings"
	"time"
)

// Scrubber detects and redacts secrets from content.
type Scrubber interface {
	// Scrub returns content with every finding replaced by a marker.
	Scrub(content string) *Result
	IsEnabled() bool
}

type scrubber struct {
	config   *Config
	gitleaks *gitleaksDetector
}

type redaction struct {
	start, end  int
	ruleID      string
	description string
	severity    string
}

// Marker is the replacement text for a secret found by rule ruleID.
func Marker(ruleID string) string {
	return "[REDACTED:" + ruleID + "]"
}

// New creates a Scrubber. A nil config means DefaultConfig.
func New(cfg *Config) (Scrubber, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &scrubber{config: cfg}
	if cfg.Enabled && cfg.Gitleaks {
		g, err := newGitleaksDetector(cfg.compiledAllowList)
		if err != nil {
			return nil, err
		}
		s.gitleaks = g
	}
	return s, nil
}

func (s *scrubber) IsEnabled() bool {
	return s.config.Enabled
}

func (s *scrubber) Scrub(content string) *Result {
	start := time.Now()
	result := &Result{Scrubbed: content, ByRule: make(map[string]int)}
	if !s.config.Enabled || content == "" {
		result.Duration = time.Since(start)
		return result
	}

	var found []redaction
	for _, rule := range s.config.compiledRules {
		if !rule.applies(content) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringIndex(content, -1) {
			found = append(found, redaction{
				start:       m[0],
				end:         m[1],
				ruleID:      rule.ID,
				description: rule.Description,
				severity:    rule.Severity,
			})
		}
	}
	if s.gitleaks != nil {
		found = append(found, s.gitleaks.scan(content)...)
	}

	kept := found[:0]
	for _, r := range found {
		if !s.isAllowed(content[r.start:r.end]) {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		result.Duration = time.Since(start)
		return result
	}

	merged := mergeRedactions(kept)
	for _, r := range merged {
		result.Findings = append(result.Findings, Finding{
			RuleID:      r.ruleID,
			Description: r.description,
			Severity:    r.severity,
			Line:        strings.Count(content[:r.start], "\n") + 1,
			StartIndex:  r.start,
			EndIndex:    r.end,
		})
		result.ByRule[r.ruleID]++
	}

	var b strings.Builder
	last := 0
	for _, r := range merged {
		b.WriteString(content[last:r.start])
		b.WriteString(Marker(r.ruleID))
		last = r.end
	}
	b.WriteString(content[last:])
	result.Scrubbed = b.String()
	result.Duration = time.Since(start)
	return result
}

func (r *compiledRule) applies(content string) bool {
	if len(r.keywords) == 0 {
		return true
	}
	for _, kw := range r.keywords {
		if kw.MatchString(content) {
			return true
		}
	}
	return false
}

func (s *scrubber) isAllowed(match string) bool {
	for _, re := range s.config.compiledAllowList {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}

// mergeRedactions sorts by start and folds overlapping ranges into the
// earliest one. The widest rule at a position wins its ID.
func mergeRedactions(rs []redaction) []redaction {
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].start != rs[j].start {
			return rs[i].start < rs[j].start
		}
		return rs[i].end > rs[j].end
	})
	merged := []redaction{rs[0]}
	for _, cur := range rs[1:] {
		last := &merged[len(merged)-1]
		if cur.start < last.end {
			if cur.end > last.end {
				last.end = cur.end
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

// NoopScrubber returns content unchanged.
type NoopScrubber struct{}

func (NoopScrubber) Scrub(content string) *Result {
	return &Result{Scrubbed: content, ByRule: map[string]int{}}
}

func (NoopScrubber) IsEnabled() bool { return false }

var (
	_ Scrubber = (*scrubber)(nil)
	_ Scrubber = NoopScrubber{}
)
