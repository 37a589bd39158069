package secrets

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// gitleaksDetector wraps a detector built once from the gitleaks default
// config. The detector keeps internal state, so scans are serialized.
type gitleaksDetector struct {
	mu       sync.Mutex
	detector *detect.Detector
}

func newGitleaksDetector(allow []*regexp.Regexp) (*gitleaksDetector, error) {
	d, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks config: %w", err)
	}
	if len(allow) > 0 {
		applyAllowlist(&d.Config, allow)
	}
	return &gitleaksDetector{detector: d}, nil
}

func applyAllowlist(cfg *gitleaksConfig.Config, allow []*regexp.Regexp) {
	global := &gitleaksConfig.Allowlist{Description: "ragchat allowlist"}
	for _, re := range allow {
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	cfg.Allowlists = append(cfg.Allowlists, global)
}

// scan returns one redaction per occurrence of each reported secret.
// gitleaks reports line/column positions, so offsets are recovered by
// searching for the secret value.
func (g *gitleaksDetector) scan(content string) []redaction {
	g.mu.Lock()
	findings := g.detector.DetectString(content)
	g.mu.Unlock()

	var out []redaction
	seen := make(map[string]bool)
	for _, f := range findings {
		if f.Secret == "" || seen[f.Secret] {
			continue
		}
		seen[f.Secret] = true
		for offset := 0; ; {
			i := strings.Index(content[offset:], f.Secret)
			if i < 0 {
				break
			}
			start := offset + i
			out = append(out, redaction{
				start:       start,
				end:         start + len(f.Secret),
				ruleID:      f.RuleID,
				description: f.Description,
				severity:    "high",
			})
			offset = start + len(f.Secret)
		}
	}
	return out
}
