// Package secrets detects and redacts credentials in documents before they
// are chunked, embedded and stored.
//
// Two detectors run over the same content: a small set of regexp rules for
// the keys this application handles (OpenRouter, OpenAI, database URLs) and,
// when enabled, the gitleaks default ruleset. Matches are replaced with
// "[REDACTED:<rule-id>]" so the stored text still shows what was removed.
//
// Allowlist entries come from a gitleaks-style TOML file:
//
//	[allowlist]
//	regexes = ['''EXAMPLE_KEY''']
package secrets
