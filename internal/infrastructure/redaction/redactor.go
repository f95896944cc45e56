// Package redaction scrubs secrets out of recorded operation payloads
// before they reach an audit log or sink.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
)

// defaultPatterns contains regexes for common secrets, applied on top
// of the gitleaks detector.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Generic private key header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// GitHub token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Custom patterns to redact in addition to the defaults.
	Patterns []string
	// Property keys whose recorded values are always redacted whole,
	// regardless of content (e.g. "password", "apiKey").
	Keys []string
	// If true, replace with a correlatable hash instead of [REDACTED].
	HashMode bool
	// Salt for hashing. An unsalted hash is deterministic but weaker.
	Salt string
	// If true, skip the gitleaks detector and use only regex patterns.
	DisableGitleaks bool
}

// Redactor sanitizes recorded values. All fields are read-only after
// construction, making it safe for concurrent use.
type Redactor struct {
	patterns []*regexp.Regexp
	keys     map[string]bool
	hashMode bool
	salt     string

	// Gitleaks detector for secret detection. If nil, regex patterns
	// only.
	detector *detect.Detector
}

// New creates a new Redactor with the given configuration.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		keys:     make(map[string]bool, len(cfg.Keys)),
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}
	for _, k := range cfg.Keys {
		r.keys[k] = true
	}

	if !cfg.DisableGitleaks {
		// Detector init failure degrades to regex-only scrubbing.
		if detector, err := newGitleaksDetector(); err == nil {
			r.detector = detector
		}
	}

	for _, p := range append(append([]string{}, defaultPatterns...), cfg.Patterns...) {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile redaction pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector creates a detector from the bundled gitleaks
// default configuration.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// ScrubEntry returns a copy of the entry with its recorded payloads
// sanitized. The stored entry itself is never mutated.
func (r *Redactor) ScrubEntry(e auditlog.Entry) auditlog.Entry {
	if r.keys[e.PropertyKey] {
		if e.Value != nil {
			e.Value = r.replacement(fmt.Sprintf("%v", e.Value))
		}
		if e.Result != nil {
			e.Result = r.replacement(fmt.Sprintf("%v", e.Result))
		}
	} else {
		e.Value = r.ScrubValue(e.Value)
		e.Result = r.ScrubValue(e.Result)
	}

	if len(e.Args) > 0 {
		args := make([]any, len(e.Args))
		for i, a := range e.Args {
			args[i] = r.ScrubValue(a)
		}
		e.Args = args
	}
	e.Reason = r.ScrubString(e.Reason)
	e.ErrorMessage = r.ScrubString(e.ErrorMessage)
	return e
}

// ScrubValue recursively sanitizes strings inside maps and slices.
// Composite values are copied, not mutated in place.
func (r *Redactor) ScrubValue(v any) any {
	switch val := v.(type) {
	case string:
		return r.ScrubString(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, nested := range val {
			if r.keys[k] {
				out[k] = r.replacement(fmt.Sprintf("%v", nested))
				continue
			}
			out[k] = r.ScrubValue(nested)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, nested := range val {
			out[i] = r.ScrubValue(nested)
		}
		return out
	default:
		return v
	}
}

// ScrubString replaces sensitive patterns in a string, gitleaks
// findings first, then the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if input == "" {
		return ""
	}

	result := input
	if r.detector != nil {
		findings := r.detector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = re.ReplaceAllStringFunc(result, r.replacement)
	}
	return result
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return "[REDACTED]"
}

// hash returns a truncated HMAC-SHA256 of the secret, keyed with the
// configured salt. Truncated to 16 hex chars: enough to correlate the
// same secret across entries without disclosing it.
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(mac.Sum(nil))[:16])
}
