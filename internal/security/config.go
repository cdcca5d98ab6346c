package security

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidProfile indicates an unknown security profile name.
var ErrInvalidProfile = errors.New("invalid security profile")

// Profile tunes how blocked content is reported. Attribute stripping is
// identical under every profile.
type Profile string

const (
	ProfileStrict Profile = "strict" // report everything, trust only allow-listed domains
	ProfileWarn   Profile = "warn"   // report everything, trust unless blocked
	ProfileExpert Profile = "expert" // debug logs only, trust unless blocked
	ProfileCustom Profile = "custom" // reporting follows ReportBlocked
)

// Log message and field names.
const (
	LogMsgAttributeBlocked = "blocked unsafe attribute"
	LogMsgURLUntrusted     = "blocked untrusted URL"
	LogFieldDirective      = "directive"
	LogFieldAttribute      = "attribute"
	LogFieldReason         = "reason"
	LogFieldLine           = "line"
	LogFieldURL            = "url"
)

// Config holds the security settings of a parser.
type Config struct {
	Profile        Profile  `yaml:"profile"`
	AllowedDomains []string `yaml:"allowedDomains"`
	BlockedDomains []string `yaml:"blockedDomains"`
	ReportBlocked  bool     `yaml:"reportBlocked"` // custom profile only
}

// DefaultConfig returns the warn profile with no domain lists.
func DefaultConfig() Config {
	return Config{Profile: ProfileWarn}
}

// Validate checks the profile name. An empty profile means warn.
func (c Config) Validate() error {
	switch c.Profile {
	case "", ProfileStrict, ProfileWarn, ProfileExpert, ProfileCustom:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be strict, warn, expert, or custom)", ErrInvalidProfile, c.Profile)
	}
}

func (c Config) profile() Profile {
	if c.Profile == "" {
		return ProfileWarn
	}
	return c.Profile
}

// Reports reports whether blocked content becomes a user-visible error.
func (c Config) Reports() bool {
	switch c.profile() {
	case ProfileExpert:
		return false
	case ProfileCustom:
		return c.ReportBlocked
	default:
		return true
	}
}

// LogLevel is the level used for blocked-content log entries.
func (c Config) LogLevel() zapcore.Level {
	switch c.profile() {
	case ProfileExpert:
		return zapcore.DebugLevel
	case ProfileCustom:
		if c.ReportBlocked {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// LogBlocked writes one entry per removed attribute.
func (c Config) LogBlocked(logger *zap.Logger, name string, line int, blocked []Blocked) {
	if logger == nil {
		return
	}
	level := c.LogLevel()
	for _, b := range blocked {
		if ce := logger.Check(level, LogMsgAttributeBlocked); ce != nil {
			ce.Write(
				zap.String(LogFieldDirective, name),
				zap.String(LogFieldAttribute, b.Key),
				zap.String(LogFieldReason, string(b.Reason)),
				zap.Int(LogFieldLine, line),
			)
		}
	}
}

// TrustsURL decides whether an external asset URL may be linked.
// Relative URLs are always trusted. Blocked domains always lose.
// The strict profile trusts only allow-listed hosts.
func (c Config) TrustsURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || IsDangerousURL(raw) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	if MatchDomain(host, c.BlockedDomains) {
		return false
	}
	if c.profile() == ProfileStrict {
		return MatchDomain(host, c.AllowedDomains)
	}
	return true
}

// MatchDomain reports whether host matches any pattern. Patterns are exact
// hosts, `*` for everything, or `*.suffix` for the apex and its subdomains.
func MatchDomain(host string, patterns []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		switch {
		case p == "":
			continue
		case p == "*":
			return true
		case strings.HasPrefix(p, "*."):
			suffix := p[2:]
			if host == suffix || strings.HasSuffix(host, "."+suffix) {
				return true
			}
		case host == p:
			return true
		}
	}
	return false
}
