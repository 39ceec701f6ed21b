package slogging

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// RedactionAction defines how sensitive data should be handled
type RedactionAction string

const (
	// RedactionOmit removes the field entirely from logs
	RedactionOmit RedactionAction = "omit"
	// RedactionObfuscate replaces the value with [REDACTED]
	RedactionObfuscate RedactionAction = "obfuscate"
	// RedactionPartial keeps a few leading and trailing characters
	RedactionPartial RedactionAction = "partial"
	// RedactionDSN masks the password portion of a connection string
	RedactionDSN RedactionAction = "dsn"
)

const redacted = "[REDACTED]"

// RedactionRule matches attribute keys and applies an action to their values
type RedactionRule struct {
	FieldPattern string          `yaml:"field_pattern"`
	Action       RedactionAction `yaml:"action"`

	compiledPattern *regexp.Regexp
}

// RedactionConfig holds all redaction rules
type RedactionConfig struct {
	Enabled bool            `yaml:"enabled"`
	Rules   []RedactionRule `yaml:"rules"`
}

// DefaultRedactionConfig covers credentials that reach the logs through connection setup
func DefaultRedactionConfig() RedactionConfig {
	return RedactionConfig{
		Enabled: true,
		Rules: []RedactionRule{
			{FieldPattern: `(?i)^(dsn|url|connection(_string)?)$`, Action: RedactionDSN},
			{FieldPattern: `(?i)(password|secret|private_key)`, Action: RedactionOmit},
			{FieldPattern: `(?i)(token|api_key|credential)`, Action: RedactionPartial},
		},
	}
}

// CompileRules compiles regex patterns for all rules
func (rc *RedactionConfig) CompileRules() error {
	for i := range rc.Rules {
		pattern, err := regexp.Compile(rc.Rules[i].FieldPattern)
		if err != nil {
			return fmt.Errorf("failed to compile redaction pattern '%s': %w", rc.Rules[i].FieldPattern, err)
		}
		rc.Rules[i].compiledPattern = pattern
	}
	return nil
}

var (
	dsnKeyValuePassword = regexp.MustCompile(`(?i)(password|pwd)=([^\s;&]+)`)
	dsnURLPassword      = regexp.MustCompile(`://([^:/@]+):(.+)@`)
)

// RedactDSN masks passwords in key=value and URL style connection strings
func RedactDSN(dsn string) string {
	dsn = dsnKeyValuePassword.ReplaceAllString(dsn, "$1="+redacted)
	return dsnURLPassword.ReplaceAllString(dsn, "://$1:"+redacted+"@")
}

func partialRedactValue(value string) string {
	if len(value) <= 12 {
		return redacted
	}
	return value[:4] + "..." + value[len(value)-4:]
}

type redactionHandler struct {
	handler slog.Handler
	config  RedactionConfig
}

// NewRedactionHandler wraps handler so that attributes matching config rules are masked
func NewRedactionHandler(handler slog.Handler, config RedactionConfig) (slog.Handler, error) {
	if err := config.CompileRules(); err != nil {
		return nil, err
	}
	return &redactionHandler{handler: handler, config: config}, nil
}

func (h *redactionHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *redactionHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, record)
	}

	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		if a, keep := h.redact(attr); keep {
			out.AddAttrs(a)
		}
		return true
	})
	return h.handler.Handle(ctx, out)
}

func (h *redactionHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	kept := make([]slog.Attr, 0, len(attrs))
	for _, attr := range attrs {
		if a, keep := h.redact(attr); keep {
			kept = append(kept, a)
		}
	}
	return &redactionHandler{handler: h.handler.WithAttrs(kept), config: h.config}
}

func (h *redactionHandler) WithGroup(name string) slog.Handler {
	return &redactionHandler{handler: h.handler.WithGroup(name), config: h.config}
}

func (h *redactionHandler) redact(attr slog.Attr) (slog.Attr, bool) {
	if !h.config.Enabled {
		return attr, true
	}
	for _, rule := range h.config.Rules {
		if rule.compiledPattern == nil || !rule.compiledPattern.MatchString(attr.Key) {
			continue
		}
		switch rule.Action {
		case RedactionOmit:
			return slog.Attr{}, false
		case RedactionObfuscate:
			return slog.String(attr.Key, redacted), true
		case RedactionPartial:
			return slog.String(attr.Key, partialRedactValue(attr.Value.String())), true
		case RedactionDSN:
			return slog.String(attr.Key, RedactDSN(attr.Value.String())), true
		}
	}
	return attr, true
}

// SanitizeLogMessage removes newlines and other control characters from log messages
func SanitizeLogMessage(message string) string {
	message = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t':
			return ' '
		}
		return r
	}, message)
	return strings.TrimSpace(strings.Join(strings.Fields(message), " "))
}
