// Package debug provides category-based diagnostics for the sampler.
//
// Categories select what is traced and come from LORASAMPLER_DEBUG or
// logging.debug. The slog level decides how much detail is shown and comes
// from LORASAMPLER_LOG_LEVEL or logging.level. At TRACE, payloads are
// written in full instead of as a short preview.
//
//	debug.Log(debug.Config, "loading config file", "path", path)
//	debug.Attempt(attempt, maxAttempts, backoff, err)
//	debug.Payload(debug.Providers, "POST "+url, body)
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"
)

// Categories understood by the sampler. "all" enables every category.
const (
	Providers = "providers"
	Retry     = "retry"
	Config    = "config"
	Server    = "server"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
const LevelTrace = slog.LevelDebug - 4

// previewLen bounds payload and reply excerpts below TRACE.
const previewLen = 256

var (
	// categories is read-only after Init.
	categories map[string]bool

	// out receives raw payloads and the handler installed by Init.
	out io.Writer = os.Stderr
)

func init() {
	categories = parseCategories(os.Getenv("LORASAMPLER_DEBUG"))
}

// Init installs the default slog handler and the enabled categories.
// Environment variables take precedence over the configured values. It
// returns the effective level.
func Init(configCategories string, configLevel string) slog.Level {
	cats := os.Getenv("LORASAMPLER_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv("LORASAMPLER_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	slogLevel := ParseLevel(level)

	slog.SetDefault(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: slogLevel,
	})))

	if len(categories) > 0 {
		slog.Info("debug categories enabled", "categories", Categories(), "level", slogLevel.String())
	}
	return slogLevel
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category. Disabled categories
// cost a map lookup.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Attempt traces one remote call attempt in the retry category. A nil err
// records the attempt that finally succeeded; otherwise backoff is the
// sleep about to follow the failure.
func Attempt(attempt, maxAttempts int, backoff time.Duration, err error) {
	if !Enabled(Retry) {
		return
	}
	if err == nil {
		slog.Debug("attempt succeeded",
			"debug", Retry,
			"attempt", attempt,
			"max_attempts", maxAttempts,
		)
		return
	}
	slog.Debug("attempt failed",
		"debug", Retry,
		"attempt", attempt,
		"remaining", maxAttempts-attempt,
		"backoff", backoff,
		"error", Preview(err.Error()),
	)
}

// Payload records a request or response body for the category. At TRACE
// the body is written unformatted after a label line so it can be copied
// into curl; at DEBUG only a preview is logged.
func Payload(category, label string, body []byte) {
	if !Enabled(category) {
		return
	}
	if traceEnabled() {
		fmt.Fprintf(out, "%s\n%s\n", label, body)
		return
	}
	slog.Debug("payload",
		"debug", category,
		"label", label,
		"bytes", len(body),
		"preview", Preview(string(body)),
	)
}

// Preview shortens s for log output unless TRACE is active.
func Preview(s string) string {
	if traceEnabled() {
		return s
	}
	return Truncate(s, previewLen)
}

// Truncate returns s cut to at most maxLen runes, with "..." appended if
// anything was dropped.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

// ParseLevel converts a level string to a slog.Level. Unknown values
// fall back to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the enabled categories in sorted order.
func Categories() []string {
	result := make([]string, 0, len(categories))
	for k := range categories {
		result = append(result, k)
	}
	sort.Strings(result)
	return result
}

func traceEnabled() bool {
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
