// Package corelog is the engine's ambient structured logging surface,
// adapted from the teacher's internal/logger: same Fields type and
// Info/Warn/Error/Debug shape, minus the gin.Context request-field
// extraction (there is no HTTP layer at the core). internal/* packages
// never call corelog for expected result-object failures (spec.md §7) —
// its only caller is cmd/harness, which logs a failed harness run with it.
package corelog

import (
	"fmt"
	"log"

	"github.com/getsentry/sentry-go"
)

// Fields is a bag of structured log fields.
type Fields map[string]any

// Info logs an informational message and, if Sentry is configured, adds a
// breadcrumb.
func Info(msg string, fields Fields) {
	log.Printf("[INFO] %s %s", msg, format(fields))
	breadcrumb(sentry.LevelInfo, "info", msg, fields)
}

// Warn logs a warning message and, if Sentry is configured, adds a
// breadcrumb.
func Warn(msg string, fields Fields) {
	log.Printf("[WARN] %s %s", msg, format(fields))
	breadcrumb(sentry.LevelWarning, "warning", msg, fields)
}

// Debug logs a debug message and, if Sentry is configured, adds a
// breadcrumb.
func Debug(msg string, fields Fields) {
	log.Printf("[DEBUG] %s %s", msg, format(fields))
	breadcrumb(sentry.LevelDebug, "debug", msg, fields)
}

// Error logs an error message and, if Sentry is configured, captures the
// error as an exception with fields attached as scope context.
func Error(msg string, err error, fields Fields) {
	log.Printf("[ERROR] %s: %v %s", msg, err, format(fields))

	if hub := sentry.CurrentHub(); hub != nil && hub.Client() != nil {
		hub.WithScope(func(scope *sentry.Scope) {
			for k, v := range fields {
				scope.SetContext(k, map[string]any{"value": v})
			}
			hub.CaptureException(err)
		})
	}
}

func breadcrumb(level sentry.Level, category, msg string, fields Fields) {
	hub := sentry.CurrentHub()
	if hub == nil || hub.Client() == nil {
		return
	}
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Type:     category,
		Category: "log",
		Message:  msg,
		Data:     map[string]any(fields),
		Level:    level,
	})
}

func format(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	out := "{"
	first := true
	for k, v := range fields {
		if !first {
			out += ", "
		}
		out += k + "=" + fmt.Sprintf("%v", v)
		first = false
	}
	return out + "}"
}
