package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
)

// Type alias for slog.Level for easier usage
type Level = slog.Level

const (
	LevelTrace   = slog.Level(-8)
	LevelDebug   = slog.LevelDebug // -4
	LevelInfo    = slog.LevelInfo  // 0
	LevelWarning = slog.LevelWarn  // 4
	LevelError   = slog.LevelError // 8
	LevelFatal   = slog.Level(12)  // 12
)

// Output formats accepted by Configure
const (
	FormatJSON = "json"
	FormatText = "text"
)

var (
	Logger          *slog.Logger
	errorSampleRate int32 = 1 // log every error by default (SCID_ERROR_SAMPLE_RATE)
	programLevel          = new(slog.LevelVar)
)

// Counters are incremented regardless of sampling and reported by the
// health endpoint
var (
	TotalErrors    atomic.Int64
	TotalWarnings  atomic.Int64
	Total5xxErrors atomic.Int64
	Total4xxErrors atomic.Int64
	Total400Errors atomic.Int64
	Total404Errors atomic.Int64
	Assessments    atomic.Int64
	Vetoes         atomic.Int64
)

func init() {
	level, err := ParseLevel(os.Getenv("SCID_LOG_LEVEL"))
	if err != nil {
		level = LevelInfo
	}
	programLevel.Set(level)

	if sampleStr := os.Getenv("SCID_ERROR_SAMPLE_RATE"); sampleStr != "" {
		if rate, err := strconv.Atoi(sampleStr); err == nil && rate > 0 {
			atomic.StoreInt32(&errorSampleRate, int32(rate))
		}
	}

	format := strings.ToLower(os.Getenv("SCID_LOG_FORMAT"))
	if err := Configure(os.Stderr, format); err != nil {
		_ = Configure(os.Stderr, FormatJSON)
	}
}

// Configure replaces the handler. Logs go to w so that stdout stays free
// for command output. An empty format means JSON.
func Configure(w io.Writer, format string) error {
	opts := &slog.HandlerOptions{
		Level:       programLevel,
		ReplaceAttr: renameLevels,
	}

	var handler slog.Handler
	switch format {
	case "", FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %s (must be json or text)", format)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
	return nil
}

// renameLevels prints TRACE and FATAL instead of DEBUG-4 and ERROR+4
func renameLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok {
		switch level {
		case LevelTrace:
			a.Value = slog.StringValue("TRACE")
		case LevelFatal:
			a.Value = slog.StringValue("FATAL")
		}
	}
	return a
}

// SetLevel sets the minimum log level for the logger
func SetLevel(level slog.Level) {
	programLevel.Set(level)
}

// GetLevel returns the current minimum log level
func GetLevel() slog.Level {
	return programLevel.Level()
}

// SetErrorSampleRate logs 1 out of every rate warnings and errors.
// Rates below 1 are treated as 1.
func SetErrorSampleRate(rate int) {
	if rate < 1 {
		rate = 1
	}
	atomic.StoreInt32(&errorSampleRate, int32(rate))
}

// ParseLevel converts a string level name to slog.Level.
// An empty string is INFO.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "", "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s (defaulting to INFO)", levelStr)
	}
}

// shouldSample returns true if this warning or error should be written
func shouldSample() bool {
	rate := atomic.LoadInt32(&errorSampleRate)
	if rate <= 1 {
		return true
	}
	return rand.Intn(int(rate)) == 0
}

// Trace logs a trace-level message (never sampled)
func Trace(msg string, args ...any) {
	Logger.Log(context.Background(), LevelTrace, msg, args...)
}

// Debug logs a debug-level message (never sampled)
func Debug(msg string, args ...any) {
	Logger.Debug(msg, args...)
}

// Info logs an info-level message (never sampled)
func Info(msg string, args ...any) {
	Logger.Info(msg, args...)
}

// Warn logs a warning with sampling. The counter is always incremented.
func Warn(msg string, args ...any) {
	TotalWarnings.Add(1)
	if shouldSample() {
		Logger.Warn(msg, args...)
	}
}

// Error logs an error with sampling. The counter is always incremented.
func Error(msg string, args ...any) {
	TotalErrors.Add(1)
	if shouldSample() {
		Logger.Error(msg, args...)
	}
}

// ErrorHttp5xx counts an HTTP 5xx response
func ErrorHttp5xx() {
	Total5xxErrors.Add(1)
	TotalErrors.Add(1)
}

// WarnHttp4xx counts an HTTP 4xx response
func WarnHttp4xx(status int) {
	Total4xxErrors.Add(1)
	TotalWarnings.Add(1)

	switch status {
	case 400:
		Total400Errors.Add(1)
	case 404:
		Total404Errors.Add(1)
	}
}

// CountAssessment records one recommendation and whether it was vetoed
func CountAssessment(vetoed bool) {
	Assessments.Add(1)
	if vetoed {
		Vetoes.Add(1)
	}
}

// Counters returns a snapshot of all counters
func Counters() map[string]int64 {
	return map[string]int64{
		"errors":      TotalErrors.Load(),
		"warnings":    TotalWarnings.Load(),
		"http5xx":     Total5xxErrors.Load(),
		"http4xx":     Total4xxErrors.Load(),
		"http400":     Total400Errors.Load(),
		"http404":     Total404Errors.Load(),
		"assessments": Assessments.Load(),
		"vetoes":      Vetoes.Load(),
	}
}
