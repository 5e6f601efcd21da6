// Package logx provides structured logging with env-controlled debug domains.
package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger writes timestamped, component-tagged log lines to stderr.
type Logger struct {
	component string
	logger    *log.Logger
}

// Level identifies the severity of a log line.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// debugConfig controls debug logging behavior, initialized from the environment.
type debugSettings struct {
	Enabled bool
	Domains map[string]bool // nil = all domains
}

//nolint:gochecknoglobals // Env-driven debug switches shared by all loggers
var (
	debugCfg debugSettings
	debugMu  sync.RWMutex
)

//nolint:gochecknoinits // Required for env var initialization
func init() {
	initDebugFromEnv()
}

func initDebugFromEnv() {
	debugMu.Lock()
	defer debugMu.Unlock()

	if v := os.Getenv("DEBUG"); v == "1" || strings.EqualFold(v, "true") {
		debugCfg.Enabled = true
	}

	// DEBUG_DOMAINS=agent,planner,circuit restricts debug output to those components.
	if domains := os.Getenv("DEBUG_DOMAINS"); domains != "" {
		debugCfg.Domains = make(map[string]bool)
		for _, d := range strings.Split(domains, ",") {
			debugCfg.Domains[strings.TrimSpace(d)] = true
		}
	}
}

// SetDebug enables or disables debug logging for the listed domains.
// An empty domain list enables debug for every component.
func SetDebug(enabled bool, domains ...string) {
	debugMu.Lock()
	defer debugMu.Unlock()

	debugCfg.Enabled = enabled
	if len(domains) == 0 {
		debugCfg.Domains = nil
		return
	}
	debugCfg.Domains = make(map[string]bool, len(domains))
	for _, d := range domains {
		debugCfg.Domains[strings.TrimSpace(d)] = true
	}
}

// IsDebugEnabled reports whether debug logging is active for the given component.
func IsDebugEnabled(component string) bool {
	debugMu.RLock()
	defer debugMu.RUnlock()

	if !debugCfg.Enabled {
		return false
	}
	if debugCfg.Domains == nil {
		return true
	}
	return debugCfg.Domains[component]
}

// NewLogger creates a logger tagged with the given component name
// (e.g. "agent-runtime", "planner", "circuit:portal_autofill").
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		logger:    log.New(os.Stderr, "", 0), // stderr keeps stdout clean for CLI output
	}
}

func (l *Logger) log(level Level, format string, args ...any) {
	timestamp := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	message := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] [%s] %s: %s", timestamp, l.component, level, message)
}

// Debug logs a debug message if debug logging is enabled for this component.
func (l *Logger) Debug(format string, args ...any) {
	if !IsDebugEnabled(l.component) {
		return
	}
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, format, args...)
}
