// Package log is a thin leveled logger over log/slog with per-module
// filtering. Call sites pass a module tag first so noisy subsystems can be
// silenced independently of the global level.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const (
	levelMaxVerbosity slog.Level = math.MinInt
	LevelTrace        slog.Level = -8
	LevelDebug                   = slog.LevelDebug
	LevelInfo                    = slog.LevelInfo
	LevelWarn                    = slog.LevelWarn
	LevelError                   = slog.LevelError
	LevelCrit         slog.Level = 12
)

// Module tags.
const (
	Import     = "import"  // block import orchestration
	Trie       = "trie"    // trie updates
	Storage    = "storage" // backend reads/writes
	Commitment = "commit"  // state commitment engine
)

var root atomic.Value

func init() {
	root.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelInfo})))
}

func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "MAX", "MAXVERBOSITY":
		return levelMaxVerbosity, nil
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "CRIT", "CRITICAL":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid level: %s", lvl)
	}
}

// InitLogger replaces the root logger with a stderr handler at the given
// level name. Exits on an unknown level, matching CLI usage.
func InitLogger(logLevel string) {
	lvl, err := ParseLevel(logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}

func SetDefault(l *slog.Logger) {
	root.Store(l)
}

func Root() *slog.Logger {
	return root.Load().(*slog.Logger)
}

var (
	moduleMu       sync.RWMutex
	moduleDisabled = map[string]bool{}
)

// EnableModule re-enables logging for a module tag.
func EnableModule(module string) {
	moduleMu.Lock()
	defer moduleMu.Unlock()
	delete(moduleDisabled, module)
}

// DisableModule silences all logging for a module tag.
func DisableModule(module string) {
	moduleMu.Lock()
	defer moduleMu.Unlock()
	moduleDisabled[module] = true
}

func moduleEnabled(module string) bool {
	moduleMu.RLock()
	defer moduleMu.RUnlock()
	return !moduleDisabled[module]
}

func write(level slog.Level, module string, msg string, ctx ...interface{}) {
	if !moduleEnabled(module) {
		return
	}
	l := Root()
	if !l.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(append([]interface{}{"module", module}, ctx...)...)
	l.Handler().Handle(context.Background(), r)
}

func Trace(module string, msg string, ctx ...interface{}) {
	write(LevelTrace, module, msg, ctx...)
}

func Debug(module string, msg string, ctx ...interface{}) {
	write(LevelDebug, module, msg, ctx...)
}

func Info(module string, msg string, ctx ...interface{}) {
	write(LevelInfo, module, msg, ctx...)
}

func Warn(module string, msg string, ctx ...interface{}) {
	write(LevelWarn, module, msg, ctx...)
}

func Error(module string, msg string, ctx ...interface{}) {
	write(LevelError, module, msg, ctx...)
}

// Crit logs at the critical level and exits. Reserved for internal invariant
// violations that leave no safe way to continue.
func Crit(module string, msg string, ctx ...interface{}) {
	write(LevelCrit, module, msg, ctx...)
	os.Exit(1)
}
