package logger

import (
	"fmt"
	"sync"

	"github.com/gobwas/glob"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu           sync.Mutex
	logger       *zap.Logger
	defaultLevel = zapcore.DebugLevel
	namedLevels  []namedLevel
	namedLoggers = make(map[string]*zap.Logger)
)

type namedLevel struct {
	name  string
	glob  glob.Glob
	level zap.AtomicLevel
}

func init() {
	logger, _ = zap.NewDevelopmentConfig().Build()
}

// SetDefault replaces the default logger. Named loggers handed out earlier follow it.
func SetDefault(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
	defaultLevel = l.Level()
	rebuildNamed()
}

// SetNamedLevels sets per-name levels. Names may be glob patterns like "transport*".
func SetNamedLevels(nls []NamedLevel) error {
	mu.Lock()
	defer mu.Unlock()

	levels := make([]namedLevel, 0, len(nls))
	for _, nl := range nls {
		l, err := zap.ParseAtomicLevel(nl.Level)
		if err != nil {
			return fmt.Errorf("level for %q: %w", nl.Name, err)
		}
		g, err := glob.Compile(nl.Name)
		if err != nil {
			return fmt.Errorf("pattern %q: %w", nl.Name, err)
		}
		levels = append(levels, namedLevel{name: nl.Name, glob: g, level: l})
	}
	namedLevels = levels
	rebuildNamed()
	return nil
}

func Default() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// NewNamed returns the logger for name. The same pointer is returned for the same name
// and keeps working after the default logger is replaced.
func NewNamed(name string) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := namedLoggers[name]; ok {
		return l
	}
	l := buildNamed(name)
	namedLoggers[name] = l
	return l
}

// getLevel returns the first matching level, or nil when no pattern names it
func getLevel(name string) *zap.AtomicLevel {
	for _, nl := range namedLevels {
		if nl.name == name || nl.glob.Match(name) {
			return &nl.level
		}
	}
	return nil
}

func buildNamed(name string) *zap.Logger {
	l := logger.Named(name)
	level := defaultLevel
	if named := getLevel(name); named != nil {
		level = named.Level()
	}
	if level > logger.Level() {
		l = l.WithOptions(zap.IncreaseLevel(level))
	}
	return l
}

func rebuildNamed() {
	for name, l := range namedLoggers {
		*l = *buildNamed(name)
	}
}
