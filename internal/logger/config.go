package logger

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

type LogFormat int

const (
	ColorizedOutput LogFormat = iota
	PlaintextOutput
	JSONOutput
)

func (f LogFormat) String() string {
	switch f {
	case PlaintextOutput:
		return "plaintext"
	case JSONOutput:
		return "json"
	default:
		return "color"
	}
}

func (f LogFormat) MarshalYAML() (any, error) {
	return f.String(), nil
}

func (f *LogFormat) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	switch strings.ToLower(s) {
	case "", "color", "colorized":
		*f = ColorizedOutput
	case "plaintext", "plain", "console":
		*f = PlaintextOutput
	case "json":
		*f = JSONOutput
	default:
		return fmt.Errorf("unknown log format %q", s)
	}
	return nil
}

type NamedLevel struct {
	Name  string `yaml:"name"`
	Level string `yaml:"level"`
}

type Config struct {
	Production     bool         `yaml:"production"`
	DefaultLevel   string       `yaml:"defaultLevel"`
	Levels         []NamedLevel `yaml:"levels,omitempty"` // first match wins
	AddOutputPaths []string     `yaml:"outputPaths,omitempty"`
	DisableStdErr  bool         `yaml:"disableStdErr"`
	Format         LogFormat    `yaml:"format"`
}

func (l Config) zapConfig() zap.Config {
	var conf zap.Config
	if l.Production {
		conf = zap.NewProductionConfig()
	} else {
		conf = zap.NewDevelopmentConfig()
	}

	encConfig := conf.EncoderConfig
	switch l.Format {
	case PlaintextOutput:
		encConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		conf.Encoding = "console"
	case JSONOutput:
		encConfig.MessageKey = "msg"
		encConfig.TimeKey = "ts"
		encConfig.LevelKey = "level"
		encConfig.NameKey = "logger"
		encConfig.CallerKey = "caller"
		encConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		conf.Encoding = "json"
	default:
		conf.Encoding = "console"
		encConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	conf.EncoderConfig = encConfig

	if len(l.AddOutputPaths) > 0 {
		conf.OutputPaths = append(conf.OutputPaths, l.AddOutputPaths...)
	}
	if l.DisableStdErr {
		conf.OutputPaths = slices.DeleteFunc(conf.OutputPaths, func(path string) bool {
			return path == "stderr"
		})
		conf.ErrorOutputPaths = slices.DeleteFunc(conf.ErrorOutputPaths, func(path string) bool {
			return path == "stderr"
		})
	}

	if defaultLevel, err := zap.ParseAtomicLevel(l.DefaultLevel); err == nil {
		conf.Level = defaultLevel
	}
	return conf
}

// ApplyGlobal builds the logger described by the config and makes it the default.
// With every output path filtered out the logger discards everything.
func (l Config) ApplyGlobal() error {
	conf := l.zapConfig()
	base := conf.Level.Level()

	// the core must let through the most verbose named level
	for _, v := range l.Levels {
		if lev, err := zap.ParseAtomicLevel(v.Level); err == nil && lev.Level() < conf.Level.Level() {
			conf.Level = zap.NewAtomicLevelAt(lev.Level())
		}
	}

	var lg *zap.Logger
	if len(conf.OutputPaths) == 0 {
		lg = zap.NewNop()
	} else {
		var err error
		if lg, err = conf.Build(); err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
	}

	mu.Lock()
	logger = lg
	defaultLevel = base
	mu.Unlock()
	return SetNamedLevels(l.Levels)
}
