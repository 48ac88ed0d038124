package fecs

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

// registryConfig holds the configuration of a Registry that can be set through the environment.
type registryConfig struct {
	// Maximum number of component types, the length of every signature.
	MaxComponents int `env:"FECS_MAX_COMPONENTS" envDefault:"64"`

	// Number of slots in each sparse page.
	PageSize int `env:"FECS_SPARSE_PAGE_SIZE" envDefault:"2048"`

	// Number of entities to reserve room for up front.
	InitialCapacity int `env:"FECS_INITIAL_CAPACITY" envDefault:"0"`

	// How queries find candidates ("smallest" or "scan").
	QueryStrategy string `env:"FECS_QUERY_STRATEGY" envDefault:"smallest"`

	// Log level ("debug", "info", "warn", "error", "disabled").
	LogLevel string `env:"FECS_LOG_LEVEL" envDefault:"info"`

	// Log format ("json" or "pretty").
	LogFormat string `env:"FECS_LOG_FORMAT" envDefault:"json"`
}

// loadConfig loads the registry configuration from environment variables.
func loadConfig() (registryConfig, error) {
	cfg := registryConfig{}

	if err := env.Parse(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to parse registry config")
	}

	if err := cfg.validate(); err != nil {
		return cfg, eris.Wrap(err, "failed to validate registry config")
	}

	return cfg, nil
}

// validate performs validation on the loaded configuration.
func (cfg *registryConfig) validate() error {
	if cfg.MaxComponents <= 0 {
		return eris.New("max components must be positive")
	}
	if cfg.PageSize <= 0 {
		return eris.New("sparse page size must be positive")
	}
	if cfg.InitialCapacity < 0 {
		return eris.New("initial capacity cannot be negative")
	}
	if cfg.InitialCapacity > MaxIndex+1 {
		return eris.Errorf("initial capacity cannot exceed %d entities", MaxIndex+1)
	}
	if ParseQueryStrategy(cfg.QueryStrategy) == QueryStrategyUndefined {
		return eris.Errorf("invalid query strategy: %s (must be 'smallest' or 'scan')", cfg.QueryStrategy)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		return eris.Errorf("invalid log level: %s (must be 'debug', 'info', 'warn', or 'error')", cfg.LogLevel)
	}
	if ParseLogFormat(cfg.LogFormat) == LogFormatUndefined {
		return eris.Errorf("invalid log format: %s (must be 'json' or 'pretty')", cfg.LogFormat)
	}
	return nil
}

// applyToOptions copies the configuration into opt.
func (cfg *registryConfig) applyToOptions(opt *Options) {
	opt.MaxComponents = cfg.MaxComponents
	opt.PageSize = cfg.PageSize
	opt.InitialCapacity = cfg.InitialCapacity
	opt.QueryStrategy = ParseQueryStrategy(cfg.QueryStrategy)

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var writer io.Writer
	switch ParseLogFormat(cfg.LogFormat) {
	case LogFormatPretty:
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	case LogFormatJSON, LogFormatUndefined:
		writer = os.Stderr
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Str("module", "fecs").Logger()
	opt.Logger = &logger
}

// LogFormat selects how the default logger renders log lines.
type LogFormat string

const (
	LogFormatUndefined LogFormat = ""
	LogFormatJSON      LogFormat = "json"
	LogFormatPretty    LogFormat = "pretty"
)

// ParseLogFormat parses a log format name, returning LogFormatUndefined if it is unknown.
func ParseLogFormat(s string) LogFormat {
	switch LogFormat(strings.ToLower(s)) {
	case LogFormatJSON:
		return LogFormatJSON
	case LogFormatPretty:
		return LogFormatPretty
	case LogFormatUndefined:
		return LogFormatUndefined
	default:
		return LogFormatUndefined
	}
}

// QueryStrategy selects how a query collects matching entities. All strategies return the same set.
type QueryStrategy string

const (
	QueryStrategyUndefined QueryStrategy = ""
	// QueryStrategySmallest walks the dense storage of the rarest requested component and filters
	// by signature.
	QueryStrategySmallest QueryStrategy = "smallest"
	// QueryStrategyScan tests the signature of every entity that holds a component.
	QueryStrategyScan QueryStrategy = "scan"
)

// ParseQueryStrategy parses a strategy name, returning QueryStrategyUndefined if it is unknown.
func ParseQueryStrategy(s string) QueryStrategy {
	switch QueryStrategy(strings.ToLower(s)) {
	case QueryStrategySmallest:
		return QueryStrategySmallest
	case QueryStrategyScan:
		return QueryStrategyScan
	case QueryStrategyUndefined:
		return QueryStrategyUndefined
	default:
		return QueryStrategyUndefined
	}
}

// Options configures a Registry. Zero fields keep the value loaded from the environment.
type Options struct {
	MaxComponents   int             // Maximum number of component types
	PageSize        int             // Slots per sparse page
	InitialCapacity int             // Entities reserved up front
	QueryStrategy   QueryStrategy   // Query candidate strategy
	Logger          *zerolog.Logger // Logger, defaults to JSON on stderr at the configured level
}

// newDefaultOptions creates Options with invalid values so that unset fields are caught by validate.
func newDefaultOptions() Options {
	return Options{
		MaxComponents:   0,
		PageSize:        0,
		InitialCapacity: -1,
		QueryStrategy:   QueryStrategyUndefined,
		Logger:          nil,
	}
}

// apply merges the given options into the current options, overriding non-zero values.
func (opt *Options) apply(newOpt Options) {
	if newOpt.MaxComponents != 0 {
		opt.MaxComponents = newOpt.MaxComponents
	}
	if newOpt.PageSize != 0 {
		opt.PageSize = newOpt.PageSize
	}
	if newOpt.InitialCapacity != 0 {
		opt.InitialCapacity = newOpt.InitialCapacity
	}
	if newOpt.QueryStrategy != QueryStrategyUndefined {
		opt.QueryStrategy = newOpt.QueryStrategy
	}
	if newOpt.Logger != nil {
		opt.Logger = newOpt.Logger
	}
}

// validate checks that all required options are set and valid.
func (opt *Options) validate() error {
	if opt.MaxComponents <= 0 {
		return eris.New("max components must be positive")
	}
	if opt.PageSize <= 0 {
		return eris.New("sparse page size must be positive")
	}
	if opt.InitialCapacity < 0 {
		return eris.New("initial capacity cannot be negative")
	}
	if opt.InitialCapacity > MaxIndex+1 {
		return eris.Errorf("initial capacity cannot exceed %d entities", MaxIndex+1)
	}
	if opt.QueryStrategy != QueryStrategySmallest && opt.QueryStrategy != QueryStrategyScan {
		return eris.Errorf("invalid query strategy: %q", opt.QueryStrategy)
	}
	if opt.Logger == nil {
		return eris.New("logger cannot be nil")
	}
	return nil
}
