package store

import "log/slog"

// Config holds store settings. Zero values are filled in by DefaultConfig.
type Config struct {
	// Strict installs a deep synchronous watcher over the whole state tree
	// that reports every change made outside a mutation handler.
	// Default: false
	Strict bool

	// DevMode enables the diagnostic checks: unknown-type, duplicate getter
	// and strict-mode reports, and local type verification.
	// Turning it off keeps behavior identical but silences those checks.
	// Default: true
	DevMode bool

	// Logger receives structured logs. Default: slog.Default()
	Logger *slog.Logger

	// Reporter receives non-fatal errors. Default: a Reporter that logs
	// through Logger.
	Reporter Reporter

	// Plugins run once, in order, at the end of New.
	Plugins []Plugin

	// Devtool, when set, is attached after the plugins.
	Devtool DevtoolHook
}

// DefaultConfig returns the settings used when no option is given.
func DefaultConfig() Config {
	return Config{
		DevMode: true,
	}
}

// validate fills in defaults that depend on other fields.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Reporter == nil {
		c.Reporter = logReporter{logger: c.Logger}
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithStrict turns strict mode on or off.
func WithStrict(strict bool) Option {
	return func(c *Config) { c.Strict = strict }
}

// WithDevMode turns the diagnostic checks on or off.
func WithDevMode(dev bool) Option {
	return func(c *Config) { c.DevMode = dev }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithReporter sets where non-fatal errors go.
func WithReporter(r Reporter) Option {
	return func(c *Config) { c.Reporter = r }
}

// WithPlugins appends plugins.
func WithPlugins(plugins ...Plugin) Option {
	return func(c *Config) { c.Plugins = append(c.Plugins, plugins...) }
}

// WithDevtool attaches a debug bridge.
func WithDevtool(hook DevtoolHook) Option {
	return func(c *Config) { c.Devtool = hook }
}
