package logging

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sgl-project/gcs2drive/pkg/configutils"
)

// ConfigKey is the Viper key holding the logging section.
var ConfigKey = "logging"

// Config holds the configuration for logging.
type Config struct {
	// Debug forces debug level and the human readable console encoder.
	// Use "debug=false, level=debug" to keep JSON output with debug messages.
	Debug bool `mapstructure:"debug"`

	// Level controls the logging level. Defaults to INFO.
	Level Level `mapstructure:"level"`

	// EncodeTimeAsRFC3339Nano switches timestamps to RFC3339Nano.
	EncodeTimeAsRFC3339Nano bool `mapstructure:"encodeTimeAsRFC3339Nano"`

	// DisableConsoleOutput stops writing to stdout. Only meaningful when a
	// log file is configured, otherwise nothing would be written at all.
	DisableConsoleOutput bool `mapstructure:"disableConsoleOutput"`

	// Logger configures the optional rotating log file. Serverless runtimes
	// usually have a read-only filesystem, so no file is written unless
	// Filename is set.
	lumberjack.Logger `mapstructure:",squash"`
}

// Option is a configuration option for logging.
type Option func(*Config) error

// Validate ensures the logging Config is valid.
func (c *Config) Validate() error {
	if c.MaxSize < 0 {
		return fmt.Errorf("maxsize must be >= 0, not %d", c.MaxSize)
	}
	if c.MaxBackups < 0 {
		return fmt.Errorf("maxbackups must be >= 0, not %d", c.MaxBackups)
	}
	if c.MaxAge < 0 {
		return fmt.Errorf("maxage days must be >= 0, not %d", c.MaxAge)
	}
	if c.DisableConsoleOutput && c.Filename == "" {
		return errors.New("disableConsoleOutput requires a log filename")
	}
	if err := c.Level.Validate(); err != nil {
		return fmt.Errorf("invalid level: %w", err)
	}
	return nil
}

// WithViper reads the "logging" section from v.
func WithViper(v *viper.Viper) Option {
	return WithViperKey(v, ConfigKey)
}

// WithViperKey reads the section stored under configKey from v.
func WithViperKey(v *viper.Viper, configKey string) Option {
	return func(c *Config) error {
		if v == nil {
			return errors.New("nil Viper")
		}
		if err := configutils.BindEnvsRecursive(v, c, configKey); err != nil {
			return err
		}
		// UnmarshalKey on a parent key skips bound env values; AllSettings
		// resolves every leaf, so decode the section from there.
		section, _ := v.AllSettings()[configKey].(map[string]interface{})
		sv := viper.New()
		if err := sv.MergeConfigMap(section); err != nil {
			return err
		}
		return sv.Unmarshal(c)
	}
}

// WithDebug turns on debug logging regardless of the configured level.
func WithDebug(debug bool) Option {
	return func(c *Config) error {
		if debug {
			c.Debug = true
		}
		return nil
	}
}

// Apply takes the supplied options and applies them to the configuration.
func (c *Config) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(c); err != nil {
			return err
		}
	}
	return nil
}

// NewConfig creates a new logging config with the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}
