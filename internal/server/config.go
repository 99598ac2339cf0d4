package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/sgl-project/gcs2drive/pkg/configutils"
	"github.com/sgl-project/gcs2drive/pkg/constants"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/logging/ginlog"
)

// ConfigKey is the viper key of the server section
const ConfigKey = "server"

// DefaultPort is used when neither the config nor PORT set one
const DefaultPort = 8080

// LegacyEnvs maps server keys to their unprefixed environment names.
var LegacyEnvs = map[string]string{
	"server.port": constants.LegacyPortEnv,
}

// Config is the "server" configuration section
type Config struct {
	AnotherLogger logging.Interface

	Port          int                        `mapstructure:"port" validate:"gt=0,lte=65535"`
	RequestLogger ginlog.RequestLoggerConfig `mapstructure:"request_logger"`
}

type Option func(*Config) error

// Apply applies the given options to the config
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

// NewConfig builds a Config starting from the defaults
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{Port: DefaultPort}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

func WithAnotherLog(logger logging.Interface) Option {
	return func(c *Config) error {
		c.AnotherLogger = logger
		return nil
	}
}

func WithPort(port int) Option {
	return func(c *Config) error {
		c.Port = port
		return nil
	}
}

// WithViper reads the server section. Environment-only values are visible
// because every field is bound before unmarshalling.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		section := struct {
			Server *Config `mapstructure:"server"`
		}{Server: c}
		if err := configutils.BindEnvsRecursive(v, &section, ""); err != nil {
			return fmt.Errorf("error binding server environment variables: %w", err)
		}
		if err := v.Unmarshal(&section); err != nil {
			return fmt.Errorf("error occurred when unmarshalling server config: %w", err)
		}
		return nil
	}
}

// Validate checks the port range and the request logger patterns
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	return c.RequestLogger.Validate()
}
