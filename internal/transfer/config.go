package transfer

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/sgl-project/gcs2drive/pkg/configutils"
	"github.com/sgl-project/gcs2drive/pkg/constants"
	"github.com/sgl-project/gcs2drive/pkg/logging"
)

const (
	// ChunkGranularity is the unit Drive requires for every non-final range of a resumable upload.
	ChunkGranularity = 256 * 1024
	// DefaultChunkSize is 200 units, i.e. 50 MiB.
	DefaultChunkSize = 200 * ChunkGranularity
)

// LegacyEnvs maps config keys to the environment names the function was first deployed with.
var LegacyEnvs = map[string]string{
	"drive_folder": constants.LegacyDriveFolderEnv,
	"chunk_size":   constants.LegacyChunkSizeEnv,
}

type Config struct {
	AnotherLogger logging.Interface

	DriveFolder string `mapstructure:"drive_folder" validate:"required"`
	ChunkSize   int64  `mapstructure:"chunk_size" validate:"gt=0"`
	Move        bool   `mapstructure:"move"`
	ScratchDir  string `mapstructure:"scratch_dir"`
}

type Option func(*Config) error

// Apply applies the given options to the configuration.
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

// defaultConfig returns a new configuration with default values.
func defaultConfig() *Config {
	return &Config{
		ChunkSize: DefaultChunkSize,
	}
}

// NewConfig builds and returns a new configuration from the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}

	return c, nil
}

// WithAnotherLog sets the logger for the configuration.
func WithAnotherLog(logger logging.Interface) Option {
	return func(c *Config) error {
		c.AnotherLogger = logger
		return nil
	}
}

// WithDriveFolder sets the destination folder.
func WithDriveFolder(folderID string) Option {
	return func(c *Config) error {
		c.DriveFolder = folderID
		return nil
	}
}

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int64) Option {
	return func(c *Config) error {
		c.ChunkSize = size
		return nil
	}
}

// WithMove enables deleting the source after a verified transfer.
func WithMove(move bool) Option {
	return func(c *Config) error {
		c.Move = move
		return nil
	}
}

// WithScratchDir sets the parent of the per-transfer scratch directories.
func WithScratchDir(dir string) Option {
	return func(c *Config) error {
		c.ScratchDir = dir
		return nil
	}
}

// WithViper sets the viper for the configuration.
func WithViper(v *viper.Viper) Option {
	return func(c *Config) error {
		if err := configutils.BindEnvsRecursive(v, c, ""); err != nil {
			return fmt.Errorf("error occurred when binding environment variables: %+v", err)
		}

		if err := v.Unmarshal(c); err != nil {
			return fmt.Errorf("error occurred when unmarshalling config: %+v", err)
		}
		return nil
	}
}

func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.ChunkSize%ChunkGranularity != 0 {
		return fmt.Errorf("chunk_size %d is not a multiple of %d bytes", c.ChunkSize, ChunkGranularity)
	}
	return nil
}
