package configutils

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

// ViperParams describes how the application's Viper instance is assembled.
type ViperParams struct {
	EnvPrefix  string
	LegacyEnvs map[string]string
	Flags      *pflag.FlagSet
	ConfigFile string
	Fs         afero.Fs
}

// NewViper builds a Viper instance reading the environment, the bound flags
// and, if set, the config file with its imports. A config file is optional:
// serverless deployments are configured through the environment only.
func NewViper(p ViperParams) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(p.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := BindLegacyEnvs(v, p.EnvPrefix, p.LegacyEnvs); err != nil {
		return nil, err
	}

	if p.Flags != nil {
		if err := v.BindPFlags(p.Flags); err != nil {
			return nil, fmt.Errorf("can't bind flags: %w", err)
		}
	}

	if p.ConfigFile != "" {
		fs := p.Fs
		if fs == nil {
			fs = afero.NewOsFs()
		}
		if err := ResolveAndMergeFile(fs, v, p.ConfigFile); err != nil {
			return nil, fmt.Errorf("cannot read config file: %w", err)
		}
	}

	return v, nil
}

// ProvideViper provides *viper.Viper to an fx application.
func ProvideViper(p ViperParams) fx.Option {
	return fx.Provide(func() (*viper.Viper, error) { return NewViper(p) })
}
