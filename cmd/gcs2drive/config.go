package main

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/internal/server"
	"github.com/sgl-project/gcs2drive/internal/transfer"
	"github.com/sgl-project/gcs2drive/pkg/configutils"
	"github.com/sgl-project/gcs2drive/pkg/constants"
)

// configProvider provides the viper instance: environment (prefixed and legacy names), flags and the
// optional config file.
func configProvider(cli *cobra.Command) fx.Option {
	return configutils.ProvideViper(configutils.ViperParams{
		EnvPrefix:  constants.EnvPrefix,
		LegacyEnvs: constants.MergeEnvs(transfer.LegacyEnvs, server.LegacyEnvs),
		Flags:      cli.Flags(),
		ConfigFile: configFilePath,
		Fs:         afero.NewOsFs(),
	})
}
