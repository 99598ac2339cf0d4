package transfer

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	"github.com/sgl-project/gcs2drive/pkg/logging"
)

type transferParams struct {
	fx.In

	Logger      logging.Interface
	Credentials auth.Credentials
	Fs          afero.Fs
	Registerer  prometheus.Registerer `optional:"true"`
}

var Module = fx.Provide(
	func(v *viper.Viper, params transferParams) (*Config, error) {
		config, err := NewConfig(
			WithViper(v),
			WithAnotherLog(params.Logger),
		)
		if err != nil {
			return nil, fmt.Errorf("error creating transfer config: %+v", err)
		}

		if err = config.Validate(); err != nil {
			return nil, fmt.Errorf("error validating transfer config: %+v", err)
		}
		return config, nil
	},
	func(params transferParams) *Metrics {
		return NewMetrics(params.Registerer)
	},
	func(params transferParams) ClientFactory {
		return NewFactory(params.Credentials, params.Fs, params.Logger)
	},
	func(config *Config, factory ClientFactory, params transferParams, metrics *Metrics) *Transferrer {
		return NewTransferrer(config, factory, params.Fs, metrics)
	},
)
