package server

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sgl-project/gcs2drive/internal/transfer"
	"github.com/sgl-project/gcs2drive/pkg/logging"
)

type serverParams struct {
	fx.In

	Logger         logging.Interface
	ZapLogger      *zap.Logger
	Transferrer    *transfer.Transferrer
	TransferConfig *transfer.Config
	Gatherer       prometheus.Gatherer `optional:"true"`
}

var Module = fx.Options(
	fx.Provide(
		func(v *viper.Viper, params serverParams) (*Config, error) {
			config, err := NewConfig(
				WithViper(v),
				WithAnotherLog(params.Logger),
			)
			if err != nil {
				return nil, fmt.Errorf("error creating server config: %+v", err)
			}

			if err = config.Validate(); err != nil {
				return nil, fmt.Errorf("error validating server config: %+v", err)
			}
			return config, nil
		},
		func(config *Config, params serverParams) *Server {
			return NewServer(config, params.Transferrer, params.Gatherer, params.ZapLogger,
				NewScratchHealthCheck(params.TransferConfig.ScratchDir))
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, s *Server) {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return s.Shutdown(ctx)
			},
		})
	}),
)
