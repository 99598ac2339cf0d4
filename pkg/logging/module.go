package logging

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module reads the "logging" section from Viper and provides both *zap.Logger
// and Interface.
var Module fx.Option = fx.Provide(
	provideZapLogger,
	provideInterface,
)

func provideZapLogger(v *viper.Viper) (*zap.Logger, error) {
	config, err := NewConfig(WithViper(v), WithDebug(v.GetBool("debug")))
	if err != nil {
		return nil, fmt.Errorf("error reading logging configuration: %w", err)
	}
	return NewLogger(config)
}

func provideInterface(l *zap.Logger) Interface { return ForZap(l) }
