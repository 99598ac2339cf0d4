package gcp

import (
	"context"
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/pkg/auth"
	"github.com/sgl-project/gcs2drive/pkg/configutils"
)

var Module = fx.Provide(
	fx.Annotate(NewFactory, fx.As(new(auth.Factory))),
	provideCredentials,
)

// NewConfig reads the authentication settings from the root of v.
func NewConfig(v *viper.Viper) (auth.Config, error) {
	var config auth.Config
	if err := configutils.BindEnvsRecursive(v, &config, ""); err != nil {
		return auth.Config{}, fmt.Errorf("error binding auth environment: %w", err)
	}
	if err := v.Unmarshal(&config); err != nil {
		return auth.Config{}, fmt.Errorf("error unmarshalling auth config: %w", err)
	}
	return config, nil
}

func provideCredentials(v *viper.Viper, factory auth.Factory) (auth.Credentials, error) {
	config, err := NewConfig(v)
	if err != nil {
		return nil, err
	}
	return factory.Create(context.Background(), config)
}
