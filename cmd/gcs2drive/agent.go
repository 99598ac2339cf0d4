package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var configFilePath string
var debug bool

// AgentModule is a command backed by an fx application
type AgentModule interface {
	Name() string
	ShortDescription() string
	LongDescription() string
	FxModules() []fx.Option

	// ConfigureCommand adds flags and sets the Run function
	ConfigureCommand(*cobra.Command)

	// Start is the command's action once the application is wired
	Start() error
}

// CreateAgentCommand creates a cobra command for an agent module
func CreateAgentCommand(module AgentModule) *cobra.Command {
	cmd := &cobra.Command{
		Use:   module.Name(),
		Short: module.ShortDescription(),
		Long:  module.LongDescription(),
	}

	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", "", "path to config file")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")

	module.ConfigureCommand(cmd)

	return cmd
}

// agentOptions assembles the fx options shared by every command
func agentOptions(cmd *cobra.Command, module AgentModule) []fx.Option {
	options := []fx.Option{configProvider(cmd)}
	return append(options, module.FxModules()...)
}

// runAgentCommand runs action inside the module's fx application and exits non-zero when it fails
func runAgentCommand(cmd *cobra.Command, module AgentModule, action func() error) {
	options := agentOptions(cmd, module)

	options = append(options, fx.Invoke(func(lc fx.Lifecycle, l *zap.Logger, sh fx.Shutdowner) {
		lc.Append(
			fx.Hook{
				OnStart: func(context.Context) error {
					go func() {
						if err := action(); err != nil {
							l.Error(module.Name()+" encountered an error during execution", zap.Error(err))
							_ = l.Sync()
							os.Exit(1)
						}
						if err := sh.Shutdown(); err != nil {
							l.Error("Failed to shutdown "+module.Name(), zap.Error(err))
						}
					}()
					return nil
				},
			})
	}))

	app := fx.New(fx.Options(options...))
	if err := app.Err(); err != nil {
		_, _ = cmd.ErrOrStderr().Write([]byte("ERROR: " + err.Error() + "\n"))
		os.Exit(1)
	}
	app.Run()
}
