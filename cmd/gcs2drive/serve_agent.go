package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/internal/server"
	"github.com/sgl-project/gcs2drive/internal/transfer"
	authgcp "github.com/sgl-project/gcs2drive/pkg/auth/gcp"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/scratch"
)

// ServeAgent runs the HTTP adapter
type ServeAgent struct {
	server *server.Server
}

func (s *ServeAgent) Name() string {
	return "serve"
}

func (s *ServeAgent) ShortDescription() string {
	return "Serve transfers over HTTP"
}

func (s *ServeAgent) LongDescription() string {
	return "Serve accepts GET or POST requests carrying bucket and filename and copies that object to the configured Drive folder."
}

func (s *ServeAgent) ConfigureCommand(cmd *cobra.Command) {
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runAgentCommand(cmd, s, s.Start)
	}
}

func (s *ServeAgent) FxModules() []fx.Option {
	return []fx.Option{
		logging.Module,
		logging.UseLoggingInterface,
		scratch.Module,
		metricsModule,
		authgcp.Module,
		transfer.Module,
		server.Module,
		fx.Populate(&s.server),
	}
}

// Start blocks until the server is shut down
func (s *ServeAgent) Start() error {
	return s.server.Start()
}

func NewServeAgent() *ServeAgent {
	return &ServeAgent{}
}
