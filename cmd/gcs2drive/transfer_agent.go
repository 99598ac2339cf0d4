package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/sgl-project/gcs2drive/internal/transfer"
	authgcp "github.com/sgl-project/gcs2drive/pkg/auth/gcp"
	"github.com/sgl-project/gcs2drive/pkg/logging"
	"github.com/sgl-project/gcs2drive/pkg/scratch"
)

// transferRunner is the part of *transfer.Transferrer the command needs
type transferRunner interface {
	Transfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
}

// TransferAgent copies a single object and prints the result
type TransferAgent struct {
	transferrer *transfer.Transferrer
	runner      transferRunner
	request     transfer.Request
	out         io.Writer
}

func (t *TransferAgent) Name() string {
	return "transfer"
}

func (t *TransferAgent) ShortDescription() string {
	return "Copy one object to Drive"
}

func (t *TransferAgent) LongDescription() string {
	return "Transfer copies gs://<bucket>/<filename> to the configured Drive folder, prints the JSON result and exits non-zero on failure."
}

func (t *TransferAgent) ConfigureCommand(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.request.Bucket, "bucket", "", "source bucket")
	cmd.Flags().StringVar(&t.request.Object, "filename", "", "source object name")

	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("filename")

	cmd.Run = func(cmd *cobra.Command, args []string) {
		t.out = cmd.OutOrStdout()
		runAgentCommand(cmd, t, t.Start)
	}
}

func (t *TransferAgent) FxModules() []fx.Option {
	return []fx.Option{
		logging.Module,
		logging.UseLoggingInterface,
		scratch.Module,
		metricsModule,
		authgcp.Module,
		transfer.Module,
		fx.Populate(&t.transferrer),
	}
}

// Start runs the transfer and writes the result as JSON
func (t *TransferAgent) Start() error {
	runner := t.runner
	if runner == nil {
		runner = t.transferrer
	}
	out := t.out
	if out == nil {
		out = os.Stdout
	}

	result, err := runner.Transfer(context.Background(), t.request)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(result)
}

func NewTransferAgent() *TransferAgent {
	return &TransferAgent{}
}
