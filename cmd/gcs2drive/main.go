package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sgl-project/gcs2drive/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "gcs2drive",
	Short:   "Copy Cloud Storage objects to Google Drive",
	Long:    "gcs2drive copies objects from a Cloud Storage bucket into a Drive folder through resumable uploads and verifies them by MD5.",
	Version: version.String(),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(CreateAgentCommand(NewServeAgent()))
	rootCmd.AddCommand(CreateAgentCommand(NewTransferAgent()))
}
