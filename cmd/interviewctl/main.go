// Command interviewctl runs local documents through the interview pipeline.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "interviewctl",
		Short:        "Extract document text and generate interview questions",
		SilenceUsage: true,
	}
	root.AddCommand(newExtractCmd(), newGenerateCmd())
	return root
}
