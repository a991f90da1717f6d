package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	logger := log.New(os.Stdout, "[colonysim] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Printf("interrupted")
			os.Exit(130)
		}
		logger.Printf("error: %v", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *log.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "colonysim",
		Short:         "Planet colony building simulation",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.AddCommand(
		newRunCommand(logger),
		newValidateCommand(logger),
	)
	return root
}
