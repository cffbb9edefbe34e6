package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fieo/orgregistry/pkg/configuration"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "registry-sync",
		Short:         "Reconcile the organizational registry with its source files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newMigrateCmd())
	return cmd
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}

// useConfig returns the process configuration, turning a load failure into a
// usage error instead of a panic.
func useConfig() (conf *configuration.Configuration, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = withCode(exitUsage, fmt.Errorf("configuration: %v", r))
		}
	}()
	return configuration.Use(), nil
}
