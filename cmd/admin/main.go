package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sotfmods/api/cmd/admin/cmd"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "admin",
		Short:        "Maintenance tasks for the SOTF-Mods API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.ReconcileCmd())
	rootCmd.AddCommand(cmd.MentionsCmd())
	rootCmd.AddCommand(cmd.DeleteUnapprovedCmd())
	rootCmd.AddCommand(cmd.DeleteTokensCmd())
	rootCmd.AddCommand(cmd.MigrateDownCmd())
	rootCmd.AddCommand(cmd.ConfigureCORSCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
