package cmd

import (
	"fmt"

	"github.com/sotfmods/api/internal/app"
	"github.com/sotfmods/api/internal/jobs"
	"github.com/spf13/cobra"
)

func ReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute download, favorite and comment counters once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				n, err := a.MaintenanceService.ReconcileCounters(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Printf("Reconciled %d mods\n", n)
				return nil
			})
		},
	}
}

func MentionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mentions",
		Short: "Send pending mention emails once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				for _, job := range a.Jobs() {
					if job.Name == "send-mentions" {
						return jobs.RunOnce(cmd.Context(), job)
					}
				}
				return fmt.Errorf("mention job not registered")
			})
		},
	}
}

func DeleteUnapprovedCmd() *cobra.Command {
	var dryRun bool

	c := &cobra.Command{
		Use:   "delete-unapproved",
		Short: "Delete every mod still waiting for approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				mods, err := a.MaintenanceService.DeleteUnapproved(dryRun)
				if err != nil {
					return err
				}
				for _, mod := range mods {
					fmt.Printf("%s\t%s\t%s\n", mod.ModID, mod.Name, mod.CreatedAt.Format("2006-01-02"))
				}
				if dryRun {
					fmt.Printf("%d mods would be deleted\n", len(mods))
				} else {
					fmt.Printf("Deleted %d mods\n", len(mods))
				}
				return nil
			})
		},
	}
	c.Flags().BoolVar(&dryRun, "dry-run", false, "list the mods without deleting them")
	return c
}

func DeleteTokensCmd() *cobra.Command {
	var expiredOnly bool

	c := &cobra.Command{
		Use:   "delete-tokens",
		Short: "Sign everyone out by deleting all tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.App) error {
				var n int64
				var err error
				if expiredOnly {
					n, err = a.MaintenanceService.DeleteExpiredTokens()
				} else {
					n, err = a.MaintenanceService.DeleteAllTokens()
				}
				if err != nil {
					return err
				}
				fmt.Printf("Deleted %d tokens\n", n)
				return nil
			})
		},
	}
	c.Flags().BoolVar(&expiredOnly, "expired", false, "only delete expired tokens")
	return c
}
