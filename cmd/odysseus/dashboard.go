package main

import (
	"github.com/spf13/cobra"

	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/realtime"
	"github.com/cata32101/odysseus-app/internal/syncer"
	"github.com/cata32101/odysseus-app/internal/tui"
)

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive pipeline dashboard",
		Long: `Open the full-screen dashboard: filterable company and contact tables,
pipeline statistics, bulk actions and live updates pushed from the backend.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			client, sess, apiCfg, err := newClient()
			if err != nil {
				return err
			}

			cache, closeCache := initCache(ctx)
			defer closeCache()

			cfg := syncer.DefaultConfig()
			if cache != nil {
				cfg.Cache = cache
			}
			ctrl := syncer.New(client, sess, cfg)

			// Live change notifications are an enhancement; the dashboard
			// still works on manual refresh without them.
			if apiCfg.RealtimeURL != "" {
				listener := realtime.New(apiCfg.RealtimeURL, sess.AccessToken(), ctrl, realtime.DefaultOptions())
				go func() {
					if runErr := listener.Run(ctx); runErr != nil && ctx.Err() == nil {
						common.LogDebug("Realtime listener stopped", common.Fields{"error": runErr})
					}
				}()
			}

			return tui.Run(ctx, ctrl)
		},
	}
}
