package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/config"
	"github.com/cata32101/odysseus-app/internal/sheets"
	"github.com/cata32101/odysseus-app/internal/stats"
)

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the pipeline report to Google Sheets",
		Long: `Export the full company set with statistics to a Google Sheets
spreadsheet. Authentication uses either a service account key or OAuth2
refresh token; see the sheets section of the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			sheetsCfg, err := config.LoadSheetsConfig()
			if err != nil {
				return err
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			companies, err := client.ListAllCompanies(ctx)
			if err != nil {
				return err
			}

			writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
			if err != nil {
				return err
			}

			summary := stats.Compute(companies, time.Now())
			if err := writer.Write(ctx, companies, summary); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d companies", len(companies))))
			return nil
		},
	}
}
