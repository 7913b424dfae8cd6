package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/model"
)

func campaignsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campaigns",
		Short: "Archive and browse outreach campaigns",
	}

	cmd.AddCommand(archiveCampaignCmd())
	cmd.AddCommand(listPastCampaignsCmd())
	cmd.AddCommand(showPastCampaignCmd())

	return cmd
}

func archiveCampaignCmd() *cobra.Command {
	var campaignType string

	cmd := &cobra.Command{
		Use:   "archive <name>",
		Short: "Archive the active campaign under a name",
		Long: `Archive every contact currently in the campaign of the given type.
The archived contacts are snapshotted under the campaign name and their
campaign slots are freed for the next cohort.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct := model.CampaignType(campaignType)
			if ct != model.CampaignEmail && ct != model.CampaignLinkedIn {
				return fmt.Errorf("invalid campaign type %q (email or linkedin)", campaignType)
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.ArchiveCampaign(cmd.Context(), ct, args[0])
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&campaignType, "type", "email", "campaign type (email or linkedin)")
	return cmd
}

func listPastCampaignsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "past",
		Short: "List archived campaigns",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			campaigns, err := client.ListPastCampaigns(cmd.Context())
			if err != nil {
				return err
			}

			if len(campaigns) == 0 {
				fmt.Println(cli.InfoStyle.Render("No archived campaigns yet."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				cli.BoldStyle.Render("ID"),
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Type"),
				cli.BoldStyle.Render("Contacts"),
				cli.BoldStyle.Render("Archived"))

			for _, c := range campaigns {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
					c.ID, c.Name, string(c.CampaignType), c.ContactsCount,
					c.ArchivedAt.Format("2006-01-02"))
			}
			return nil
		},
	}
}

func showPastCampaignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show the contacts archived with a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid campaign ID %q", args[0])
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contacts, err := client.GetPastCampaignDetails(cmd.Context(), id)
			if err != nil {
				return err
			}

			if len(contacts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No contacts in this campaign."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "%s\t%s\t%s\n",
				cli.BoldStyle.Render("Name"),
				cli.BoldStyle.Render("Email"),
				cli.BoldStyle.Render("Company"))

			// ContactData is the historical snapshot, not the live record.
			for _, c := range contacts {
				fmt.Fprintf(w, "%s\t%s\t%s\n",
					stringField(c.ContactData, "name"),
					stringField(c.ContactData, "email"),
					stringField(c.ContactData, "company_name"))
			}
			return nil
		},
	}
}

func stringField(data map[string]any, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
