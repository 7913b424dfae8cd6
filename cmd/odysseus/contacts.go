package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
)

func contactsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage sourced contacts and outreach",
		Long:  `List contacts, run enrichment, assign contacts to campaigns and edit outreach drafts.`,
	}

	cmd.AddCommand(listContactsCmd())
	cmd.AddCommand(enrichContactCmd())
	cmd.AddCommand(assignCampaignCmd())
	cmd.AddCommand(editMessageCmd())

	return cmd
}

func listContactsCmd() *cobra.Command {
	var (
		search   string
		statuses []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sourced contacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contacts, err := client.ListContacts(cmd.Context())
			if err != nil {
				return err
			}

			spec := filter.New()
			spec.Search = search
			for _, s := range statuses {
				spec.ContactStatuses = append(spec.ContactStatuses, model.ContactStatus(s))
			}
			contacts = spec.Contacts(contacts)

			if len(contacts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No contacts match the current filters."))
				return nil
			}
			printContacts(contacts)
			return nil
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "substring match on name, email, title or company")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "filter by enrichment status (repeatable)")

	return cmd
}

func enrichContactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "enrich <id>",
		Short: "Approve a contact and start enrichment",
		Long: `Approve a sourced contact. Approval and enrichment are a single
operation: the backend marks the contact approved and immediately queues the
email lookup. Only Sourced and Failed Enrichment contacts are eligible.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID %q", args[0])
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contact, err := client.ApproveContact(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s is now %s", contact.Name, contact.Status)))
			return nil
		},
	}
}

func assignCampaignCmd() *cobra.Command {
	var campaignType string

	cmd := &cobra.Command{
		Use:   "campaign <id>",
		Short: "Assign an enriched contact to a campaign",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID %q", args[0])
			}

			ct := model.CampaignType(campaignType)
			if ct != model.CampaignEmail && ct != model.CampaignLinkedIn {
				return fmt.Errorf("invalid campaign type %q (email or linkedin)", campaignType)
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contact, err := client.AddContactToCampaign(cmd.Context(), id, ct)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("%s added to the %s campaign", contact.Name, ct)))
			return nil
		},
	}

	cmd.Flags().StringVar(&campaignType, "type", "email", "campaign type (email or linkedin)")
	return cmd
}

func editMessageCmd() *cobra.Command {
	var (
		subject string
		body    string
	)

	cmd := &cobra.Command{
		Use:   "message <id>",
		Short: "Edit a contact's outreach draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid contact ID %q", args[0])
			}
			if subject == "" && body == "" {
				return fmt.Errorf("nothing to update: provide --subject and/or --body")
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contact, err := client.UpdateContactMessage(cmd.Context(), id, subject, body)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Updated outreach draft for " + contact.Name))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "new subject line")
	cmd.Flags().StringVar(&body, "body", "", "new email body")
	return cmd
}
