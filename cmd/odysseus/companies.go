package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/pager"
)

func companiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "companies",
		Short: "Manage the company vetting pipeline",
		Long:  `List, add, vet, approve, reject and organize prospective companies.`,
	}

	cmd.AddCommand(listCompaniesCmd())
	cmd.AddCommand(addCompaniesCmd())
	cmd.AddCommand(vetCompaniesCmd())
	cmd.AddCommand(approveCompaniesCmd())
	cmd.AddCommand(rejectCompaniesCmd())
	cmd.AddCommand(deleteCompaniesCmd())
	cmd.AddCommand(moveCompaniesCmd())
	cmd.AddCommand(retryFailedCmd())
	cmd.AddCommand(companyContactsCmd())
	cmd.AddCommand(companyPDFCmd())

	return cmd
}

func listCompaniesCmd() *cobra.Command {
	var (
		flags    filterFlags
		page     int
		pageSize int
		sortBy   string
		sortDesc bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies in the pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			dir := pager.Ascending
			if sortDesc {
				dir = pager.Descending
			}

			result, err := client.ListCompanies(cmd.Context(), page, pageSize, flags.spec(), sortBy, dir)
			if err != nil {
				return err
			}

			if len(result.Data) == 0 {
				fmt.Println(cli.InfoStyle.Render("No companies match the current filters."))
				return nil
			}

			printCompanies(result.Data)
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("\nPage %d · %d of %d companies shown", page, len(result.Data), result.Count)))
			return nil
		},
	}

	flags.register(cmd.Flags())
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", pager.DefaultPageSize, "results per page")
	cmd.Flags().StringVar(&sortBy, "sort-by", "id", "sort field")
	cmd.Flags().BoolVar(&sortDesc, "desc", true, "sort descending")

	return cmd
}

func addCompaniesCmd() *cobra.Command {
	var (
		groupName string
		fromFile  string
	)

	cmd := &cobra.Command{
		Use:   "add [domain ...]",
		Short: "Add companies by domain",
		Long: `Add companies to the pipeline by domain. Domains can be passed as
arguments or read one per line from a file with --file. Duplicates already in
the pipeline are skipped and reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			domains := args
			if fromFile != "" {
				fileDomains, err := readDomainsFile(fromFile)
				if err != nil {
					return err
				}
				domains = append(domains, fileDomains...)
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			bar := progressbar.NewOptions(len(domains),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowCount(),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription("[cyan][bold]Adding companies...[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
			)

			result, err := client.AddCompanies(cmd.Context(), domains, groupName, func(done, _ int) {
				_ = bar.Set(done)
			})
			_ = bar.Finish()
			fmt.Println()

			// A mid-run failure still reports what the earlier chunks added.
			if result.AddedCount > 0 {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Added %d companies", result.AddedCount)))
			}
			if len(result.SkippedDomains) > 0 {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("Skipped %d duplicates: %s",
					len(result.SkippedDomains), strings.Join(result.SkippedDomains, ", "))))
			}
			return err
		},
	}

	cmd.Flags().StringVar(&groupName, "group", "", "assign added companies to this group")
	cmd.Flags().StringVar(&fromFile, "file", "", "read domains from file, one per line")

	return cmd
}

func readDomainsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open domains file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var domains []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains = append(domains, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read domains file: %w", err)
	}
	return domains, nil
}

func vetCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vet <id>[,id...]",
		Short: "Start vetting for companies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.VetCompanies(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}
}

func approveCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "approve <id>[,id...]",
		Short: "Approve vetted companies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.ApproveCompanies(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}
}

func rejectCompaniesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reject <id>[,id...]",
		Short: "Reject companies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.RejectCompanies(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}
}

func deleteCompaniesCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>[,id...]",
		Short: "Delete companies from the pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			if !force {
				fmt.Printf("Delete %d companies? [y/N] ", len(ids))
				reader := bufio.NewReader(os.Stdin)
				answer, _ := reader.ReadString('\n')
				if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
					fmt.Println(cli.InfoStyle.Render("Aborted."))
					return nil
				}
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.DeleteCompanies(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	return cmd
}

func moveCompaniesCmd() *cobra.Command {
	var groupName string

	cmd := &cobra.Command{
		Use:   "move <id>[,id...] --group <name>",
		Short: "Move companies to a group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.ChangeCompanyGroup(cmd.Context(), ids, groupName)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}

	cmd.Flags().StringVar(&groupName, "group", "", "target group name")
	_ = cmd.MarkFlagRequired("group")
	return cmd
}

func retryFailedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retry-failed",
		Short: "Re-queue all failed companies for vetting",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			resp, err := client.RetryFailedCompanies(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(resp.Message))
			return nil
		},
	}
}

func companyContactsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "contacts <id>",
		Short: "List the contacts sourced for a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid company ID %q", args[0])
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			contacts, err := client.GetCompanyContacts(cmd.Context(), id)
			if err != nil {
				return err
			}

			if len(contacts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No contacts sourced for this company yet."))
				return nil
			}
			printContacts(contacts)
			return nil
		},
	}
}

func companyPDFCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Download a company's vetting report as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid company ID %q", args[0])
			}

			client, _, _, err := newClient()
			if err != nil {
				return err
			}

			data, err := client.DownloadCompanyPDF(cmd.Context(), id)
			if err != nil {
				return err
			}

			if output == "" {
				output = fmt.Sprintf("company-%d.pdf", id)
			}
			if err := os.WriteFile(output, data, 0600); err != nil {
				return fmt.Errorf("failed to write PDF: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Saved " + output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: company-<id>.pdf)")
	return cmd
}
