package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/cata32101/odysseus-app/internal/api"
	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/config"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/session"
	"github.com/cata32101/odysseus-app/internal/storage"
)

// newClient builds the authenticated API client from configuration.
func newClient() (*api.Client, *session.Session, *config.APIConfig, error) {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	sess, err := session.New(cfg.AccessToken)
	if err != nil {
		return nil, nil, nil, err
	}

	return api.NewClient(cfg.BaseURL, sess), sess, cfg, nil
}

// initCache opens the snapshot database. Cache failures are not fatal; the
// dashboard just starts cold.
func initCache(ctx context.Context) (*storage.SQLiteCache, func()) {
	cache, err := storage.NewSQLiteCache(config.CachePath())
	if err != nil {
		common.LogDebug("Snapshot cache unavailable", common.Fields{"error": err})
		return nil, func() {}
	}
	if err := cache.Migrate(ctx); err != nil {
		common.LogDebug("Snapshot cache migration failed", common.Fields{"error": err})
		_ = cache.Close()
		return nil, func() {}
	}
	return cache, func() { _ = cache.Close() }
}

// filterFlags holds the shared company filtering flags.
type filterFlags struct {
	search          string
	statuses        []string
	groups          []string
	minScore        float64
	maxScore        float64
	includeUnscored bool
}

func (f *filterFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.search, "search", "", "substring match on name or domain")
	flags.StringSliceVar(&f.statuses, "status", nil, "filter by pipeline status (repeatable)")
	flags.StringSliceVar(&f.groups, "group", nil, `filter by group name ("No Group" for ungrouped)`)
	flags.Float64Var(&f.minScore, "min-score", filter.ScoreMin, "minimum unified score")
	flags.Float64Var(&f.maxScore, "max-score", filter.ScoreMax, "maximum unified score")
	flags.BoolVar(&f.includeUnscored, "include-unscored", true, "keep unscored companies when a score filter is set")
}

// spec converts the flags into a filter specification.
func (f *filterFlags) spec() filter.Spec {
	spec := filter.New()
	spec.Search = f.search
	for _, s := range f.statuses {
		spec.Statuses = append(spec.Statuses, model.Status(s))
	}
	spec.Groups = append(spec.Groups, f.groups...)
	if f.minScore > filter.ScoreMin || f.maxScore < filter.ScoreMax {
		spec = spec.WithRange(model.DimensionUnified, filter.ScoreRange{Min: f.minScore, Max: f.maxScore})
	}
	spec.IncludeUnscored = f.includeUnscored
	return spec
}

// printCompanies renders a company table to stdout.
func printCompanies(companies []model.Company) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("ID"),
		cli.BoldStyle.Render("Company"),
		cli.BoldStyle.Render("Status"),
		cli.BoldStyle.Render("Group"),
		cli.BoldStyle.Render("Unified"),
		cli.BoldStyle.Render("Added"))

	for _, c := range companies {
		added := ""
		if !c.CreatedAt.IsZero() {
			added = c.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.DisplayName(),
			cli.FormatStatus(c.Status),
			c.GroupName,
			cli.FormatScore(c.UnifiedScore),
			added)
	}
}

// printContacts renders a contact table to stdout.
func printContacts(contacts []model.Contact) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		cli.BoldStyle.Render("ID"),
		cli.BoldStyle.Render("Name"),
		cli.BoldStyle.Render("Email"),
		cli.BoldStyle.Render("Company"),
		cli.BoldStyle.Render("Status"),
		cli.BoldStyle.Render("Campaign"))

	for _, c := range contacts {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Name, c.Email, c.CompanyName, string(c.Status), c.CampaignStatus)
	}
}

// parseIDs converts comma-separated ID arguments into ints.
func parseIDs(args []string) ([]int, error) {
	var ids []int
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			var id int
			if _, err := fmt.Sscanf(part, "%d", &id); err != nil {
				return nil, fmt.Errorf("invalid company ID %q", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, common.ErrEmptySelection
	}
	return ids, nil
}
