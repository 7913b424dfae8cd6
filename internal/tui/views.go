package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/pager"
	"github.com/cata32101/odysseus-app/internal/syncer"
)

func newCompanyTable() table.Model {
	columns := []table.Column{
		{Title: " ", Width: 2},
		{Title: "ID", Width: 6},
		{Title: "Company", Width: 28},
		{Title: "Status", Width: 10},
		{Title: "Group", Width: 14},
		{Title: "Unified", Width: 8},
		{Title: "Geo", Width: 6},
		{Title: "Ind", Width: 6},
		{Title: "Rus", Width: 6},
		{Title: "Size", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return t
}

func newContactTable() table.Model {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 30},
		{Title: "Company", Width: 22},
		{Title: "Status", Width: 18},
		{Title: "Campaign", Width: 16},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
	)
	t.SetStyles(tableStyles())
	return t
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Bold(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#333"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(cli.PrimaryColor)
	return s
}

func companyRows(s syncer.Snapshot, selected map[int]struct{}) []table.Row {
	rows := make([]table.Row, 0, len(s.Companies))
	for _, c := range s.Companies {
		mark := " "
		if _, ok := selected[c.ID]; ok {
			mark = "●"
		}
		rows = append(rows, table.Row{
			mark,
			fmt.Sprintf("%d", c.ID),
			c.DisplayName(),
			string(c.Status),
			c.GroupName,
			plainScore(c.UnifiedScore),
			plainScore(c.GeographyScore),
			plainScore(c.IndustryScore),
			plainScore(c.RussiaScore),
			plainScore(c.SizeScore),
		})
	}
	return rows
}

func contactRows(s syncer.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(s.Contacts))
	for _, c := range s.Contacts {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", c.ID),
			c.Name,
			c.Email,
			c.CompanyName,
			string(c.Status),
			c.CampaignStatus,
		})
	}
	return rows
}

func plainScore(score *float64) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *score)
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.spinner.View() + " loading pipeline..."
	}
	if m.state == StateHelp {
		return m.renderHelp()
	}

	var body string
	switch m.view {
	case ViewCompanies:
		body = m.renderCompanies()
	case ViewContacts:
		body = m.renderContacts()
	case ViewStats:
		body = m.renderStats()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := cli.FormatTitle("Odysseus Pipeline")

	loading := ""
	if m.snapshot.Loading {
		loading = " " + m.spinner.View()
	}

	viewName := map[View]string{
		ViewCompanies: "Companies",
		ViewContacts:  "Contacts",
		ViewStats:     "Statistics",
	}[m.view]

	return lipgloss.JoinHorizontal(lipgloss.Center,
		title,
		cli.SubtleStyle.Render("  │  "+viewName),
		loading,
	)
}

func (m Model) renderCompanies() string {
	var b strings.Builder
	b.WriteString(m.companyTable.View())
	b.WriteString("\n")
	b.WriteString(m.renderPagination())

	switch m.state {
	case StateSearch:
		b.WriteString("\n" + cli.BoldStyle.Render("Search: ") + m.searchInput.View())
	case StateGroupInput:
		b.WriteString("\n" + cli.BoldStyle.Render("Move to group: ") + m.groupInput.View())
	case StateConfirmDelete:
		b.WriteString("\n" + cli.FormatWarning(fmt.Sprintf(
			"Delete %d selected companies? (y/n)", len(m.snapshot.Selected))))
	}

	return b.String()
}

func (m Model) renderContacts() string {
	return m.contactTable.View()
}

func (m Model) renderStats() string {
	s := m.snapshot.Stats

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Total companies    %d\n", s.Total))
	b.WriteString(fmt.Sprintf("Added this week    %d\n", s.AddedThisWeek))
	b.WriteString(fmt.Sprintf("Weekly growth      %.1f%%\n\n", s.WeeklyGrowth))

	for _, status := range model.AllStatuses() {
		b.WriteString(fmt.Sprintf("%-10s %d\n", cli.FormatStatus(status), s.ByStatus[status]))
	}

	return cli.RenderBox("Pipeline Statistics", strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderPagination() string {
	s := m.snapshot

	count := fmt.Sprintf("%d", s.TotalCount)
	if s.ApproxCount {
		count = "~" + count
	}

	dir := "↑"
	if s.SortDir == pager.Descending {
		dir = "↓"
	}

	line := fmt.Sprintf("Page %d/%d · %d per page · %s companies · sort %s %s",
		s.Page, s.TotalPages, s.PageSize, count, s.SortField, dir)
	if n := len(s.Selected); n > 0 {
		line += fmt.Sprintf(" · %d selected", n)
	}
	if s.Filter.Active() {
		line += " · filtered"
	}

	return cli.SubtleStyle.Render(line)
}

func (m Model) renderFooter() string {
	if m.statusLine != "" {
		return m.statusLine
	}

	var parts []string
	for _, binding := range m.keymap.ShortHelp() {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	return cli.SubtleStyle.Render(strings.Join(parts, "  ·  "))
}

func (m Model) renderHelp() string {
	var b strings.Builder
	for _, group := range m.keymap.FullHelp() {
		for _, binding := range group {
			b.WriteString(fmt.Sprintf("%-14s %s\n", binding.Help().Key, binding.Help().Desc))
		}
		b.WriteString("\n")
	}
	return cli.RenderBox("Keyboard Shortcuts", strings.TrimRight(b.String(), "\n"))
}

func userMessage(err error) string {
	return common.UserMessage(err)
}
