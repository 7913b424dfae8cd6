// Package model defines the pipeline entities shared across the application.
package model

import "time"

// Status represents a company's position in the vetting pipeline.
type Status string

// Company pipeline statuses.
const (
	StatusNew      Status = "New"
	StatusVetting  Status = "Vetting"
	StatusVetted   Status = "Vetted"
	StatusApproved Status = "Approved"
	StatusFailed   Status = "Failed"
	StatusRejected Status = "Rejected"
)

// AllStatuses lists every company status in pipeline order.
func AllStatuses() []Status {
	return []Status{StatusNew, StatusVetting, StatusVetted, StatusApproved, StatusFailed, StatusRejected}
}

// UnscoredStatuses are the statuses that by definition carry no scores yet.
// The synchronization controller uses this set for the auxiliary fetch when
// a score-range filter is active.
func UnscoredStatuses() []Status {
	return []Status{StatusNew, StatusFailed}
}

// Source is a citation backing a score's reasoning.
type Source struct {
	Name    string `json:"name,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Company represents a prospective company in the vetting pipeline.
// Score fields and their paired reasoning/sources are either both present or
// both absent; the UI tolerates violations of that pairing.
type Company struct {
	ID        int            `json:"id"`
	Name      string         `json:"name,omitempty"`
	Domain    string         `json:"domain"`
	Status    Status         `json:"status"`
	GroupName string         `json:"group_name,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	Apollo    map[string]any `json:"apollo_data,omitempty"`

	WebsiteURL  string `json:"website_url,omitempty"`
	LinkedInURL string `json:"company_linkedin_url,omitempty"`

	UnifiedScore *float64 `json:"unified_score,omitempty"`

	GeographyScore     *float64 `json:"geography_score,omitempty"`
	GeographyReasoning string   `json:"geography_reasoning,omitempty"`
	GeographySources   []Source `json:"geography_sources,omitempty"`

	IndustryScore     *float64 `json:"industry_score,omitempty"`
	IndustryReasoning string   `json:"industry_reasoning,omitempty"`
	IndustrySources   []Source `json:"industry_sources,omitempty"`

	RussiaScore     *float64 `json:"russia_score,omitempty"`
	RussiaReasoning string   `json:"russia_reasoning,omitempty"`
	RussiaSources   []Source `json:"russia_sources,omitempty"`

	SizeScore     *float64 `json:"size_score,omitempty"`
	SizeReasoning string   `json:"size_reasoning,omitempty"`
	SizeSources   []Source `json:"size_sources,omitempty"`

	InvestmentReasoning string `json:"investment_reasoning,omitempty"`
	BusinessSummary     string `json:"business_summary,omitempty"`
	InvestmentsSummary  string `json:"investments_summary,omitempty"`
	CompanySize         string `json:"company_size,omitempty"`
	RussiaTies          string `json:"russia_ties,omitempty"`
	UkraineTiesAnalysis string `json:"ukraine_ties_analysis,omitempty"`
	HighRiskAnalysis    string `json:"high_risk_regions_analysis,omitempty"`
}

// DisplayName returns the company name, falling back to the domain.
func (c Company) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Domain
}

// ScoreDimension identifies one of the five score axes.
type ScoreDimension string

// Score dimensions.
const (
	DimensionUnified   ScoreDimension = "unified_score"
	DimensionGeography ScoreDimension = "geography_score"
	DimensionIndustry  ScoreDimension = "industry_score"
	DimensionRussia    ScoreDimension = "russia_score"
	DimensionSize      ScoreDimension = "size_score"
)

// ScoreDimensions lists every dimension, unified first.
func ScoreDimensions() []ScoreDimension {
	return []ScoreDimension{DimensionUnified, DimensionGeography, DimensionIndustry, DimensionRussia, DimensionSize}
}

// Score returns the company's value for the given dimension, or nil when the
// company has not been scored on it.
func (c Company) Score(dim ScoreDimension) *float64 {
	switch dim {
	case DimensionUnified:
		return c.UnifiedScore
	case DimensionGeography:
		return c.GeographyScore
	case DimensionIndustry:
		return c.IndustryScore
	case DimensionRussia:
		return c.RussiaScore
	case DimensionSize:
		return c.SizeScore
	default:
		return nil
	}
}
