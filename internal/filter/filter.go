// Package filter implements the composite filter specification applied to
// pipeline entities. The same semantics run in two places: client-side over
// in-memory contact lists, and server-side for the paginated companies query
// (the spec is encoded as query parameters). Both sides must stay identical.
package filter

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/cata32101/odysseus-app/internal/model"
)

// GroupNone is the sentinel group label matching companies with no group.
const GroupNone = "No Group"

// Score range bounds. A range equal to [ScoreMin, ScoreMax] is unconstrained.
const (
	ScoreMin = 0.0
	ScoreMax = 10.0
)

// ScoreRange is an inclusive [Min, Max] constraint on one score dimension.
type ScoreRange struct {
	Min float64
	Max float64
}

// FullRange returns the unconstrained score range.
func FullRange() ScoreRange {
	return ScoreRange{Min: ScoreMin, Max: ScoreMax}
}

// Narrowed reports whether the range constrains anything.
func (r ScoreRange) Narrowed() bool {
	return r.Min > ScoreMin || r.Max < ScoreMax
}

// Contains reports whether v falls inside the range, bounds inclusive.
func (r ScoreRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Spec is the composite filter specification. The zero value matches
// everything. Spec is a value object: predicates are pure and the spec is
// never mutated by evaluation.
type Spec struct {
	Search          string
	Statuses        []model.Status
	ContactStatuses []model.ContactStatus
	Groups          []string
	Ranges          map[model.ScoreDimension]ScoreRange
	IncludeUnscored bool
}

// New returns a Spec with all ranges unconstrained and unscored entities
// included, the canonical starting state for the companies view.
func New() Spec {
	return Spec{IncludeUnscored: true}
}

// Range returns the configured range for a dimension, defaulting to the full
// range when the dimension is unconstrained.
func (s Spec) Range(dim model.ScoreDimension) ScoreRange {
	if r, ok := s.Ranges[dim]; ok {
		return r
	}
	return FullRange()
}

// WithRange returns a copy of the spec with one dimension's range replaced.
func (s Spec) WithRange(dim model.ScoreDimension, r ScoreRange) Spec {
	ranges := make(map[model.ScoreDimension]ScoreRange, len(s.Ranges)+1)
	for k, v := range s.Ranges {
		ranges[k] = v
	}
	ranges[dim] = r
	s.Ranges = ranges
	return s
}

// ScoreActive reports whether at least one score range has been narrowed.
func (s Spec) ScoreActive() bool {
	for _, dim := range model.ScoreDimensions() {
		if s.Range(dim).Narrowed() {
			return true
		}
	}
	return false
}

// Active reports whether the spec constrains anything at all.
func (s Spec) Active() bool {
	return s.Search != "" || len(s.Statuses) > 0 || len(s.ContactStatuses) > 0 ||
		len(s.Groups) > 0 || s.ScoreActive()
}

// MatchCompany evaluates the spec against a company. Rules are conjunctive:
// the company must pass search, status, group, and every score range.
func (s Spec) MatchCompany(c model.Company) bool {
	if !matchSearch(s.Search, c.Name, c.Domain) {
		return false
	}

	if len(s.Statuses) > 0 && !containsStatus(s.Statuses, c.Status) {
		return false
	}

	if len(s.Groups) > 0 && !s.matchGroup(c.GroupName) {
		return false
	}

	for _, dim := range model.ScoreDimensions() {
		r := s.Range(dim)
		if !r.Narrowed() {
			continue
		}
		score := c.Score(dim)
		if score == nil {
			if !s.IncludeUnscored {
				return false
			}
			continue
		}
		if !r.Contains(*score) {
			return false
		}
	}

	return true
}

// MatchContact evaluates the spec against a contact. Contacts carry no group
// or scores; search covers name, email, company name and title.
func (s Spec) MatchContact(c model.Contact) bool {
	if !matchSearch(s.Search, c.Name, c.Email, c.CompanyName, c.Title) {
		return false
	}

	if len(s.ContactStatuses) > 0 {
		found := false
		for _, st := range s.ContactStatuses {
			if c.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Companies returns the companies matching the spec, preserving order.
func (s Spec) Companies(companies []model.Company) []model.Company {
	matched := make([]model.Company, 0, len(companies))
	for _, c := range companies {
		if s.MatchCompany(c) {
			matched = append(matched, c)
		}
	}
	return matched
}

// Contacts returns the contacts matching the spec, preserving order.
func (s Spec) Contacts(contacts []model.Contact) []model.Contact {
	matched := make([]model.Contact, 0, len(contacts))
	for _, c := range contacts {
		if s.MatchContact(c) {
			matched = append(matched, c)
		}
	}
	return matched
}

// Values encodes the spec as query parameters for the server-side companies
// query. The server applies semantics equivalent to MatchCompany.
func (s Spec) Values() url.Values {
	v := url.Values{}

	if s.Search != "" {
		v.Set("search", s.Search)
	}
	for _, st := range s.Statuses {
		v.Add("status", string(st))
	}
	for _, g := range s.Groups {
		v.Add("group", g)
	}
	for _, dim := range model.ScoreDimensions() {
		r := s.Range(dim)
		if !r.Narrowed() {
			continue
		}
		v.Set("min_"+string(dim), fmt.Sprintf("%g", r.Min))
		v.Set("max_"+string(dim), fmt.Sprintf("%g", r.Max))
	}
	if s.ScoreActive() {
		v.Set("include_null_scores", fmt.Sprintf("%t", s.IncludeUnscored))
	}

	return v
}

func (s Spec) matchGroup(group string) bool {
	for _, g := range s.Groups {
		if g == GroupNone && group == "" {
			return true
		}
		if g == group {
			return true
		}
	}
	return false
}

func matchSearch(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	for _, f := range fields {
		if f != "" && strings.Contains(strings.ToLower(f), query) {
			return true
		}
	}
	return false
}

func containsStatus(set []model.Status, s model.Status) bool {
	for _, st := range set {
		if st == s {
			return true
		}
	}
	return false
}
