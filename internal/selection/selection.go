// Package selection tracks the bulk-selection set for the companies view and
// gates which bulk actions are legal for the current selection.
package selection

import (
	"sort"

	"github.com/cata32101/odysseus-app/internal/model"
)

// Action is a bulk operation over selected companies.
type Action string

// Bulk actions.
const (
	ActionVet     Action = "vet"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionDelete  Action = "delete"
	ActionMove    Action = "move"
)

// AllowedStatuses returns the source statuses an action accepts. A nil result
// means any status is acceptable.
func (a Action) AllowedStatuses() []model.Status {
	switch a {
	case ActionVet:
		return []model.Status{model.StatusNew, model.StatusFailed}
	case ActionApprove:
		return []model.Status{model.StatusVetted}
	case ActionReject:
		return []model.Status{model.StatusVetted, model.StatusNew}
	case ActionDelete, ActionMove:
		return nil
	default:
		return []model.Status{}
	}
}

func (a Action) accepts(s model.Status) bool {
	allowed := a.AllowedStatuses()
	if allowed == nil {
		return true
	}
	for _, st := range allowed {
		if st == s {
			return true
		}
	}
	return false
}

// Set is the page-scoped selection of company IDs. Selecting "all" selects
// only the currently visible page, never the full filtered set.
type Set struct {
	ids map[int]struct{}
}

// New creates an empty selection.
func New() *Set {
	return &Set{ids: make(map[int]struct{})}
}

// Toggle flips one ID in or out of the selection.
func (s *Set) Toggle(id int) {
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// ToggleAll selects every visible ID, or clears them all if every visible ID
// is already selected.
func (s *Set) ToggleAll(visibleIDs []int) {
	allSelected := len(visibleIDs) > 0
	for _, id := range visibleIDs {
		if _, ok := s.ids[id]; !ok {
			allSelected = false
			break
		}
	}

	if allSelected {
		for _, id := range visibleIDs {
			delete(s.ids, id)
		}
		return
	}
	for _, id := range visibleIDs {
		s.ids[id] = struct{}{}
	}
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.ids = make(map[int]struct{})
}

// Has reports whether an ID is selected.
func (s *Set) Has(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the selection size.
func (s *Set) Len() int {
	return len(s.ids)
}

// IDs returns the selected IDs in ascending order.
func (s *Set) IDs() []int {
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Revalidate drops any selected ID that is no longer visible. Called after
// every refresh so the selection never acts on vanished rows.
func (s *Set) Revalidate(visibleIDs []int) {
	visible := make(map[int]struct{}, len(visibleIDs))
	for _, id := range visibleIDs {
		visible[id] = struct{}{}
	}
	for id := range s.ids {
		if _, ok := visible[id]; !ok {
			delete(s.ids, id)
		}
	}
}

// Eligible resolves each selected ID against the authoritative full set and
// returns, in ascending order, the subset whose status the action accepts.
// IDs missing from the index are skipped.
func (s *Set) Eligible(action Action, index map[int]model.Company) []int {
	eligible := make([]int, 0, len(s.ids))
	for id := range s.ids {
		c, ok := index[id]
		if !ok {
			continue
		}
		if action.accepts(c.Status) {
			eligible = append(eligible, id)
		}
	}
	sort.Ints(eligible)
	return eligible
}

// CanApply reports whether the action has at least one eligible target in
// the current selection.
func (s *Set) CanApply(action Action, index map[int]model.Company) bool {
	return len(s.Eligible(action, index)) > 0
}

// BuildIndex maps companies by ID for eligibility resolution.
func BuildIndex(companies []model.Company) map[int]model.Company {
	index := make(map[int]model.Company, len(companies))
	for _, c := range companies {
		index[c.ID] = c
	}
	return index
}
