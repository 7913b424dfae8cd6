package tui

import "github.com/cata32101/odysseus-app/internal/syncer"

// stateChangedMsg is sent whenever the controller commits a new snapshot.
// The payload is re-read from the controller on receipt, so a burst of
// changes collapses into however many messages survive the program queue.
type stateChangedMsg struct{}

// bulkAppliedMsg reports the outcome of a bulk action.
type bulkAppliedMsg struct {
	err     error
	outcome syncer.BulkOutcome
	action  string
}

// errorMsg surfaces a non-fatal error in the status line.
type errorMsg struct {
	err error
}
