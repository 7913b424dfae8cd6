package syncer

import (
	"context"

	"github.com/cata32101/odysseus-app/internal/api"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/pager"
)

// Source defines the read operations the controller needs from the backend.
type Source interface {
	ListCompanies(ctx context.Context, page, pageSize int, spec filter.Spec, sortField string, sortDir pager.Direction) (api.CompanyPage, error)
	ListAllCompanies(ctx context.Context) ([]model.Company, error)
	ListContacts(ctx context.Context) ([]model.Contact, error)
}

// Mutator defines the bulk mutation operations dispatched through the
// gatekeeper. Bulk actions are not idempotent; callers must not resubmit
// while one is in flight.
type Mutator interface {
	VetCompanies(ctx context.Context, ids []int) (api.MessageResponse, error)
	ApproveCompanies(ctx context.Context, ids []int) (api.MessageResponse, error)
	RejectCompanies(ctx context.Context, ids []int) (api.MessageResponse, error)
	DeleteCompanies(ctx context.Context, ids []int) (api.MessageResponse, error)
	ChangeCompanyGroup(ctx context.Context, ids []int, groupName string) (api.MessageResponse, error)
}

// Backend is the full collaborator surface; *api.Client satisfies it.
type Backend interface {
	Source
	Mutator
}

// Cache persists the last successful full-set fetch locally so a fresh
// dashboard can render statistics before the first network round-trip.
// Implementations are best-effort; the controller logs and continues on
// cache errors.
type Cache interface {
	LoadCompanies(ctx context.Context) ([]model.Company, error)
	SaveCompanies(ctx context.Context, companies []model.Company) error
	LoadContacts(ctx context.Context) ([]model.Contact, error)
	SaveContacts(ctx context.Context, contacts []model.Contact) error
}
