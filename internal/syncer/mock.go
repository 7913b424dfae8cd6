package syncer

import (
	"context"
	"sync"

	"github.com/cata32101/odysseus-app/internal/api"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/pager"
)

// ListCall records one paginated companies fetch.
type ListCall struct {
	SortField string
	Spec      filter.Spec
	SortDir   pager.Direction
	Page      int
	PageSize  int
}

// BulkCall records one bulk mutation.
type BulkCall struct {
	Op    string
	Group string
	IDs   []int
}

// MockBackend is a test double for the Backend interface. PageFn may block
// to simulate slow fetches; recorded calls are safe to read concurrently.
type MockBackend struct {
	PageFn       func(page, pageSize int, spec filter.Spec) (api.CompanyPage, error)
	All          []model.Company
	AllErr       error
	ContactList  []model.Contact
	ContactsErr  error
	BulkResponse api.MessageResponse
	BulkErr      error

	mu           sync.Mutex
	listCalls    []ListCall
	allCalls     int
	contactCalls int
	bulkCalls    []BulkCall
}

// ListCompanies implements Source.
func (m *MockBackend) ListCompanies(_ context.Context, page, pageSize int, spec filter.Spec, sortField string, sortDir pager.Direction) (api.CompanyPage, error) {
	m.mu.Lock()
	m.listCalls = append(m.listCalls, ListCall{
		Page:      page,
		PageSize:  pageSize,
		Spec:      spec,
		SortField: sortField,
		SortDir:   sortDir,
	})
	fn := m.PageFn
	m.mu.Unlock()

	if fn == nil {
		return api.CompanyPage{}, nil
	}
	return fn(page, pageSize, spec)
}

// ListAllCompanies implements Source.
func (m *MockBackend) ListAllCompanies(_ context.Context) ([]model.Company, error) {
	m.mu.Lock()
	m.allCalls++
	m.mu.Unlock()
	return m.All, m.AllErr
}

// ListContacts implements Source.
func (m *MockBackend) ListContacts(_ context.Context) ([]model.Contact, error) {
	m.mu.Lock()
	m.contactCalls++
	m.mu.Unlock()
	return m.ContactList, m.ContactsErr
}

// VetCompanies implements Mutator.
func (m *MockBackend) VetCompanies(_ context.Context, ids []int) (api.MessageResponse, error) {
	return m.recordBulk("vet", ids, "")
}

// ApproveCompanies implements Mutator.
func (m *MockBackend) ApproveCompanies(_ context.Context, ids []int) (api.MessageResponse, error) {
	return m.recordBulk("approve", ids, "")
}

// RejectCompanies implements Mutator.
func (m *MockBackend) RejectCompanies(_ context.Context, ids []int) (api.MessageResponse, error) {
	return m.recordBulk("reject", ids, "")
}

// DeleteCompanies implements Mutator.
func (m *MockBackend) DeleteCompanies(_ context.Context, ids []int) (api.MessageResponse, error) {
	return m.recordBulk("delete", ids, "")
}

// ChangeCompanyGroup implements Mutator.
func (m *MockBackend) ChangeCompanyGroup(_ context.Context, ids []int, groupName string) (api.MessageResponse, error) {
	return m.recordBulk("move", ids, groupName)
}

func (m *MockBackend) recordBulk(op string, ids []int, group string) (api.MessageResponse, error) {
	m.mu.Lock()
	m.bulkCalls = append(m.bulkCalls, BulkCall{Op: op, IDs: append([]int(nil), ids...), Group: group})
	m.mu.Unlock()
	if m.BulkErr != nil {
		return api.MessageResponse{}, m.BulkErr
	}
	return m.BulkResponse, nil
}

// ListCalls returns a copy of the recorded paginated fetches.
func (m *MockBackend) ListCalls() []ListCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ListCall(nil), m.listCalls...)
}

// AllCalls returns how many full-set fetches were made.
func (m *MockBackend) AllCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allCalls
}

// ContactCalls returns how many contact list fetches were made.
func (m *MockBackend) ContactCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contactCalls
}

// BulkCalls returns a copy of the recorded bulk mutations.
func (m *MockBackend) BulkCalls() []BulkCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]BulkCall(nil), m.bulkCalls...)
}
