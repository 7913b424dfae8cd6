package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/api"
	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/selection"
	"github.com/cata32101/odysseus-app/internal/session"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	sess, err := session.New(raw)
	require.NoError(t, err)
	return sess
}

func scorePtr(v float64) *float64 {
	return &v
}

func fullSet() []model.Company {
	now := time.Now()
	return []model.Company{
		{ID: 1, Domain: "new.com", Status: model.StatusNew, CreatedAt: now.Add(-time.Hour)},
		{ID: 2, Domain: "vetting.com", Status: model.StatusVetting, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 3, Domain: "vetted.com", Status: model.StatusVetted, UnifiedScore: scorePtr(8), CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: 4, Domain: "approved.com", Status: model.StatusApproved, CreatedAt: now.Add(-60 * 24 * time.Hour)},
		{ID: 5, Domain: "failed.com", Status: model.StatusFailed, CreatedAt: now.Add(-90 * 24 * time.Hour)},
	}
}

func pageOf(companies []model.Company, count int) func(page, pageSize int, spec filter.Spec) (api.CompanyPage, error) {
	return func(_, _ int, _ filter.Spec) (api.CompanyPage, error) {
		return api.CompanyPage{Data: companies, Count: count}, nil
	}
}

func settled(c *Controller) func() bool {
	return func() bool {
		s := c.Snapshot()
		return !s.Loading
	}
}

func TestController_RefreshPopulatesState(t *testing.T) {
	all := fullSet()
	mock := &MockBackend{
		PageFn:      pageOf(all[:2], 42),
		All:         all,
		ContactList: []model.Contact{{ID: 10, Name: "Ada Smith", Status: model.ContactEnriched}},
	}

	c := New(mock, testSession(t), Config{})
	c.Refresh(context.Background())

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return !s.Loading && s.TotalCount == 42
	}, waitFor, tick)

	s := c.Snapshot()
	assert.Len(t, s.Companies, 2)
	assert.Len(t, s.AllCompanies, 5)
	assert.Len(t, s.Contacts, 1)
	assert.Equal(t, 5, s.Stats.Total)
	assert.Equal(t, 2, s.Stats.AddedThisWeek)
	assert.Equal(t, 3, s.TotalPages, "42 results at page size 20")
	assert.Empty(t, s.LastError)
	assert.False(t, s.ApproxCount)
}

func TestController_NoSessionSuppressesFetches(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(nil, 0)}

	c := New(mock, nil, Config{})
	c.Refresh(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, mock.ListCalls())
	assert.Zero(t, mock.AllCalls())
}

func TestController_ExpiredSessionSuppressesFetches(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)
	sess, err := session.New(raw)
	require.NoError(t, err)

	mock := &MockBackend{PageFn: pageOf(nil, 0)}
	c := New(mock, sess, Config{})
	c.Refresh(context.Background())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, mock.ListCalls())
}

func TestController_FetchFailureKeepsPriorState(t *testing.T) {
	all := fullSet()
	var failing bool
	var mu sync.Mutex

	mock := &MockBackend{All: all}
	mock.PageFn = func(_, _ int, _ filter.Spec) (api.CompanyPage, error) {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return api.CompanyPage{}, common.NewUserError("companies fetch failed", common.ErrServer)
		}
		return api.CompanyPage{Data: all[:2], Count: 5}, nil
	}

	c := New(mock, testSession(t), Config{})
	c.Refresh(context.Background())
	require.Eventually(t, func() bool { return c.Snapshot().TotalCount == 5 }, waitFor, tick)

	mu.Lock()
	failing = true
	mu.Unlock()

	c.Refresh(context.Background())
	require.Eventually(t, func() bool { return c.Snapshot().LastError != "" }, waitFor, tick)

	s := c.Snapshot()
	assert.Equal(t, "companies fetch failed", s.LastError)
	assert.Len(t, s.Companies, 2, "prior slice survives a failed cycle")
	assert.Equal(t, 5, s.Stats.Total, "prior stats survive a failed cycle")
	assert.False(t, s.Loading)
}

func TestController_StaleResponseDiscarded(t *testing.T) {
	pageOne := []model.Company{{ID: 1, Domain: "one.com", Status: model.StatusNew}}
	pageTwo := []model.Company{{ID: 2, Domain: "two.com", Status: model.StatusNew}}

	gate := make(chan struct{})
	var mu sync.Mutex
	blocking := false

	mock := &MockBackend{All: fullSet()}
	mock.PageFn = func(page, _ int, _ filter.Spec) (api.CompanyPage, error) {
		mu.Lock()
		block := blocking && page == 1
		mu.Unlock()
		if block {
			<-gate
		}
		if page == 2 {
			return api.CompanyPage{Data: pageTwo, Count: 100}, nil
		}
		return api.CompanyPage{Data: pageOne, Count: 100}, nil
	}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()

	// Establish a total so page navigation is possible.
	c.Refresh(ctx)
	require.Eventually(t, func() bool { return c.Snapshot().TotalCount == 100 }, waitFor, tick)

	// A refresh for page 1 stalls in flight...
	mu.Lock()
	blocking = true
	mu.Unlock()
	c.Refresh(ctx)
	require.Eventually(t, func() bool { return len(mock.ListCalls()) >= 2 }, waitFor, tick)

	// ...the user navigates to page 2 before it resolves.
	c.SetPage(ctx, 2)
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Page == 2 && len(s.Companies) == 1 && s.Companies[0].ID == 2 && !s.Loading
	}, waitFor, tick)

	// The stale page-1 response finally arrives and must not overwrite.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	s := c.Snapshot()
	assert.Equal(t, 2, s.Page)
	require.Len(t, s.Companies, 1)
	assert.Equal(t, 2, s.Companies[0].ID)
	assert.Empty(t, s.LastError, "a discarded stale response is not a user-facing error")
}

func TestController_DualFetchMergesUnscored(t *testing.T) {
	scored := []model.Company{
		{ID: 3, Domain: "vetted.com", Status: model.StatusVetted, UnifiedScore: scorePtr(8)},
		{ID: 6, Domain: "other.com", Status: model.StatusVetted, UnifiedScore: scorePtr(9)},
	}
	unscored := []model.Company{
		{ID: 6, Domain: "stale-copy.com", Status: model.StatusVetted}, // conflict: primary wins
		{ID: 1, Domain: "new.com", Status: model.StatusNew},
	}

	mock := &MockBackend{All: fullSet()}
	mock.PageFn = func(_, _ int, spec filter.Spec) (api.CompanyPage, error) {
		if len(spec.Statuses) > 0 {
			return api.CompanyPage{Data: unscored, Count: 10}, nil
		}
		return api.CompanyPage{Data: scored, Count: 40}, nil
	}

	c := New(mock, testSession(t), Config{})
	spec := filter.New().WithRange(model.DimensionUnified, filter.ScoreRange{Min: 7, Max: 10})
	c.SetFilter(context.Background(), spec)

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return !s.Loading && s.ApproxCount
	}, waitFor, tick)

	s := c.Snapshot()
	require.Len(t, s.Companies, 3)
	assert.Equal(t, 3, s.Companies[0].ID)
	assert.Equal(t, 6, s.Companies[1].ID)
	assert.Equal(t, "other.com", s.Companies[1].Domain, "primary result wins ID conflicts")
	assert.Equal(t, 1, s.Companies[2].ID)
	assert.Equal(t, 49, s.TotalCount, "union of counts minus observed overlap")

	// Exactly one auxiliary call, scoped to the unscored statuses.
	calls := mock.ListCalls()
	require.Len(t, calls, 2)
	var auxCall *ListCall
	for i := range calls {
		if len(calls[i].Spec.Statuses) > 0 {
			auxCall = &calls[i]
		}
	}
	require.NotNil(t, auxCall)
	assert.ElementsMatch(t, []model.Status{model.StatusNew, model.StatusFailed}, auxCall.Spec.Statuses)
	assert.False(t, auxCall.Spec.ScoreActive(), "auxiliary query carries no score constraint")
}

func TestController_FilterChangeResetsPage(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(fullSet()[:1], 100), All: fullSet()}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()

	c.Refresh(ctx)
	require.Eventually(t, func() bool { return c.Snapshot().TotalCount == 100 }, waitFor, tick)

	c.SetPage(ctx, 3)
	require.Eventually(t, func() bool { return c.Snapshot().Page == 3 && !c.Snapshot().Loading }, waitFor, tick)

	spec := filter.New()
	spec.Search = "acme"
	c.SetFilter(ctx, spec)

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.Page == 1 && s.Filter.Search == "acme" && !s.Loading
	}, waitFor, tick)

	calls := mock.ListCalls()
	last := calls[len(calls)-1]
	assert.Equal(t, 1, last.Page)
	assert.Equal(t, "acme", last.Spec.Search)
}

func TestController_SetPageClamps(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(fullSet()[:1], 100), All: fullSet()}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()
	c.Refresh(ctx)
	require.Eventually(t, func() bool { return c.Snapshot().TotalCount == 100 }, waitFor, tick)

	c.SetPage(ctx, 99)
	require.Eventually(t, func() bool { return c.Snapshot().Page == 5 }, waitFor, tick)
}

func TestController_SelectionRevalidatedAfterRefresh(t *testing.T) {
	first := []model.Company{
		{ID: 1, Domain: "new.com", Status: model.StatusNew},
		{ID: 2, Domain: "vetting.com", Status: model.StatusVetting},
	}
	second := []model.Company{
		{ID: 2, Domain: "vetting.com", Status: model.StatusVetting},
		{ID: 3, Domain: "vetted.com", Status: model.StatusVetted},
	}

	var mu sync.Mutex
	current := first
	mock := &MockBackend{All: fullSet()}
	mock.PageFn = func(_, _ int, _ filter.Spec) (api.CompanyPage, error) {
		mu.Lock()
		defer mu.Unlock()
		return api.CompanyPage{Data: current, Count: len(current)}, nil
	}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()
	c.Refresh(ctx)
	require.Eventually(t, settled(c), waitFor, tick)

	c.ToggleSelect(1)
	c.ToggleSelect(2)
	assert.Equal(t, []int{1, 2}, c.Snapshot().Selected)

	mu.Lock()
	current = second
	mu.Unlock()
	c.Refresh(ctx)

	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return !s.Loading && len(s.Companies) == 2 && s.Companies[1].ID == 3
	}, waitFor, tick)

	assert.Equal(t, []int{2}, c.Snapshot().Selected, "vanished rows drop out of the selection")
}

func TestController_ToggleSelectAllIsPageScoped(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(fullSet()[:3], 100), All: fullSet()}

	c := New(mock, testSession(t), Config{})
	c.Refresh(context.Background())
	require.Eventually(t, settled(c), waitFor, tick)

	c.ToggleSelectAll()
	assert.Equal(t, []int{1, 2, 3}, c.Snapshot().Selected, "only the visible page is selected")

	c.ToggleSelectAll()
	assert.Empty(t, c.Snapshot().Selected)
}

func TestController_ApplyBulk(t *testing.T) {
	mock := &MockBackend{
		PageFn:       pageOf(fullSet(), 5),
		All:          fullSet(),
		BulkResponse: api.MessageResponse{Message: "ok"},
	}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()
	c.Refresh(ctx)
	require.Eventually(t, settled(c), waitFor, tick)

	// New, Vetted, Approved selected; approve only accepts Vetted.
	c.ToggleSelect(1)
	c.ToggleSelect(3)
	c.ToggleSelect(4)

	assert.True(t, c.CanApply(selection.ActionApprove))
	assert.Equal(t, []int{3}, c.Eligible(selection.ActionApprove))

	outcome, err := c.ApplyBulk(ctx, selection.ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Processed)
	assert.Equal(t, 2, outcome.Skipped)
	assert.Equal(t, "ok", outcome.Message)

	bulk := mock.BulkCalls()
	require.Len(t, bulk, 1)
	assert.Equal(t, "approve", bulk[0].Op)
	assert.Equal(t, []int{3}, bulk[0].IDs)

	// Selection cleared and a refresh started.
	assert.Empty(t, c.Snapshot().Selected)
	require.Eventually(t, func() bool { return len(mock.ListCalls()) >= 2 }, waitFor, tick)
}

func TestController_ApplyBulkValidation(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(fullSet(), 5), All: fullSet()}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()
	c.Refresh(ctx)
	require.Eventually(t, settled(c), waitFor, tick)

	// Empty selection.
	_, err := c.ApplyBulk(ctx, selection.ActionVet, "")
	assert.ErrorIs(t, err, common.ErrEmptySelection)

	// Nothing eligible: approving an Approved company.
	c.ToggleSelect(4)
	_, err = c.ApplyBulk(ctx, selection.ActionApprove, "")
	assert.ErrorIs(t, err, common.ErrNoEligible)

	// Move requires a group name.
	_, err = c.ApplyBulk(ctx, selection.ActionMove, "")
	assert.ErrorIs(t, err, common.ErrNoGroupName)

	// No network mutation was attempted for any of these.
	assert.Empty(t, mock.BulkCalls())
}

func TestController_ApplyBulkFailureKeepsSelection(t *testing.T) {
	mock := &MockBackend{
		PageFn:  pageOf(fullSet(), 5),
		All:     fullSet(),
		BulkErr: errors.New("backend exploded"),
	}

	c := New(mock, testSession(t), Config{})
	ctx := context.Background()
	c.Refresh(ctx)
	require.Eventually(t, settled(c), waitFor, tick)

	c.ToggleSelect(1)
	_, err := c.ApplyBulk(ctx, selection.ActionVet, "")

	require.Error(t, err)
	assert.Equal(t, []int{1}, c.Snapshot().Selected, "failed bulk action keeps the selection for retry")
}

func TestController_DebouncedNotifications(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(fullSet()[:2], 5), All: fullSet()}

	c := New(mock, testSession(t), Config{DebounceWindow: 30 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.Refresh(ctx)
	require.Eventually(t, settled(c), waitFor, tick)
	baseline := mock.AllCalls()

	c.Start(ctx)
	defer c.Stop()

	// A burst of remote changes collapses into one refresh.
	for i := 0; i < 5; i++ {
		c.Notify()
		time.Sleep(2 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return mock.AllCalls() == baseline+1 }, waitFor, tick)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, baseline+1, mock.AllCalls())
}

func TestController_StopEndsSubscription(t *testing.T) {
	mock := &MockBackend{PageFn: pageOf(nil, 0), All: fullSet()}

	c := New(mock, testSession(t), Config{DebounceWindow: 10 * time.Millisecond})
	ctx := context.Background()

	c.Start(ctx)
	c.Stop()

	baseline := mock.AllCalls()
	c.Notify()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, baseline, mock.AllCalls())
}

type memoryCache struct {
	companies []model.Company
	contacts  []model.Contact

	mu             sync.Mutex
	savedCompanies []model.Company
	savedContacts  []model.Contact
}

func (m *memoryCache) LoadCompanies(_ context.Context) ([]model.Company, error) {
	return m.companies, nil
}

func (m *memoryCache) SaveCompanies(_ context.Context, companies []model.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedCompanies = companies
	return nil
}

func (m *memoryCache) LoadContacts(_ context.Context) ([]model.Contact, error) {
	return m.contacts, nil
}

func (m *memoryCache) SaveContacts(_ context.Context, contacts []model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedContacts = contacts
	return nil
}

func TestController_PrimeFromCache(t *testing.T) {
	cache := &memoryCache{
		companies: fullSet(),
		contacts:  []model.Contact{{ID: 1, Name: "Ada Smith", Status: model.ContactEnriched}},
	}
	mock := &MockBackend{}

	c := New(mock, testSession(t), Config{Cache: cache})
	c.Prime(context.Background())

	s := c.Snapshot()
	assert.Equal(t, 5, s.Stats.Total, "stats render from cache before any fetch")
	assert.Len(t, s.AllCompanies, 5)
	assert.Len(t, s.Contacts, 1)
	assert.Empty(t, mock.ListCalls())
	assert.Zero(t, mock.AllCalls())
}

func TestController_SuccessfulRefreshPersistsSnapshot(t *testing.T) {
	cache := &memoryCache{}
	mock := &MockBackend{
		PageFn:      pageOf(fullSet()[:2], 5),
		All:         fullSet(),
		ContactList: []model.Contact{{ID: 1, Name: "Ada Smith", Status: model.ContactEnriched}},
	}

	c := New(mock, testSession(t), Config{Cache: cache})
	c.Refresh(context.Background())
	require.Eventually(t, settled(c), waitFor, tick)

	require.Eventually(t, func() bool {
		cache.mu.Lock()
		defer cache.mu.Unlock()
		return len(cache.savedCompanies) == 5 && len(cache.savedContacts) == 1
	}, waitFor, tick)
}

func TestAuxiliarySpec(t *testing.T) {
	narrowed := func(spec filter.Spec) filter.Spec {
		return spec.WithRange(model.DimensionUnified, filter.ScoreRange{Min: 7, Max: 10})
	}

	tests := []struct {
		name         string
		spec         filter.Spec
		wantAux      bool
		wantStatuses []model.Status
	}{
		{
			name:    "no score constraint needs no auxiliary",
			spec:    filter.New(),
			wantAux: false,
		},
		{
			name: "excluded unscored needs no auxiliary",
			spec: func() filter.Spec {
				s := narrowed(filter.Spec{})
				s.IncludeUnscored = false
				return s
			}(),
			wantAux: false,
		},
		{
			name:         "narrowed range with unscored included",
			spec:         narrowed(filter.New()),
			wantAux:      true,
			wantStatuses: []model.Status{model.StatusNew, model.StatusFailed},
		},
		{
			name: "status filter intersects with unscored set",
			spec: func() filter.Spec {
				s := narrowed(filter.New())
				s.Statuses = []model.Status{model.StatusFailed, model.StatusVetted}
				return s
			}(),
			wantAux:      true,
			wantStatuses: []model.Status{model.StatusFailed},
		},
		{
			name: "status filter excluding unscored statuses skips auxiliary",
			spec: func() filter.Spec {
				s := narrowed(filter.New())
				s.Statuses = []model.Status{model.StatusVetted, model.StatusApproved}
				return s
			}(),
			wantAux: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aux, ok := auxiliarySpec(tt.spec)
			assert.Equal(t, tt.wantAux, ok)
			if !ok {
				return
			}
			assert.ElementsMatch(t, tt.wantStatuses, aux.Statuses)
			assert.False(t, aux.ScoreActive())
			assert.Equal(t, tt.spec.Search, aux.Search)
		})
	}
}

func TestMergePages(t *testing.T) {
	primary := api.CompanyPage{
		Data: []model.Company{
			{ID: 1, Domain: "primary-one.com"},
			{ID: 2, Domain: "primary-two.com"},
		},
		Count: 30,
	}
	aux := api.CompanyPage{
		Data: []model.Company{
			{ID: 2, Domain: "aux-two.com"},
			{ID: 3, Domain: "aux-three.com"},
		},
		Count: 12,
	}

	merged, count := mergePages(primary, aux)

	require.Len(t, merged, 3)
	assert.Equal(t, "primary-two.com", merged[1].Domain, "primary wins on ID conflict")
	assert.Equal(t, 3, merged[2].ID)
	assert.Equal(t, 41, count, "30 + 12 - 1 observed overlap")

	// Count never drops below what is actually displayed.
	merged, count = mergePages(api.CompanyPage{Data: primary.Data, Count: 1}, aux)
	assert.GreaterOrEqual(t, count, len(merged))
}
