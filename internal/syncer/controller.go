// Package syncer implements the synchronization controller behind the
// companies view: it reconciles the server-paginated display slice, the full
// company set used for statistics, and the contacts collection, while gating
// bulk actions on selection eligibility.
package syncer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cata32101/odysseus-app/internal/api"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
	"github.com/cata32101/odysseus-app/internal/pager"
	"github.com/cata32101/odysseus-app/internal/selection"
	"github.com/cata32101/odysseus-app/internal/session"
	"github.com/cata32101/odysseus-app/internal/stats"

	"github.com/cata32101/odysseus-app/internal/common"
)

// Config holds controller tuning knobs.
type Config struct {
	Cache          Cache
	SortField      string
	SortDir        pager.Direction
	AuxPageSize    int
	DebounceWindow time.Duration
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		SortField:      "id",
		SortDir:        pager.Descending,
		AuxPageSize:    500,
		DebounceWindow: 300 * time.Millisecond,
	}
}

// Snapshot is an immutable copy of the controller's visible state, safe to
// render from any goroutine.
type Snapshot struct {
	Filter       filter.Spec
	SortField    string
	LastError    string
	Companies    []model.Company
	AllCompanies []model.Company
	Contacts     []model.Contact
	Selected     []int
	Stats        stats.Summary
	SortDir      pager.Direction
	Page         int
	PageSize     int
	TotalPages   int
	TotalCount   int
	Loading      bool
	ApproxCount  bool
}

// BulkOutcome reports how a bulk action was applied to the selection.
type BulkOutcome struct {
	Message   string
	Processed int
	Skipped   int
}

// Controller owns the companies-view state. It is the single writer for the
// display slice, the full-set snapshot and the selection set; other
// components only dispatch intents through its methods.
type Controller struct {
	backend Backend
	cache   Cache
	sess    *session.Session
	cfg     Config

	mu       sync.Mutex
	spec     filter.Spec
	pg       *pager.Pager
	sel      *selection.Set
	slice    []model.Company
	full     []model.Company
	fullIdx  map[int]model.Company
	contacts []model.Contact
	summary  stats.Summary
	loading  bool
	lastErr  error
	approx   bool

	// gen tags refresh cycles; only the newest generation may commit.
	gen    uint64
	cancel context.CancelFunc

	onChange func()

	notifyCh chan struct{}
	stopCh   chan struct{}
	running  bool
}

// New creates a controller bound to a backend and session. A nil or expired
// session suppresses all fetches rather than failing them.
func New(backend Backend, sess *session.Session, cfg Config) *Controller {
	def := DefaultConfig()
	if cfg.SortField == "" {
		cfg.SortField = def.SortField
	}
	if cfg.SortDir == "" {
		cfg.SortDir = def.SortDir
	}
	if cfg.AuxPageSize <= 0 {
		cfg.AuxPageSize = def.AuxPageSize
	}
	if cfg.DebounceWindow <= 0 {
		cfg.DebounceWindow = def.DebounceWindow
	}

	return &Controller{
		backend:  backend,
		cache:    cfg.Cache,
		sess:     sess,
		cfg:      cfg,
		spec:     filter.New(),
		pg:       pager.New(cfg.SortField, cfg.SortDir),
		sel:      selection.New(),
		fullIdx:  map[int]model.Company{},
		notifyCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// OnChange registers a callback invoked after every state transition. Used
// by the TUI to schedule re-renders; must not call back into the controller
// synchronously.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Prime seeds the full-set and contacts state from the local cache so
// statistics render before the first network round-trip. Best-effort: cache
// misses and errors are logged and ignored.
func (c *Controller) Prime(ctx context.Context) {
	if c.cache == nil {
		return
	}

	companies, err := c.cache.LoadCompanies(ctx)
	if err != nil {
		slog.Debug("Snapshot cache miss for companies", "error", err)
	}
	contacts, err := c.cache.LoadContacts(ctx)
	if err != nil {
		slog.Debug("Snapshot cache miss for contacts", "error", err)
	}
	if len(companies) == 0 && len(contacts) == 0 {
		return
	}

	c.mu.Lock()
	if len(companies) > 0 && len(c.full) == 0 {
		c.full = companies
		c.fullIdx = selection.BuildIndex(companies)
		c.summary = stats.Compute(companies, time.Now())
	}
	if len(contacts) > 0 && len(c.contacts) == 0 {
		c.contacts = contacts
	}
	c.mu.Unlock()
	c.emitChange()
}

// Snapshot returns a copy of the current visible state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Filter:       c.spec,
		SortField:    c.pg.SortField(),
		SortDir:      c.pg.SortDir(),
		LastError:    common.UserMessage(c.lastErr),
		Companies:    append([]model.Company(nil), c.slice...),
		AllCompanies: append([]model.Company(nil), c.full...),
		Contacts:     append([]model.Contact(nil), c.contacts...),
		Selected:     c.sel.IDs(),
		Stats:        c.summary,
		Page:         c.pg.Page(),
		PageSize:     c.pg.PageSize(),
		TotalPages:   c.pg.TotalPages(),
		TotalCount:   c.pg.TotalCount(),
		Loading:      c.loading,
		ApproxCount:  c.approx,
	}
}

// SetFilter replaces the filter specification, resets to page 1 and starts a
// refresh. The old page's meaning does not survive a filter change.
func (c *Controller) SetFilter(ctx context.Context, spec filter.Spec) {
	c.mu.Lock()
	c.spec = spec
	c.pg.ResetPage()
	c.mu.Unlock()
	c.Refresh(ctx)
}

// Filter returns the current filter specification.
func (c *Controller) Filter() filter.Spec {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spec
}

// SetPage navigates to page n (clamped) and refreshes when the page changed.
func (c *Controller) SetPage(ctx context.Context, n int) {
	c.mu.Lock()
	changed := c.pg.SetPage(n)
	c.mu.Unlock()
	if changed {
		c.Refresh(ctx)
	}
}

// SetPageSize changes the page size (resetting to page 1) and refreshes.
func (c *Controller) SetPageSize(ctx context.Context, n int) {
	c.mu.Lock()
	changed := c.pg.SetPageSize(n)
	c.mu.Unlock()
	if changed {
		c.Refresh(ctx)
	}
}

// ToggleSort sorts by field per pager.Pager.ToggleSort and refreshes.
func (c *Controller) ToggleSort(ctx context.Context, field string) {
	c.mu.Lock()
	c.pg.ToggleSort(field)
	c.mu.Unlock()
	c.Refresh(ctx)
}

// ToggleSelect flips one company in or out of the selection.
func (c *Controller) ToggleSelect(id int) {
	c.mu.Lock()
	c.sel.Toggle(id)
	c.mu.Unlock()
	c.emitChange()
}

// ToggleSelectAll selects (or clears) the currently visible page only.
func (c *Controller) ToggleSelectAll() {
	c.mu.Lock()
	c.sel.ToggleAll(visibleIDs(c.slice))
	c.mu.Unlock()
	c.emitChange()
}

// ClearSelection empties the selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	c.sel.Clear()
	c.mu.Unlock()
	c.emitChange()
}

// CanApply reports whether a bulk action has at least one eligible target in
// the current selection, resolved against the full set.
func (c *Controller) CanApply(action selection.Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.CanApply(action, c.fullIdx)
}

// Eligible returns the selected IDs the action would actually process.
func (c *Controller) Eligible(action selection.Action) []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel.Eligible(action, c.fullIdx)
}

// ApplyBulk runs a bulk action over the eligible subset of the selection.
// Ineligible selections are skipped silently and reported in the outcome.
// On success the selection is cleared and a refresh is started; on failure
// the selection is left intact so the user can retry.
func (c *Controller) ApplyBulk(ctx context.Context, action selection.Action, groupName string) (BulkOutcome, error) {
	c.mu.Lock()
	selected := c.sel.Len()
	eligible := c.sel.Eligible(action, c.fullIdx)
	c.mu.Unlock()

	if selected == 0 {
		return BulkOutcome{}, common.ErrEmptySelection
	}
	if len(eligible) == 0 {
		return BulkOutcome{}, common.ErrNoEligible
	}
	if action == selection.ActionMove && groupName == "" {
		return BulkOutcome{}, common.ErrNoGroupName
	}

	var resp api.MessageResponse
	var err error
	switch action {
	case selection.ActionVet:
		resp, err = c.backend.VetCompanies(ctx, eligible)
	case selection.ActionApprove:
		resp, err = c.backend.ApproveCompanies(ctx, eligible)
	case selection.ActionReject:
		resp, err = c.backend.RejectCompanies(ctx, eligible)
	case selection.ActionDelete:
		resp, err = c.backend.DeleteCompanies(ctx, eligible)
	case selection.ActionMove:
		resp, err = c.backend.ChangeCompanyGroup(ctx, eligible, groupName)
	default:
		return BulkOutcome{}, common.NewUserError("unknown bulk action", nil)
	}
	if err != nil {
		return BulkOutcome{}, err
	}

	c.mu.Lock()
	c.sel.Clear()
	c.mu.Unlock()
	c.Refresh(ctx)

	return BulkOutcome{
		Message:   resp.Message,
		Processed: len(eligible),
		Skipped:   selected - len(eligible),
	}, nil
}

// Notify signals that a company or contact record changed remotely. Bursts
// are collapsed: at most one refresh per debounce window.
func (c *Controller) Notify() {
	select {
	case c.notifyCh <- struct{}{}:
	default:
	}
}

// Start activates the change-notification subscription loop. Deterministic
// teardown via Stop or context cancellation.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	go c.notifyLoop(ctx, stopCh)
}

// Stop deactivates the subscription loop.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.stopCh)
	c.mu.Unlock()
}

func (c *Controller) notifyLoop(ctx context.Context, stopCh <-chan struct{}) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-c.notifyCh:
			if timerC == nil {
				timer = time.NewTimer(c.cfg.DebounceWindow)
				timerC = timer.C
			}
		case <-timerC:
			timerC = nil
			slog.Debug("Change notification window elapsed, refreshing")
			c.Refresh(ctx)
		}
	}
}

// Refresh starts a new refresh cycle, superseding any cycle in flight. The
// superseded cycle is cancelled at the transport level and its results, if
// they still arrive, are discarded by generation check. No session, no
// fetch.
func (c *Controller) Refresh(ctx context.Context) {
	if !c.sess.ValidAt(time.Now()) {
		slog.Debug("Refresh suppressed: no valid session")
		return
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true

	spec := c.spec
	page := c.pg.Page()
	pageSize := c.pg.PageSize()
	sortField := c.pg.SortField()
	sortDir := c.pg.SortDir()
	c.mu.Unlock()
	c.emitChange()

	go c.runCycle(fetchCtx, gen, page, pageSize, spec, sortField, sortDir)
}

type cycleResult struct {
	err      error
	full     []model.Company
	contacts []model.Contact
	slice    []model.Company
	count    int
	approx   bool
}

func (c *Controller) runCycle(ctx context.Context, gen uint64, page, pageSize int, spec filter.Spec, sortField string, sortDir pager.Direction) {
	var (
		wg       sync.WaitGroup
		resMu    sync.Mutex
		firstErr error

		primary api.CompanyPage
		aux     api.CompanyPage
		full    []model.Company
		conts   []model.Contact
	)

	record := func(err error) {
		resMu.Lock()
		if err != nil && firstErr == nil {
			firstErr = err
		}
		resMu.Unlock()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p, err := c.backend.ListCompanies(ctx, page, pageSize, spec, sortField, sortDir)
		if err == nil {
			primary = p
		}
		record(err)
	}()

	auxSpec, needAux := auxiliarySpec(spec)
	if needAux {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := c.backend.ListCompanies(ctx, 1, c.cfg.AuxPageSize, auxSpec, sortField, sortDir)
			if err == nil {
				aux = a
			}
			record(err)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		f, err := c.backend.ListAllCompanies(ctx)
		if err == nil {
			full = f
		}
		record(err)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ct, err := c.backend.ListContacts(ctx)
		if err == nil {
			conts = ct
		}
		record(err)
	}()

	wg.Wait()

	result := cycleResult{err: firstErr}
	if firstErr == nil {
		result.full = full
		result.contacts = conts
		if needAux {
			result.slice, result.count = mergePages(primary, aux)
			result.approx = true
		} else {
			result.slice = primary.Data
			result.count = primary.Count
		}
	}

	c.commit(gen, result)
}

// commit applies a cycle's results atomically. Stale generations are
// discarded silently: an internal consistency safeguard, not a user-facing
// error. A failed cycle surfaces one error and leaves prior state in place.
func (c *Controller) commit(gen uint64, result cycleResult) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		slog.Debug("Discarding superseded refresh", "generation", gen)
		return
	}

	c.loading = false
	if result.err != nil {
		c.lastErr = result.err
		c.mu.Unlock()
		c.emitChange()
		return
	}

	c.lastErr = nil
	c.slice = result.slice
	c.full = result.full
	c.fullIdx = selection.BuildIndex(result.full)
	c.contacts = result.contacts
	c.summary = stats.Compute(result.full, time.Now())
	c.approx = result.approx
	c.pg.SetTotalCount(result.count)
	c.sel.Revalidate(visibleIDs(result.slice))
	full := result.full
	contacts := result.contacts
	c.mu.Unlock()
	c.emitChange()

	if c.cache != nil {
		go func() {
			ctx, cancelSave := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelSave()
			if err := c.cache.SaveCompanies(ctx, full); err != nil {
				slog.Debug("Failed to persist company snapshot", "error", err)
			}
			if err := c.cache.SaveContacts(ctx, contacts); err != nil {
				slog.Debug("Failed to persist contact snapshot", "error", err)
			}
		}()
	}
}

func (c *Controller) emitChange() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// auxiliarySpec derives the unscored-statuses query issued alongside the
// primary fetch when a score range is narrowed. The backend cannot express
// "(score in range) OR (status unscored)" in one call, so the controller
// unions two queries instead; no auxiliary query is needed when unscored
// entities are excluded anyway.
func auxiliarySpec(spec filter.Spec) (filter.Spec, bool) {
	if !spec.ScoreActive() || !spec.IncludeUnscored {
		return filter.Spec{}, false
	}

	statuses := model.UnscoredStatuses()
	if len(spec.Statuses) > 0 {
		var kept []model.Status
		for _, st := range statuses {
			for _, want := range spec.Statuses {
				if st == want {
					kept = append(kept, st)
					break
				}
			}
		}
		if len(kept) == 0 {
			return filter.Spec{}, false
		}
		statuses = kept
	}

	return filter.Spec{
		Search:          spec.Search,
		Groups:          spec.Groups,
		Statuses:        statuses,
		IncludeUnscored: true,
	}, true
}

// mergePages unions the primary page with the auxiliary unscored results,
// de-duplicated by ID with the primary winning conflicts. The combined count
// is an approximation: the two server totals overlap only where both slices
// were fetched, so the documented tradeoff is an approximate, not exact,
// pagination total.
func mergePages(primary, aux api.CompanyPage) ([]model.Company, int) {
	seen := make(map[int]struct{}, len(primary.Data))
	merged := append([]model.Company(nil), primary.Data...)
	for _, company := range primary.Data {
		seen[company.ID] = struct{}{}
	}

	overlap := 0
	for _, company := range aux.Data {
		if _, ok := seen[company.ID]; ok {
			overlap++
			continue
		}
		merged = append(merged, company)
	}

	count := primary.Count + aux.Count - overlap
	if count < len(merged) {
		count = len(merged)
	}
	return merged, count
}

func visibleIDs(companies []model.Company) []int {
	ids := make([]int, len(companies))
	for i, c := range companies {
		ids[i] = c.ID
	}
	return ids
}
