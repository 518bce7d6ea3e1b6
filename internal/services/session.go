package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/errreport"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/internal/models"
	"github.com/ashleighcodess/MyNeedfullyBeta-sub001/pkg/debounce"
)

var (
	ErrNoMoreResults  = errors.New("no more results to load")
	ErrNothingToRetry = errors.New("nothing to retry")
	ErrSessionClosed  = errors.New("search session closed")
)

// PageState is the pagination state of a session.
type PageState int

const (
	StateIdle PageState = iota
	StateLoadingMore
)

func (s PageState) String() string {
	if s == StateLoadingMore {
		return "loading-more"
	}
	return "idle"
}

type retryKind int

const (
	retryNone retryKind = iota
	retrySearch
	retryMore
)

// View is a snapshot of what a search surface should render.
type View struct {
	Query   models.SearchQuery
	Results []models.ProductResult
	Total   int
	HasMore bool
	Page    int
	Source  Source
	// Loading is set while the first page of a live search is in flight.
	Loading bool
	State   PageState
	Err     error
	// Message is the user-facing text for Err.
	Message    string
	CanRetry   bool
	PendingAdd string
}

type SessionOptions struct {
	Debounce time.Duration
	Token    string
	// ListID is the needs list the search was opened from, if any.
	ListID   models.ListID
	Category string
	Limit    int
	OnChange func(View)
	Reporter errreport.Reporter
}

// Session is one search box: debounced input, cache-first display, page
// continuation and add-to-list. All state changes happen under mu; fetches
// run on their own goroutines and their results are applied only if they
// still match the active query.
type Session struct {
	ctx      context.Context
	cancel   context.CancelFunc
	resolver *Resolver
	adder    *Adder
	reporter errreport.Reporter
	debounce *debounce.Debouncer[string]
	onChange func(View)
	token    string
	listID   models.ListID

	wg sync.WaitGroup

	mu      sync.Mutex
	active  models.SearchQuery
	shown   models.SearchQuery
	results []models.ProductResult
	total   int
	hasMore bool
	page    int
	source  Source
	loading bool
	state   PageState
	err     error
	retry   retryKind
	closed  bool
}

func NewSession(ctx context.Context, resolver *Resolver, adder *Adder, opts SessionOptions) *Session {
	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		ctx:      ctx,
		cancel:   cancel,
		resolver: resolver,
		adder:    adder,
		reporter: opts.Reporter,
		onChange: opts.OnChange,
		token:    opts.Token,
		listID:   opts.ListID,
		active:   models.SearchQuery{Category: opts.Category, Limit: opts.Limit}.Normalized(),
		page:     1,
		source:   SourceNone,
	}
	if s.reporter == nil {
		s.reporter = errreport.Default(nil)
	}
	s.debounce = debounce.New(opts.Debounce, s.Submit)
	return s
}

// Type records new search-box contents. The search runs once input has
// been quiet for the debounce interval.
func (s *Session) Type(term string) {
	s.debounce.Push(term)
}

// Flush runs a pending debounced search immediately.
func (s *Session) Flush() {
	s.debounce.Flush()
}

// Submit searches for term right away.
func (s *Session) Submit(term string) {
	s.mu.Lock()
	q := s.active
	s.mu.Unlock()

	q.Term = term
	s.search(q)
}

func (s *Session) SetCategory(category string) {
	s.mu.Lock()
	q := s.active
	s.mu.Unlock()

	q.Category = category
	s.search(q)
}

// SetPriceRange filters by price; nil leaves a bound open.
func (s *Session) SetPriceRange(minPrice, maxPrice *float64) {
	s.mu.Lock()
	q := s.active
	s.mu.Unlock()

	q.MinPrice, q.MaxPrice = minPrice, maxPrice
	s.search(q)
}

func (s *Session) search(q models.SearchQuery) {
	q = q.WithPage(1).Normalized()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.active = q
	s.state = StateIdle
	s.mu.Unlock()

	d := s.resolver.Resolve(s.ctx, q)

	s.mu.Lock()
	if s.closed || !s.active.SameSearch(q) {
		s.mu.Unlock()
		return
	}
	switch {
	case d.Source != SourceNone:
		s.show(d.Page, d.Source)
	case !d.NeedsFetch:
		s.show(models.SearchResultPage{Page: 1}, SourceNone)
	}
	// With nothing to show yet the previous set stays up while loading,
	// but it cannot be continued with pages of the new query.
	if !s.shown.SameSearch(q) {
		s.hasMore = false
	}
	s.page = 1
	s.loading = d.NeedsFetch
	s.err = nil
	s.retry = retryNone
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	if d.NeedsFetch {
		s.fetch(q, false)
	}
}

// ShowMore loads the next page and appends it.
func (s *Session) ShowMore() error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.state == StateLoadingMore:
		s.mu.Unlock()
		return nil
	case s.loading || !s.hasMore || !s.shown.SameSearch(s.active) || !s.resolver.Active(s.active):
		s.mu.Unlock()
		return ErrNoMoreResults
	}
	q := s.active.WithPage(s.page + 1)
	s.state = StateLoadingMore
	s.err = nil
	s.retry = retryNone
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	s.fetch(q, true)
	return nil
}

// Retry repeats the fetch that last failed. Failures are never retried
// automatically.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	kind := s.retry
	q := s.active
	if kind == retrySearch {
		s.loading = true
		s.err = nil
		s.retry = retryNone
	}
	view := s.viewLocked()
	s.mu.Unlock()

	switch kind {
	case retrySearch:
		s.notify(view)
		s.fetch(q.WithPage(1), false)
		return nil
	case retryMore:
		return s.ShowMore()
	default:
		return ErrNothingToRetry
	}
}

func (s *Session) fetch(q models.SearchQuery, tryCache bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		if tryCache {
			if d := s.resolver.Resolve(s.ctx, q); d.Source == SourceCache {
				s.apply(q, d.Page, nil)
				return
			}
		}
		page, err := s.resolver.Fetch(s.ctx, q)
		s.apply(q, page, err)
	}()
}

// apply is the correlation check: responses for anything but the active
// query are dropped.
func (s *Session) apply(q models.SearchQuery, page models.SearchResultPage, err error) {
	s.mu.Lock()
	if s.closed || !s.active.SameSearch(q) {
		s.mu.Unlock()
		return
	}

	if q.Page == 1 {
		if !s.loading {
			s.mu.Unlock()
			return
		}
		s.loading = false
		if err != nil {
			s.fail(err, retrySearch)
		} else {
			s.show(page, SourceLive)
		}
	} else {
		if s.state != StateLoadingMore || q.Page != s.page+1 {
			s.mu.Unlock()
			return
		}
		s.state = StateIdle
		if err != nil {
			s.fail(err, retryMore)
		} else {
			s.results = append(s.results, page.Results...)
			s.total = max(page.Total, len(s.results))
			s.hasMore = page.HasMore
			s.page = q.Page
			s.source = SourceLive
		}
	}
	view := s.viewLocked()
	s.mu.Unlock()

	if err != nil {
		s.reporter.Report(s.ctx, "search", err)
	}
	s.notify(view)
}

// show replaces the displayed set with a page of the active query.
// Callers hold mu.
func (s *Session) show(page models.SearchResultPage, source Source) {
	s.shown = s.active.WithPage(1)
	s.results = append([]models.ProductResult(nil), page.Results...)
	s.total = page.Total
	s.hasMore = page.HasMore
	s.page = 1
	s.source = source
}

// fail keeps the last good results on screen. Callers hold mu.
func (s *Session) fail(err error, kind retryKind) {
	s.err = err
	s.retry = kind
}

// AddToList adds p to the session's list context, or to listID when it is
// non-zero (the caller's pick after a selection outcome).
func (s *Session) AddToList(ctx context.Context, p models.ProductResult, listID models.ListID) (*AddOutcome, error) {
	if listID == 0 {
		listID = s.listID
	}
	if s.adder == nil {
		return nil, ErrAuthRequired
	}

	category := s.View().Query.Category
	if category == models.CategoryAll {
		category = ""
	}

	out, err := s.adder.Add(ctx, AddRequest{Token: s.token, Product: p, ListID: listID, Category: category})
	if err != nil && !errors.Is(err, ErrAuthRequired) && !errors.Is(err, ErrAddInFlight) && !errors.Is(err, ErrNoTargetList) {
		s.reporter.Report(ctx, "add", err)
	}
	s.notify(s.View())
	return out, err
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Query:    s.active.WithPage(s.page),
		Results:  append([]models.ProductResult(nil), s.results...),
		Total:    s.total,
		HasMore:  s.hasMore,
		Page:     s.page,
		Source:   s.source,
		Loading:  s.loading,
		State:    s.state,
		Err:      s.err,
		CanRetry: s.retry != retryNone,
	}
	if s.err != nil {
		v.Message = UserMessage(s.err)
	}
	if s.adder != nil {
		v.PendingAdd = s.adder.Pending()
	}
	return v
}

func (s *Session) notify(v View) {
	if s.onChange != nil {
		s.onChange(v)
	}
}

// Wait blocks until in-flight fetches have been applied.
func (s *Session) Wait() {
	s.wg.Wait()
}

func (s *Session) Close() {
	s.debounce.Stop()

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
