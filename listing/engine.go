package listing

import (
	"context"
	"sync"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPageSize = 10
	DefaultRadius   = 3000.0 // meters
)

type Options struct {
	PageSize int
	// RequestTimeout bounds every backend call. An expired call counts as a
	// failure of its report type. Zero disables the timeout.
	RequestTimeout time.Duration
	// Radius is the initial search radius in meters.
	Radius float64
}

// Outcome describes what a triggered operation did.
type Outcome struct {
	Strategy StrategyKind
	// Skipped is set when LoadMore or a location change had nothing to do.
	Skipped bool
	// Superseded is set when a newer operation started before this one
	// finished. Its results were discarded.
	Superseded bool
	// Warning carries guard conditions such as ErrMissingLocation.
	Warning error
	// Errors holds per type network failures.
	Errors map[ReportType]error
}

// Engine owns the two report collections and keeps them in line with the
// current mode, filter, category and location.
type Engine struct {
	backend Backend
	opts    Options

	mu       sync.Mutex
	mode     SearchMode
	filter   ActiveFilter
	category SearchCategory
	center   *Location
	radius   float64

	store   store
	tracker tracker
	loading bool
	gen     uint64
	cancel  context.CancelFunc

	subs    map[int]chan Event
	nextSub int
}

func NewEngine(backend Backend, opts Options) *Engine {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Radius <= 0 {
		opts.Radius = DefaultRadius
	}
	return &Engine{
		backend: backend,
		opts:    opts,
		radius:  opts.Radius,
		subs:    make(map[int]chan Event),
	}
}

// Refresh reloads the collections for the current mode and filter without a
// keyword.
func (e *Engine) Refresh(ctx context.Context) Outcome {
	e.mu.Lock()
	s := Resolve(e.mode, e.filter, "", e.category, e.center, e.radius)
	e.mu.Unlock()
	return e.run(ctx, s)
}

// Search switches mode, filter and category and runs the query against them.
func (e *Engine) Search(ctx context.Context, query string, category SearchCategory, mode SearchMode, filter ActiveFilter) Outcome {
	e.mu.Lock()
	e.mode = mode
	e.filter = filter
	e.category = category
	s := Resolve(mode, filter, query, category, e.center, e.radius)
	e.mu.Unlock()
	return e.run(ctx, s)
}

func (e *Engine) SetMode(ctx context.Context, m SearchMode) Outcome {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
	return e.Refresh(ctx)
}

func (e *Engine) SetFilter(ctx context.Context, f ActiveFilter) Outcome {
	e.mu.Lock()
	e.filter = f
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// SetCategory only records the category; it is applied by the next search.
func (e *Engine) SetCategory(c SearchCategory) {
	e.mu.Lock()
	e.category = c
	e.mu.Unlock()
}

// SetCenter updates the radius center. A nil center clears it. Collections
// are refreshed only in radius mode.
func (e *Engine) SetCenter(ctx context.Context, center *Location) Outcome {
	e.mu.Lock()
	if center != nil {
		c := *center
		center = &c
	}
	e.center = center
	radius := e.mode == ModeRadius
	e.mu.Unlock()
	if !radius {
		return Outcome{Skipped: true}
	}
	return e.Refresh(ctx)
}

func (e *Engine) SetRadius(ctx context.Context, meters float64) Outcome {
	e.mu.Lock()
	e.radius = meters
	radius := e.mode == ModeRadius
	e.mu.Unlock()
	if !radius {
		return Outcome{Skipped: true}
	}
	return e.Refresh(ctx)
}

// begin starts a new generation, cancelling the one in flight. Callers hold
// the lock.
func (e *Engine) begin(ctx context.Context) (context.Context, uint64) {
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	cctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.loading = true
	return cctx, e.gen
}

// abandonLocked cancels the generation in flight without starting a fetch.
// Collections keep their items; loading statuses are settled.
func (e *Engine) abandonLocked() {
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.gen++
	e.loading = false
	for _, t := range ReportTypes {
		e.store.settle(t)
	}
}

// finish clears the loading flag if gen is still the current generation.
func (e *Engine) finish(gen uint64) {
	e.mu.Lock()
	current := gen == e.gen
	if current {
		e.loading = false
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
	e.mu.Unlock()
	if current {
		e.publish(EventStateChanged, nil)
	}
}

type fetchResult struct {
	items   []Report
	hasMore bool
	err     error
}

func (e *Engine) run(ctx context.Context, s Strategy) Outcome {
	e.mu.Lock()
	e.tracker.reset()

	switch s.Kind {
	case Noop:
		// Work still in flight belongs to the previous selection and must
		// not land after this point.
		superseded := e.loading
		if superseded {
			e.abandonLocked()
		}
		e.mu.Unlock()
		log.Warnf("Skipping retrieval: %v", s.Reason)
		if superseded {
			e.publish(EventStateChanged, nil)
		}
		e.publish(EventWarning, s.Reason)
		return Outcome{Strategy: Noop, Warning: s.Reason}
	case ClearOnly:
		e.abandonLocked()
		for _, t := range ReportTypes {
			e.store.clear(t)
		}
		e.mu.Unlock()
		e.publish(EventStateChanged, nil)
		return Outcome{Strategy: ClearOnly}
	}

	cctx, gen := e.begin(ctx)
	filter := e.filter
	e.store.clearIrrelevant(filter)
	for _, t := range s.Types {
		e.store.setStatus(t, StatusLoading)
	}
	e.mu.Unlock()
	e.publish(EventStateChanged, nil)
	defer e.finish(gen)

	log.WithFields(log.Fields{
		"strategy":   s.Kind.String(),
		"filter":     filter.String(),
		"query":      s.Query,
		"category":   s.Category.String(),
		"generation": gen,
	}).Info("listing.fetch")

	var results [2]fetchResult
	switch s.Kind {
	case PlainListing:
		e.fetchEach(s.Types, func(t ReportType) fetchResult {
			return e.listPage(cctx, t, 0)
		}, &results)
	case RadiusSearch:
		e.fetchEach(s.Types, func(t ReportType) fetchResult {
			return e.radiusSearch(cctx, t, s)
		}, &results)
	case KeywordSearch:
		e.keywordPage(cctx, s.Query, s.Category, 0, filter, s.Types, &results)
	}

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		log.Infof("Discarding results of superseded generation %d", gen)
		return Outcome{Strategy: s.Kind, Superseded: true}
	}
	out := Outcome{Strategy: s.Kind}
	succeeded := false
	for _, t := range s.Types {
		r := results[t]
		if r.err != nil {
			e.store.fail(t, r.err)
			out.addError(t, r.err)
			continue
		}
		e.store.replace(t, r.items, r.hasMore)
		succeeded = true
	}
	if succeeded {
		e.tracker.recordSuccess(s)
	}
	e.mu.Unlock()
	return out
}

// LoadMore fetches the next page of the strategy that produced the current
// collections. It does nothing in radius mode, while another operation is
// loading, or when no relevant collection has more pages.
func (e *Engine) LoadMore(ctx context.Context) Outcome {
	e.mu.Lock()
	cont := e.tracker.continuation()
	skip := Outcome{Strategy: cont.Kind, Skipped: true}
	if e.loading || e.mode == ModeRadius || cont.empty() {
		e.mu.Unlock()
		return skip
	}
	filter := e.filter
	var types []ReportType
	for _, t := range filter.relevantTypes() {
		if e.store.get(t).HasMore {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		e.mu.Unlock()
		return skip
	}

	pages := map[ReportType]int{}
	for _, t := range types {
		pages[t] = e.store.get(t).Page + 1
		e.store.setStatus(t, StatusLoading)
	}
	keywordPage := cont.KeywordPage + 1
	cctx, gen := e.begin(ctx)
	e.mu.Unlock()
	e.publish(EventStateChanged, nil)
	defer e.finish(gen)

	var results [2]fetchResult
	switch cont.Kind {
	case PlainListing:
		e.fetchEach(types, func(t ReportType) fetchResult {
			return e.listPage(cctx, t, pages[t])
		}, &results)
	case KeywordSearch:
		e.keywordPage(cctx, cont.Query, cont.Category, keywordPage, filter, types, &results)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return Outcome{Strategy: cont.Kind, Superseded: true}
	}
	out := Outcome{Strategy: cont.Kind}
	advanced := false
	for _, t := range types {
		r := results[t]
		if r.err != nil {
			// Pages already shown stay; the collection can be retried.
			c := &e.store.collections[t]
			c.Status = StatusError
			c.Err = r.err
			out.addError(t, r.err)
			continue
		}
		e.store.append(t, r.items, r.hasMore)
		advanced = true
	}
	if advanced && cont.Kind == KeywordSearch {
		e.tracker.advanceKeyword()
	}
	return out
}

// fetchEach runs fetch for every type concurrently and waits for all of them
// to settle.
func (e *Engine) fetchEach(types []ReportType, fetch func(ReportType) fetchResult, results *[2]fetchResult) {
	var g errgroup.Group
	for _, t := range types {
		t := t
		g.Go(func() error {
			results[t] = fetch(t)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.opts.RequestTimeout > 0 {
		return context.WithTimeout(ctx, e.opts.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) listPage(ctx context.Context, t ReportType, page int) fetchResult {
	cctx, cancel := e.callContext(ctx)
	defer cancel()
	p, err := e.backend.ListReports(cctx, t, page, e.opts.PageSize)
	if err != nil {
		log.Errorf("Failed to list %s reports, page %d: %v", t, page, err)
		return fetchResult{err: err}
	}
	return fetchResult{items: p.Content, hasMore: !p.Last}
}

func (e *Engine) radiusSearch(ctx context.Context, t ReportType, s Strategy) fetchResult {
	cctx, cancel := e.callContext(ctx)
	defer cancel()
	items, err := e.backend.RadiusReports(cctx, t, RadiusQuery{
		Center:   s.Center,
		Radius:   s.Radius,
		Keyword:  s.Query,
		Category: s.Category,
	})
	if err != nil {
		log.Errorf("Failed radius search for %s reports around (%f, %f): %v", t, s.Center.Lat, s.Center.Lng, err)
		return fetchResult{err: err}
	}
	return fetchResult{items: items}
}

// keywordPage issues one unified search request and partitions the hits into
// results for the given types.
func (e *Engine) keywordPage(ctx context.Context, query string, category SearchCategory, page int, filter ActiveFilter, types []ReportType, results *[2]fetchResult) {
	cctx, cancel := e.callContext(ctx)
	defer cancel()
	sp, err := e.backend.SearchReports(cctx, query, category, page, e.opts.PageSize)
	if err != nil {
		log.Errorf("Failed keyword search %q, page %d: %v", query, page, err)
		for _, t := range types {
			results[t] = fetchResult{err: err}
		}
		return
	}
	p := Partition(sp.Content, filter)
	for _, t := range types {
		results[t] = fetchResult{items: p.Of(t), hasMore: !sp.Last}
	}
}

func (o *Outcome) addError(t ReportType, err error) {
	if o.Errors == nil {
		o.Errors = map[ReportType]error{}
	}
	o.Errors[t] = err
}
