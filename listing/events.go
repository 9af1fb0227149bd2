package listing

type EventKind int

const (
	EventStateChanged EventKind = iota
	EventWarning
)

// Event is delivered to subscribers after every state change.
type Event struct {
	Kind     EventKind
	Snapshot Snapshot
	// Warning is set for EventWarning.
	Warning error
}

// Snapshot is a read-only copy of the engine state.
type Snapshot struct {
	Mode       SearchMode
	Filter     ActiveFilter
	Category   SearchCategory
	Center     *Location
	Radius     float64
	Missing    CollectionState
	Finding    CollectionState
	IsLoading  bool
	Generation uint64
}

func (s Snapshot) MissingItems() []Report { return s.Missing.Items }
func (s Snapshot) FindingItems() []Report { return s.Finding.Items }
func (s Snapshot) MissingHasMore() bool   { return s.Missing.HasMore }
func (s Snapshot) FindingHasMore() bool   { return s.Finding.HasMore }

func (s Snapshot) Collection(t ReportType) CollectionState {
	if t == Found {
		return s.Finding
	}
	return s.Missing
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Mode:       e.mode,
		Filter:     e.filter,
		Category:   e.category,
		Radius:     e.radius,
		Missing:    e.store.get(Lost).clone(),
		Finding:    e.store.get(Found).clone(),
		IsLoading:  e.loading,
		Generation: e.gen,
	}
	if e.center != nil {
		c := *e.center
		s.Center = &c
	}
	return s
}

func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// Continuation returns the retrieval context LoadMore would extend.
func (e *Engine) Continuation() RetrievalContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.continuation()
}

const subscriberBuffer = 16

// Subscribe returns a channel of events and a function that ends the
// subscription. Slow subscribers miss events rather than block the engine.
func (e *Engine) Subscribe() (<-chan Event, func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSub
	e.nextSub++
	ch := make(chan Event, subscriberBuffer)
	e.subs[id] = ch
	return ch, func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Engine) publish(kind EventKind, warning error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.subs) == 0 {
		return
	}
	ev := Event{Kind: kind, Snapshot: e.snapshotLocked(), Warning: warning}
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
