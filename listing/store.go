package listing

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusError:
		return "error"
	}
	return "idle"
}

// CollectionState is the paginated state of one report type.
type CollectionState struct {
	Items   []Report
	HasMore bool
	Page    int
	Status  Status
	// Err is set when Status is StatusError.
	Err error
}

func (c CollectionState) clone() CollectionState {
	c.Items = append([]Report(nil), c.Items...)
	return c
}

// store holds one collection per report type. Callers hold the engine lock.
type store struct {
	collections [2]CollectionState
}

func (s *store) get(t ReportType) CollectionState {
	return s.collections[t]
}

// replace installs a fresh first page.
func (s *store) replace(t ReportType, items []Report, hasMore bool) {
	s.collections[t] = CollectionState{
		Items:   append([]Report(nil), items...),
		HasMore: hasMore,
		Page:    0,
		Status:  StatusLoaded,
	}
}

// append adds the next page in arrival order. Duplicates are kept.
func (s *store) append(t ReportType, items []Report, hasMore bool) {
	c := &s.collections[t]
	c.Items = append(c.Items, items...)
	c.HasMore = hasMore
	c.Page++
	c.Status = StatusLoaded
	c.Err = nil
}

// fail turns the collection into an empty error state.
func (s *store) fail(t ReportType, err error) {
	s.collections[t] = CollectionState{Status: StatusError, Err: err}
}

// clear empties the collection and stops further paging.
func (s *store) clear(t ReportType) {
	s.collections[t] = CollectionState{Status: StatusLoaded}
}

// clearIrrelevant empties every collection the filter does not want.
func (s *store) clearIrrelevant(filter ActiveFilter) {
	for _, t := range ReportTypes {
		if !filter.Relevant(t) {
			s.clear(t)
		}
	}
}

// settle ends a loading state that will never receive results. Items and
// HasMore are kept.
func (s *store) settle(t ReportType) {
	c := &s.collections[t]
	if c.Status != StatusLoading {
		return
	}
	switch {
	case c.Err != nil:
		c.Status = StatusError
	case len(c.Items) > 0:
		c.Status = StatusLoaded
	default:
		c.Status = StatusIdle
	}
}

func (s *store) setStatus(t ReportType, st Status) {
	s.collections[t].Status = st
}
