package listing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackendDown = errors.New("backend down")

func TestRefreshFoundOnly(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(10, map[ReportType]int{Lost: 5, Found: 5})}
	e := NewEngine(b, Options{})

	out := e.SetFilter(context.Background(), FilterFoundOnly)
	require.Empty(t, out.Errors)

	s := e.Snapshot()
	assert.Empty(t, b.listCalls(Lost))
	require.Len(t, b.listCalls(Found), 1)
	assert.Equal(t, listCall{t: Found, page: 0, size: DefaultPageSize}, b.listCalls(Found)[0])
	assert.Empty(t, s.MissingItems())
	assert.Len(t, s.FindingItems(), 10)
	assert.True(t, s.FindingHasMore())
	assert.False(t, s.MissingHasMore())
	assert.False(t, s.IsLoading)
}

func TestIrrelevantCollectionIsCleared(t *testing.T) {
	testCases := []struct {
		name   string
		filter ActiveFilter
		empty  ReportType
		kept   ReportType
	}{
		{name: "Lost only", filter: FilterLostOnly, empty: Found, kept: Lost},
		{name: "Found only", filter: FilterFoundOnly, empty: Lost, kept: Found},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := &fakeBackend{
				listFn: pagedLists(3, map[ReportType]int{Lost: 5, Found: 5}),
				searchFn: func(context.Context, string, SearchCategory, int, int) (*SearchPage, error) {
					return &SearchPage{Content: []TypedReport{
						{Report: Report{ID: "l"}, Type: 0},
						{Report: Report{ID: "f"}, Type: 1},
					}}, nil
				},
			}
			e := NewEngine(b, Options{})
			e.Refresh(context.Background())
			require.Len(t, e.Snapshot().MissingItems(), 3)
			require.Len(t, e.Snapshot().FindingItems(), 3)

			e.SetFilter(context.Background(), tc.filter)
			s := e.Snapshot()
			assert.Empty(t, s.Collection(tc.empty).Items)
			assert.False(t, s.Collection(tc.empty).HasMore)
			assert.Len(t, s.Collection(tc.kept).Items, 3)

			e.Search(context.Background(), "dog", CategoryAll, ModeAll, tc.filter)
			s = e.Snapshot()
			assert.Empty(t, s.Collection(tc.empty).Items)
			assert.Len(t, s.Collection(tc.kept).Items, 1)
		})
	}
}

func TestLoadMoreWithoutMorePagesIsNoop(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(4, map[ReportType]int{Lost: 0, Found: 0})}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())
	before := e.Snapshot()
	calls := b.calls()

	out := e.LoadMore(context.Background())

	assert.True(t, out.Skipped)
	assert.Equal(t, calls, b.calls())
	after := e.Snapshot()
	assert.Equal(t, ids(before.MissingItems()), ids(after.MissingItems()))
	assert.Equal(t, ids(before.FindingItems()), ids(after.FindingItems()))
	assert.False(t, after.IsLoading)
}

func TestLoadMoreAppendsNextPage(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(10, map[ReportType]int{Lost: 1, Found: 1})}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())

	out := e.LoadMore(context.Background())
	require.False(t, out.Skipped)

	s := e.Snapshot()
	assert.Len(t, s.MissingItems(), 20)
	assert.Len(t, s.FindingItems(), 20)
	assert.Equal(t, 1, s.Missing.Page)
	assert.Equal(t, 1, s.Finding.Page)
	assert.False(t, s.MissingHasMore())
	assert.False(t, s.FindingHasMore())
	assert.Equal(t, "lost-p1-0", s.MissingItems()[10].ID)
	assert.Equal(t, 1, b.listCalls(Lost)[1].page)
}

func TestKeywordSearchContinuesWithKeyword(t *testing.T) {
	b := &fakeBackend{
		searchFn: func(_ context.Context, _ string, _ SearchCategory, page, _ int) (*SearchPage, error) {
			return &SearchPage{
				Content: []TypedReport{
					{Report: Report{ID: "lost"}, Type: 0},
					{Report: Report{ID: "found"}, Type: 1},
				},
				Last: page >= 2,
			}, nil
		},
	}
	e := NewEngine(b, Options{})

	e.Search(context.Background(), "말티즈", CategoryBreed, ModeAll, FilterAll)
	e.LoadMore(context.Background())

	assert.Empty(t, b.listCalls(Lost))
	assert.Empty(t, b.listCalls(Found))
	searches := b.searchCalls()
	require.Len(t, searches, 2)
	assert.Equal(t, searchCall{keyword: "말티즈", category: CategoryBreed, page: 0, size: DefaultPageSize}, searches[0])
	assert.Equal(t, searchCall{keyword: "말티즈", category: CategoryBreed, page: 1, size: DefaultPageSize}, searches[1])

	s := e.Snapshot()
	assert.Len(t, s.MissingItems(), 2)
	assert.Len(t, s.FindingItems(), 2)
	assert.Equal(t, 1, e.Continuation().KeywordPage)
}

func TestKeywordSearchScenario(t *testing.T) {
	b := &fakeBackend{
		searchFn: func(context.Context, string, SearchCategory, int, int) (*SearchPage, error) {
			return &SearchPage{
				Content: []TypedReport{
					{Report: Report{ID: "a", Breed: "말티즈"}, Type: 0},
					{Report: Report{ID: "b", Breed: "말티즈"}, Type: 1},
				},
				Last: true,
			}, nil
		},
	}
	e := NewEngine(b, Options{})

	e.Search(context.Background(), "말티즈", CategoryBreed, ModeAll, FilterAll)

	s := e.Snapshot()
	require.Len(t, s.MissingItems(), 1)
	require.Len(t, s.FindingItems(), 1)
	assert.Equal(t, "a", s.MissingItems()[0].ID)
	assert.Equal(t, "b", s.FindingItems()[0].ID)
}

func TestFilterRoundTripRefetches(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(2, map[ReportType]int{Lost: 3, Found: 3})}
	e := NewEngine(b, Options{})

	e.Refresh(context.Background())
	e.SetFilter(context.Background(), FilterLostOnly)
	assert.Empty(t, e.Snapshot().FindingItems())

	e.SetFilter(context.Background(), FilterAll)

	assert.Len(t, b.listCalls(Found), 2)
	assert.Len(t, b.listCalls(Lost), 3)
	s := e.Snapshot()
	assert.Len(t, s.MissingItems(), 2)
	assert.Len(t, s.FindingItems(), 2)
}

func TestRadiusWithoutCenterIsNoop(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(2, map[ReportType]int{Lost: 3, Found: 3})}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())
	before := e.Snapshot()
	calls := b.calls()

	out := e.Search(context.Background(), "", CategoryAll, ModeRadius, FilterAll)

	assert.Equal(t, Noop, out.Strategy)
	assert.ErrorIs(t, out.Warning, ErrMissingLocation)
	assert.Equal(t, calls, b.calls())
	after := e.Snapshot()
	assert.Equal(t, ids(before.MissingItems()), ids(after.MissingItems()))
	assert.Equal(t, ids(before.FindingItems()), ids(after.FindingItems()))
	assert.False(t, after.IsLoading)
}

func TestRadiusWithoutCenterSupersedesInFlightRefresh(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	b := &fakeBackend{}
	b.listFn = func(_ context.Context, rt ReportType, _, _ int) (*Page, error) {
		if rt == Lost {
			entered <- struct{}{}
		}
		<-release
		return &Page{Content: reports("stale-"+rt.String(), 2)}, nil
	}
	e := NewEngine(b, Options{})

	stale := make(chan Outcome)
	go func() { stale <- e.Refresh(context.Background()) }()
	<-entered

	out := e.Search(context.Background(), "", CategoryAll, ModeRadius, FilterLostOnly)
	assert.Equal(t, Noop, out.Strategy)
	assert.ErrorIs(t, out.Warning, ErrMissingLocation)
	assert.False(t, e.IsLoading())

	close(release)
	assert.True(t, (<-stale).Superseded)

	s := e.Snapshot()
	assert.Empty(t, s.MissingItems())
	assert.Empty(t, s.FindingItems())
	assert.Equal(t, StatusIdle, s.Missing.Status)
	assert.Equal(t, StatusIdle, s.Finding.Status)
	assert.False(t, s.IsLoading)
	assert.True(t, e.Continuation().empty())
	assert.True(t, e.LoadMore(context.Background()).Skipped)
}

func TestRadiusSearch(t *testing.T) {
	b := &fakeBackend{
		radiusFn: func(_ context.Context, rt ReportType, _ RadiusQuery) ([]Report, error) {
			return reports(rt.String(), 25), nil
		},
	}
	e := NewEngine(b, Options{Radius: 1500})
	e.SetCenter(context.Background(), &Location{Lat: 37.5, Lng: 127.0})

	e.Search(context.Background(), "푸들", CategoryBreed, ModeRadius, FilterAll)

	radii := b.radiusCalls()
	require.Len(t, radii, 2)
	for _, c := range radii {
		assert.Equal(t, RadiusQuery{
			Center:   Location{Lat: 37.5, Lng: 127.0},
			Radius:   1500,
			Keyword:  "푸들",
			Category: CategoryBreed,
		}, c.q)
	}
	s := e.Snapshot()
	assert.Len(t, s.MissingItems(), 25)
	assert.Len(t, s.FindingItems(), 25)
	assert.False(t, s.MissingHasMore())
	assert.False(t, s.FindingHasMore())

	out := e.LoadMore(context.Background())
	assert.True(t, out.Skipped)
	assert.Len(t, b.radiusCalls(), 2)
}

func TestCenterChangeRefreshesOnlyInRadiusMode(t *testing.T) {
	b := &fakeBackend{}
	e := NewEngine(b, Options{})

	out := e.SetCenter(context.Background(), &Location{Lat: 1, Lng: 2})
	assert.True(t, out.Skipped)
	assert.Zero(t, b.calls())

	e.SetMode(context.Background(), ModeRadius)
	require.Len(t, b.radiusCalls(), 2)

	e.SetRadius(context.Background(), 500)
	radii := b.radiusCalls()
	require.Len(t, radii, 4)
	assert.Equal(t, 500.0, radii[3].q.Radius)
}

func TestIndependentPageCursors(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(10, map[ReportType]int{Lost: 0, Found: 3})}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())

	e.LoadMore(context.Background())
	e.LoadMore(context.Background())

	assert.Len(t, b.listCalls(Lost), 1)
	found := b.listCalls(Found)
	require.Len(t, found, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{found[0].page, found[1].page, found[2].page})

	s := e.Snapshot()
	assert.Len(t, s.MissingItems(), 10)
	assert.Equal(t, 0, s.Missing.Page)
	assert.Len(t, s.FindingItems(), 30)
	assert.Equal(t, 2, s.Finding.Page)
	assert.True(t, s.FindingHasMore())
}

func TestNetworkFailureIsPerType(t *testing.T) {
	b := &fakeBackend{
		listFn: func(_ context.Context, rt ReportType, _, _ int) (*Page, error) {
			if rt == Lost {
				return nil, errBackendDown
			}
			return &Page{Content: reports("found", 4), Last: false}, nil
		},
	}
	e := NewEngine(b, Options{})

	out := e.Refresh(context.Background())

	require.Contains(t, out.Errors, Lost)
	assert.NotContains(t, out.Errors, Found)
	s := e.Snapshot()
	assert.Equal(t, StatusError, s.Missing.Status)
	assert.ErrorIs(t, s.Missing.Err, errBackendDown)
	assert.Empty(t, s.MissingItems())
	assert.False(t, s.MissingHasMore())
	assert.Equal(t, StatusLoaded, s.Finding.Status)
	assert.Len(t, s.FindingItems(), 4)
	assert.False(t, s.IsLoading)
	assert.Equal(t, PlainListing, e.Continuation().Kind)
}

func TestEmptyResultIsNotAnError(t *testing.T) {
	e := NewEngine(&fakeBackend{}, Options{})

	out := e.Refresh(context.Background())

	assert.Empty(t, out.Errors)
	s := e.Snapshot()
	assert.Equal(t, StatusLoaded, s.Missing.Status)
	assert.Equal(t, StatusLoaded, s.Finding.Status)
	assert.Empty(t, s.MissingItems())
	assert.NoError(t, s.Missing.Err)
}

func TestFailedRefreshResetsContinuation(t *testing.T) {
	fail := false
	b := &fakeBackend{}
	b.searchFn = func(context.Context, string, SearchCategory, int, int) (*SearchPage, error) {
		return &SearchPage{Content: []TypedReport{{Report: Report{ID: "x"}, Type: 0}}}, nil
	}
	b.listFn = func(context.Context, ReportType, int, int) (*Page, error) {
		if fail {
			return nil, errBackendDown
		}
		return &Page{}, nil
	}
	e := NewEngine(b, Options{})
	e.Search(context.Background(), "dog", CategoryAll, ModeAll, FilterAll)
	require.Equal(t, KeywordSearch, e.Continuation().Kind)

	fail = true
	e.Refresh(context.Background())

	assert.Equal(t, RetrievalContext{}, e.Continuation())
	out := e.LoadMore(context.Background())
	assert.True(t, out.Skipped)
	assert.Len(t, b.searchCalls(), 1)
}

func TestLoadMoreFailureKeepsShownPages(t *testing.T) {
	b := &fakeBackend{}
	b.listFn = func(_ context.Context, rt ReportType, page, _ int) (*Page, error) {
		if page > 0 && rt == Found {
			return nil, errBackendDown
		}
		return &Page{Content: reports(rt.String(), 10)}, nil
	}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())

	out := e.LoadMore(context.Background())

	assert.Contains(t, out.Errors, Found)
	s := e.Snapshot()
	assert.Len(t, s.FindingItems(), 10)
	assert.Equal(t, StatusError, s.Finding.Status)
	assert.True(t, s.FindingHasMore())
	assert.Len(t, s.MissingItems(), 20)
}

func TestMineClearsBothCollections(t *testing.T) {
	b := &fakeBackend{listFn: pagedLists(5, map[ReportType]int{Lost: 3, Found: 3})}
	e := NewEngine(b, Options{})
	e.Refresh(context.Background())
	calls := b.calls()

	out := e.SetFilter(context.Background(), FilterMine)

	assert.Equal(t, ClearOnly, out.Strategy)
	assert.Equal(t, calls, b.calls())
	s := e.Snapshot()
	assert.Empty(t, s.MissingItems())
	assert.Empty(t, s.FindingItems())
	assert.False(t, s.MissingHasMore())
	assert.False(t, s.FindingHasMore())
	assert.True(t, e.LoadMore(context.Background()).Skipped)
}

func TestStaleResultsAreDiscarded(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	b := &fakeBackend{}
	b.listFn = func(_ context.Context, rt ReportType, _, _ int) (*Page, error) {
		if rt == Lost {
			entered <- struct{}{}
		}
		<-release
		return &Page{Content: reports("stale-"+rt.String(), 3)}, nil
	}
	b.searchFn = func(context.Context, string, SearchCategory, int, int) (*SearchPage, error) {
		return &SearchPage{Content: []TypedReport{
			{Report: Report{ID: "fresh-lost"}, Type: 0},
			{Report: Report{ID: "fresh-found"}, Type: 1},
		}, Last: true}, nil
	}
	e := NewEngine(b, Options{})

	stale := make(chan Outcome)
	go func() { stale <- e.Refresh(context.Background()) }()
	<-entered

	fresh := e.Search(context.Background(), "cat", CategoryAll, ModeAll, FilterAll)
	require.False(t, fresh.Superseded)
	close(release)
	out := <-stale

	assert.True(t, out.Superseded)
	s := e.Snapshot()
	assert.Equal(t, []string{"fresh-lost"}, ids(s.MissingItems()))
	assert.Equal(t, []string{"fresh-found"}, ids(s.FindingItems()))
	assert.False(t, s.IsLoading)
	assert.Equal(t, KeywordSearch, e.Continuation().Kind)
}

func TestLoadingFlagFollowsLatestGeneration(t *testing.T) {
	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	secondEntered := make(chan struct{})
	releaseSecond := make(chan struct{})
	b := &fakeBackend{}
	b.searchFn = func(_ context.Context, keyword string, _ SearchCategory, _, _ int) (*SearchPage, error) {
		if keyword == "first" {
			firstEntered <- struct{}{}
			<-releaseFirst
		} else {
			secondEntered <- struct{}{}
			<-releaseSecond
		}
		return &SearchPage{Content: []TypedReport{{Report: Report{ID: keyword}, Type: 0}}, Last: true}, nil
	}
	e := NewEngine(b, Options{})

	first := make(chan Outcome)
	second := make(chan Outcome)
	go func() { first <- e.Search(context.Background(), "first", CategoryAll, ModeAll, FilterAll) }()
	<-firstEntered
	go func() { second <- e.Search(context.Background(), "second", CategoryAll, ModeAll, FilterAll) }()
	<-secondEntered

	close(releaseFirst)
	assert.True(t, (<-first).Superseded)
	assert.True(t, e.IsLoading())

	close(releaseSecond)
	assert.False(t, (<-second).Superseded)
	assert.False(t, e.IsLoading())
	assert.Equal(t, []string{"second"}, ids(e.Snapshot().MissingItems()))
}

func TestRequestTimeoutCountsAsFailure(t *testing.T) {
	b := &fakeBackend{}
	b.listFn = func(ctx context.Context, rt ReportType, _, _ int) (*Page, error) {
		if rt == Found {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &Page{Content: reports("lost", 1)}, nil
	}
	e := NewEngine(b, Options{RequestTimeout: 20 * time.Millisecond})

	out := e.Refresh(context.Background())

	assert.ErrorIs(t, out.Errors[Found], context.DeadlineExceeded)
	s := e.Snapshot()
	assert.Equal(t, StatusError, s.Finding.Status)
	assert.Len(t, s.MissingItems(), 1)
}

func TestSubscribeDeliversEvents(t *testing.T) {
	e := NewEngine(&fakeBackend{listFn: pagedLists(1, nil)}, Options{})
	events, cancel := e.Subscribe()

	e.Refresh(context.Background())
	e.Search(context.Background(), "", CategoryAll, ModeRadius, FilterAll)
	cancel()

	var got []Event
	for ev := range events {
		got = append(got, ev)
	}
	require.Len(t, got, 3)
	assert.Equal(t, EventStateChanged, got[0].Kind)
	assert.True(t, got[0].Snapshot.IsLoading)
	assert.Equal(t, StatusLoading, got[0].Snapshot.Missing.Status)
	assert.False(t, got[1].Snapshot.IsLoading)
	assert.Len(t, got[1].Snapshot.MissingItems(), 1)
	assert.Equal(t, EventWarning, got[2].Kind)
	assert.ErrorIs(t, got[2].Warning, ErrMissingLocation)
}
