package listing

import "errors"

// ErrMissingLocation is reported when radius retrieval is asked for without a
// center. It is a warning, the engine leaves its collections untouched.
var ErrMissingLocation = errors.New("radius search requires a center location")

type StrategyKind int

const (
	// Noop fetches nothing and leaves the collections as they are.
	Noop StrategyKind = iota
	// ClearOnly empties both collections without a network call.
	ClearOnly
	PlainListing
	KeywordSearch
	RadiusSearch
)

func (k StrategyKind) String() string {
	switch k {
	case ClearOnly:
		return "clear"
	case PlainListing:
		return "plain_listing"
	case KeywordSearch:
		return "keyword_search"
	case RadiusSearch:
		return "radius_search"
	}
	return "noop"
}

// Strategy is the retrieval procedure picked for one trigger.
type Strategy struct {
	Kind     StrategyKind
	Types    []ReportType // collections the strategy populates
	Query    string
	Category SearchCategory
	Center   Location
	Radius   float64
	// Reason is set for Noop.
	Reason error
}

// Resolve picks the retrieval procedure for the given state. It has no side
// effects.
func Resolve(mode SearchMode, filter ActiveFilter, query string, category SearchCategory, center *Location, radius float64) Strategy {
	if filter == FilterMine {
		return Strategy{Kind: ClearOnly}
	}
	types := filter.relevantTypes()
	if mode == ModeRadius {
		if center == nil {
			return Strategy{Kind: Noop, Reason: ErrMissingLocation}
		}
		return Strategy{
			Kind:     RadiusSearch,
			Types:    types,
			Query:    query,
			Category: category,
			Center:   *center,
			Radius:   radius,
		}
	}
	if query == "" {
		return Strategy{Kind: PlainListing, Types: types}
	}
	return Strategy{Kind: KeywordSearch, Types: types, Query: query, Category: category}
}
