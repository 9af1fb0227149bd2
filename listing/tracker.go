package listing

// RetrievalContext remembers the last successful strategy so that LoadMore
// extends the sequence the user is looking at.
type RetrievalContext struct {
	Kind     StrategyKind
	Query    string
	Category SearchCategory
	// KeywordPage is the last page fetched from the unified search endpoint.
	KeywordPage int
}

func (c RetrievalContext) empty() bool {
	return c.Kind == Noop
}

type tracker struct {
	ctx RetrievalContext
}

func (t *tracker) reset() {
	t.ctx = RetrievalContext{}
}

func (t *tracker) recordSuccess(s Strategy) {
	t.ctx = RetrievalContext{
		Kind:     s.Kind,
		Query:    s.Query,
		Category: s.Category,
	}
}

func (t *tracker) advanceKeyword() {
	t.ctx.KeywordPage++
}

func (t *tracker) continuation() RetrievalContext {
	return t.ctx
}
