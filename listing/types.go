package listing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReportType tells which collection a report belongs to.
type ReportType int

const (
	Lost ReportType = iota
	Found
)

var ReportTypes = []ReportType{Lost, Found}

func (t ReportType) String() string {
	switch t {
	case Lost:
		return "lost"
	case Found:
		return "found"
	}
	return fmt.Sprintf("ReportType(%d)", int(t))
}

// ParseReportType accepts the names used in URLs and CLI flags.
func ParseReportType(s string) (ReportType, error) {
	switch s {
	case "lost":
		return Lost, nil
	case "found":
		return Found, nil
	}
	return 0, fmt.Errorf("unknown report type %q", s)
}

// Wire discriminator values carried by the unified search endpoint.
const (
	discriminatorLost  = 0
	discriminatorFound = 1
)

var ErrUnknownDiscriminator = errors.New("unknown report type discriminator")

// ReportTypeFromDiscriminator is the only place where the wire value of the
// "type" field is turned into a ReportType.
func ReportTypeFromDiscriminator(v int) (ReportType, error) {
	switch v {
	case discriminatorLost:
		return Lost, nil
	case discriminatorFound:
		return Found, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownDiscriminator, v)
}

// Discriminator is the inverse of ReportTypeFromDiscriminator.
func (t ReportType) Discriminator() int {
	if t == Found {
		return discriminatorFound
	}
	return discriminatorLost
}

type SearchMode int

const (
	ModeAll SearchMode = iota
	ModeRadius
)

func (m SearchMode) String() string {
	if m == ModeRadius {
		return "radius"
	}
	return "all"
}

type ActiveFilter int

const (
	FilterAll ActiveFilter = iota
	FilterLostOnly
	FilterFoundOnly
	FilterMine
)

func (f ActiveFilter) String() string {
	switch f {
	case FilterLostOnly:
		return "lost"
	case FilterFoundOnly:
		return "found"
	case FilterMine:
		return "mine"
	}
	return "all"
}

// Relevant reports whether the filter wants the given collection populated.
// Mine is served elsewhere, so neither collection is relevant to it.
func (f ActiveFilter) Relevant(t ReportType) bool {
	switch f {
	case FilterAll:
		return true
	case FilterLostOnly:
		return t == Lost
	case FilterFoundOnly:
		return t == Found
	}
	return false
}

func (f ActiveFilter) relevantTypes() []ReportType {
	var r []ReportType
	for _, t := range ReportTypes {
		if f.Relevant(t) {
			r = append(r, t)
		}
	}
	return r
}

type SearchCategory int

const (
	CategoryAll SearchCategory = iota
	CategoryRegion
	CategoryBreed
)

func (c SearchCategory) String() string {
	switch c {
	case CategoryRegion:
		return "region"
	case CategoryBreed:
		return "breed"
	}
	return "all"
}

// Discriminator returns the backend value for the category and false for
// CategoryAll, which is sent without a discriminator.
func (c SearchCategory) Discriminator() (int, bool) {
	switch c {
	case CategoryRegion:
		return 1, true
	case CategoryBreed:
		return 2, true
	}
	return 0, false
}

// CategoryFromDiscriminator maps the backend value back to a category.
// Unknown values fall back to CategoryAll.
func CategoryFromDiscriminator(v int) SearchCategory {
	switch v {
	case 1:
		return CategoryRegion
	case 2:
		return CategoryBreed
	}
	return CategoryAll
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Report is the client side view of a report as the engine keeps it. The
// backend wire form is api.Report; remote.toReport is the only conversion
// between the two, and the report type travels separately.
type Report struct {
	ID        string          `json:"id"`
	Breed     string          `json:"breed"`
	Remarks   string          `json:"remarks"`
	Location  string          `json:"location"`
	Lat       float64         `json:"lat"`
	Lng       float64         `json:"lng"`
	ImageURL  string          `json:"image_url"`
	Reward    decimal.Decimal `json:"reward"`
	CreatedAt time.Time       `json:"created_at"`
}

// TypedReport is a keyword search hit. Type is the raw wire discriminator.
type TypedReport struct {
	Report
	Type int `json:"type"`
}

type Page struct {
	Content []Report `json:"content"`
	Last    bool     `json:"last"`
}

type SearchPage struct {
	Content []TypedReport `json:"content"`
	Last    bool          `json:"last"`
}

type RadiusQuery struct {
	Center   Location
	Radius   float64 // meters
	Keyword  string
	Category SearchCategory
}
