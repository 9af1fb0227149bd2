package api

import (
	"time"

	"github.com/shopspring/decimal"
)

const Version = "2.0"

const (
	ReportsEndpoint     = "/api/v1/reports"
	LostEndpoint        = "/api/v1/reports/lost"
	FoundEndpoint       = "/api/v1/reports/found"
	SearchEndpoint      = "/api/v1/reports/search"
	LostRadiusEndpoint  = "/api/v1/reports/lost/radius"
	FoundRadiusEndpoint = "/api/v1/reports/found/radius"
	ReportByIDEndpoint  = "/api/v1/reports/id/:id"
	HealthEndpoint      = "/health"
	MetricsEndpoint     = "/metrics"
	RequestIDHeader     = "X-Request-ID"
	DefaultPageSize     = 10
	MaxPageSize         = 100
	MaxPage             = 100000
	MaxRadiusMeters     = 100000
	DefaultRadiusMeters = 3000
)

// Report is a lost or found pet report as served by the backend.
type Report struct {
	ID        string          `json:"id"`
	Type      int             `json:"type"` // 0 lost, 1 found
	UserID    string          `json:"user_id,omitempty"`
	Breed     string          `json:"breed"`
	Remarks   string          `json:"remarks"`
	Location  string          `json:"location"`
	Latitude  float64         `json:"lat"`
	Longitude float64         `json:"lng"`
	ImageURL  string          `json:"image_url"`
	Reward    decimal.Decimal `json:"reward"`
	CreatedAt time.Time       `json:"created_at"`
	Distance  float64         `json:"distance,omitempty"` // meters, radius results only
}

// PageResponse is one page of the listing and keyword search endpoints.
type PageResponse struct {
	Content []Report `json:"content"`
	Last    bool     `json:"last"`
	Page    int      `json:"page"`
	Size    int      `json:"size"`
}

type PageQuery struct {
	Page int `form:"page"`
	Size int `form:"size"`
}

type SearchQuery struct {
	Keyword  string `form:"keyword"`
	Category int    `form:"category"` // 1 region, 2 breed, 0 or missing for all
	Page     int    `form:"page"`
	Size     int    `form:"size"`
}

type RadiusQuery struct {
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	Radius   float64  `form:"radius"` // meters
	Keyword  string   `form:"keyword"`
	Category int      `form:"category"`
}

type ReportArgs struct {
	Version   string          `json:"version"` // Must be "2.0"
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"` // "lost" or "found"
	Breed     string          `json:"breed"`
	Remarks   string          `json:"remarks"`
	Location  string          `json:"location"`
	Latitude  float64         `json:"lat"`
	Longitude float64         `json:"lng"`
	ImageURL  string          `json:"image_url"`
	Reward    decimal.Decimal `json:"reward"`
}

type ReportResponse struct {
	ID string `json:"id"`
}

// ReportCreatedEvent is published after a report is stored.
type ReportCreatedEvent struct {
	ID        string    `json:"id"`
	Type      int       `json:"type"`
	Breed     string    `json:"breed"`
	Location  string    `json:"location"`
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lng"`
	CreatedAt time.Time `json:"created_at"`
}
