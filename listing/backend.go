package listing

import "context"

// Backend is the report service the engine reads from.
type Backend interface {
	// ListReports returns one page of reports of the given type.
	ListReports(ctx context.Context, t ReportType, page, size int) (*Page, error)
	// SearchReports runs the unified keyword search over both types.
	SearchReports(ctx context.Context, keyword string, category SearchCategory, page, size int) (*SearchPage, error)
	// RadiusReports returns every report of the given type around a center.
	RadiusReports(ctx context.Context, t ReportType, q RadiusQuery) ([]Report, error)
}
