package server

import (
	"context"
	"database/sql"
	"math"
	"net/http"
	"strings"
	"time"

	"petboard/api"
	"petboard/backend/db"
	"petboard/backend/metrics"
	"petboard/listing"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// EventPublisher delivers report events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, message interface{}) error
}

// Handlers serves the report API. A nil publisher disables events.
type Handlers struct {
	db        *sql.DB
	publisher EventPublisher
}

func NewHandlers(db *sql.DB, publisher EventPublisher) *Handlers {
	return &Handlers{
		db:        db,
		publisher: publisher,
	}
}

// ListReports handles GET /api/v1/reports/{lost,found}.
func (h *Handlers) ListReports(t listing.ReportType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q api.PageQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page parameters"})
			return
		}
		page, size, ok := pageParams(c, q.Page, q.Size)
		if !ok {
			return
		}

		resp, err := db.ListReports(c.Request.Context(), h.db, t, page, size)
		if err != nil {
			log.Errorf("Failed to list %s reports: %v", t, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// SearchReports handles GET /api/v1/reports/search. Hits of both types are
// returned together and told apart by their type field.
func (h *Handlers) SearchReports(c *gin.Context) {
	var q api.SearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search parameters"})
		return
	}
	keyword := strings.TrimSpace(q.Keyword)
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword is required"})
		return
	}
	category, ok := categoryParam(c, q.Category)
	if !ok {
		return
	}
	page, size, ok := pageParams(c, q.Page, q.Size)
	if !ok {
		return
	}

	resp, err := db.SearchReports(c.Request.Context(), h.db, keyword, category, page, size)
	if err != nil {
		log.Errorf("Failed to search reports: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search reports"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RadiusReports handles GET /api/v1/reports/{lost,found}/radius.
func (h *Handlers) RadiusReports(t listing.ReportType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q api.RadiusQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius parameters"})
			return
		}
		if q.Lat == nil || q.Lng == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
			return
		}
		if !validCoordinates(*q.Lat, *q.Lng) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "lat or lng out of range"})
			return
		}
		category, ok := categoryParam(c, q.Category)
		if !ok {
			return
		}

		radius := q.Radius
		if radius <= 0 {
			radius = api.DefaultRadiusMeters
		}
		if radius > api.MaxRadiusMeters {
			radius = api.MaxRadiusMeters
		}

		reports, err := db.RadiusReports(c.Request.Context(), h.db, t, *q.Lat, *q.Lng, radius, strings.TrimSpace(q.Keyword), category)
		if err != nil {
			log.Errorf("Failed to get %s reports by radius: %v", t, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve reports"})
			return
		}
		c.JSON(http.StatusOK, reports)
	}
}

// ReadReport handles GET /api/v1/reports/id/:id.
func (h *Handlers) ReadReport(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	report, err := db.ReadReport(c.Request.Context(), h.db, id)
	if err != nil {
		log.Errorf("Failed to read report %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve report"})
		return
	}
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Report not found"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateReport handles POST /api/v1/reports.
func (h *Handlers) CreateReport(c *gin.Context) {
	args := &api.ReportArgs{}
	if err := c.ShouldBindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in %s call: %v", api.ReportsEndpoint, err)
		c.String(http.StatusBadRequest, "Could not read JSON input.") // 400
		return
	}

	if args.Version != api.Version {
		log.Errorf("Bad version in %s, expected: %s, got: %v", api.ReportsEndpoint, api.Version, args.Version)
		c.String(http.StatusNotAcceptable, "Bad API version, expecting 2.0.") // 406
		return
	}

	t, err := listing.ParseReportType(args.Type)
	if err != nil {
		c.String(http.StatusBadRequest, "Report type must be lost or found.")
		return
	}
	if !validCoordinates(args.Latitude, args.Longitude) {
		c.String(http.StatusBadRequest, "Latitude or longitude out of range.")
		return
	}
	if args.Reward.IsNegative() {
		c.String(http.StatusBadRequest, "Reward must not be negative.")
		return
	}

	id := uuid.NewString()
	if err := db.SaveReport(c.Request.Context(), h.db, id, t, args); err != nil {
		log.Errorf("Failed to save the report: %v", err)
		c.String(http.StatusInternalServerError, "Failed to save the report.") // 500
		return
	}
	metrics.ReportsCreatedTotal.WithLabelValues(t.String()).Inc()

	h.publishCreated(c.Request.Context(), id, t, args)
	c.JSON(http.StatusOK, api.ReportResponse{ID: id})
}

// publishCreated is best effort, the report is already stored.
func (h *Handlers) publishCreated(ctx context.Context, id string, t listing.ReportType, args *api.ReportArgs) {
	if h.publisher == nil {
		return
	}
	ev := api.ReportCreatedEvent{
		ID:        id,
		Type:      t.Discriminator(),
		Breed:     args.Breed,
		Location:  args.Location,
		Latitude:  args.Latitude,
		Longitude: args.Longitude,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.publisher.Publish(ctx, ev); err != nil {
		metrics.PublishErrorTotal.Inc()
		log.Errorf("Failed to publish report %s: %v", id, err)
	}
}

func pageParams(c *gin.Context, page, size int) (int, int, bool) {
	if page < 0 || size < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page and size must not be negative"})
		return 0, 0, false
	}
	if page > api.MaxPage {
		c.JSON(http.StatusBadRequest, gin.H{"error": "page is too large"})
		return 0, 0, false
	}
	if size == 0 {
		size = api.DefaultPageSize
	}
	if size > api.MaxPageSize {
		size = api.MaxPageSize
	}
	return page, size, true
}

func categoryParam(c *gin.Context, v int) (listing.SearchCategory, bool) {
	if v < 0 || v > 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "category must be 1 (region) or 2 (breed)"})
		return listing.CategoryAll, false
	}
	return listing.CategoryFromDiscriminator(v), true
}

func validCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
