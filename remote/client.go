package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"petboard/api"
	"petboard/listing"

	"github.com/apex/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	contentType    = "application/json"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

// Client talks to the petboard backend. It implements listing.Backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ listing.Backend = (*Client)(nil)

func (c *Client) ListReports(ctx context.Context, t listing.ReportType, page, size int) (*listing.Page, error) {
	endpoint := api.LostEndpoint
	if t == listing.Found {
		endpoint = api.FoundEndpoint
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var resp api.PageResponse
	if err := c.get(ctx, endpoint, q, &resp); err != nil {
		return nil, err
	}
	p := &listing.Page{
		Content: make([]listing.Report, 0, len(resp.Content)),
		Last:    resp.Last,
	}
	for _, r := range resp.Content {
		p.Content = append(p.Content, toReport(r))
	}
	return p, nil
}

func (c *Client) SearchReports(ctx context.Context, keyword string, category listing.SearchCategory, page, size int) (*listing.SearchPage, error) {
	q := url.Values{}
	q.Set("keyword", keyword)
	setCategory(q, category)
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var resp api.PageResponse
	if err := c.get(ctx, api.SearchEndpoint, q, &resp); err != nil {
		return nil, err
	}
	p := &listing.SearchPage{
		Content: make([]listing.TypedReport, 0, len(resp.Content)),
		Last:    resp.Last,
	}
	for _, r := range resp.Content {
		p.Content = append(p.Content, listing.TypedReport{Report: toReport(r), Type: r.Type})
	}
	return p, nil
}

func (c *Client) RadiusReports(ctx context.Context, t listing.ReportType, rq listing.RadiusQuery) ([]listing.Report, error) {
	endpoint := api.LostRadiusEndpoint
	if t == listing.Found {
		endpoint = api.FoundRadiusEndpoint
	}
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(rq.Center.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(rq.Center.Lng, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(rq.Radius, 'f', -1, 64))
	if rq.Keyword != "" {
		q.Set("keyword", rq.Keyword)
		setCategory(q, rq.Category)
	}

	var resp []api.Report
	if err := c.get(ctx, endpoint, q, &resp); err != nil {
		return nil, err
	}
	r := make([]listing.Report, 0, len(resp))
	for _, rep := range resp {
		r = append(r, toReport(rep))
	}
	return r, nil
}

// CreateReport posts a new lost or found report.
func (c *Client) CreateReport(ctx context.Context, args *api.ReportArgs) (*api.ReportResponse, error) {
	if args.Version == "" {
		args.Version = api.Version
	}
	body, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("error encoding report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+api.ReportsEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating report request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp api.ReportResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", contentType)
	req.Header.Set(api.RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Request %s %s failed: %v", req.Method, req.URL.Path, err)
		return fmt.Errorf("error making request to %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	log.WithFields(log.Fields{
		"method":     req.Method,
		"path":       req.URL.Path,
		"status":     resp.StatusCode,
		"request_id": requestID,
		"elapsed":    time.Since(started).String(),
	}).Debug("remote.request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func setCategory(q url.Values, category listing.SearchCategory) {
	if v, ok := category.Discriminator(); ok {
		q.Set("category", strconv.Itoa(v))
	}
}

// toReport drops the wire only fields UserID, Type and Distance.
func toReport(r api.Report) listing.Report {
	return listing.Report{
		ID:        r.ID,
		Breed:     r.Breed,
		Remarks:   r.Remarks,
		Location:  r.Location,
		Lat:       r.Latitude,
		Lng:       r.Longitude,
		ImageURL:  r.ImageURL,
		Reward:    r.Reward,
		CreatedAt: r.CreatedAt,
	}
}
