// Package client talks to the auction API and falls back to the offline
// snapshot when the API cannot be reached.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"auctionbook/internal/apperrors"
	"auctionbook/internal/logger"
	"auctionbook/internal/models"
	"auctionbook/pkg/offline"
)

const (
	DefaultTimeout     = 10 * time.Second
	responseBodyLimit  = 1 << 20
	errorBodyReadLimit = 4096
	healthCheckTimeout = 3 * time.Second
	defaultAPIBaseURL  = "http://localhost:8080/api"
)

// ErrOffline is returned by write calls while the API is unreachable.
// Offline writes are rejected, never queued.
var ErrOffline = apperrors.TransientIO(errors.New("offline"), "network unavailable, changes cannot be saved")

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

// Source tells where a list of auctions came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// ItemRequest is one line item in a create or update body.
type ItemRequest struct {
	ItemName string          `json:"itemName"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// AuctionRequest is the body of create and update calls.
type AuctionRequest struct {
	PersonName   string        `json:"personName"`
	MobileNumber string        `json:"mobileNumber"`
	AuctionDate  models.Date   `json:"auctionDate"`
	Items        []ItemRequest `json:"items"`
	IsPaid       bool          `json:"isPaid"`
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status          string `json:"status"`
	HasDBConnection bool   `json:"hasDbConnection"`
}

// Client is an HTTP client for the auction API.
type Client struct {
	httpClient   *http.Client
	timeout      time.Duration
	baseURL      string
	cache        offline.Store
	connectivity Connectivity
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request made by the client. It applies to an
// injected HTTP client too, whatever the option order, without modifying it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithCache enables the offline snapshot used by FetchAuctions.
func WithCache(store offline.Store) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithConnectivity replaces the default health-check connectivity test.
func WithConnectivity(conn Connectivity) Option {
	return func(c *Client) {
		if conn != nil {
			c.connectivity = conn
		}
	}
}

// New builds a client for the API rooted at baseURL, e.g.
// http://localhost:8080/api.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	if c.baseURL == "" {
		c.baseURL = defaultAPIBaseURL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	if c.connectivity == nil {
		c.connectivity = &HealthCheck{client: c}
	}
	return c
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.do(ctx, http.MethodGet, "/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListAuctions fetches auctions from the API. month and year restrict the
// result to one calendar month when both are non-zero.
func (c *Client) ListAuctions(ctx context.Context, month, year int) ([]models.Auction, error) {
	path := "/auctions"
	if month != 0 && year != 0 {
		q := url.Values{}
		q.Set("month", strconv.Itoa(month))
		q.Set("year", strconv.Itoa(year))
		path += "?" + q.Encode()
	}
	var auctions []models.Auction
	if err := c.do(ctx, http.MethodGet, path, nil, &auctions); err != nil {
		return nil, err
	}
	if auctions == nil {
		auctions = []models.Auction{}
	}
	return auctions, nil
}

// FetchAuctions returns the live list when the API is reachable and
// refreshes the snapshot with it. Otherwise, or when the live call fails, it
// serves the snapshot. The error is returned only when no snapshot exists.
func (c *Client) FetchAuctions(ctx context.Context) ([]models.Auction, Source, error) {
	if !c.connectivity.Online(ctx) {
		return c.fromCache(ctx, ErrOffline)
	}

	auctions, err := c.ListAuctions(ctx, 0, 0)
	if err != nil {
		logger.Warn("live auction fetch failed, trying cache", map[string]any{"error": err.Error()})
		return c.fromCache(ctx, err)
	}

	if c.cache != nil {
		if err := c.cache.Save(ctx, auctions); err != nil {
			logger.Warn("failed to refresh auction cache", map[string]any{"error": err.Error()})
		}
	}
	return auctions, SourceLive, nil
}

// CreateAuction submits a new auction.
func (c *Client) CreateAuction(ctx context.Context, req AuctionRequest) (*models.Auction, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := c.requireOnline(ctx); err != nil {
		return nil, err
	}
	var auction models.Auction
	if err := c.do(ctx, http.MethodPost, "/auctions", req, &auction); err != nil {
		return nil, err
	}
	c.patchCache(ctx, func(list []models.Auction) []models.Auction {
		return append([]models.Auction{auction}, list...)
	})
	return &auction, nil
}

// UpdateAuction replaces an auction and all of its items.
func (c *Client) UpdateAuction(ctx context.Context, id string, req AuctionRequest) (*models.Auction, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := c.requireOnline(ctx); err != nil {
		return nil, err
	}
	var auction models.Auction
	if err := c.do(ctx, http.MethodPut, "/auctions/"+url.PathEscape(id), req, &auction); err != nil {
		return nil, err
	}
	c.patchCache(ctx, replaceIn(auction))
	return &auction, nil
}

// MarkPaid flags an auction as paid.
func (c *Client) MarkPaid(ctx context.Context, id string) (*models.Auction, error) {
	if err := c.requireOnline(ctx); err != nil {
		return nil, err
	}
	var auction models.Auction
	if err := c.do(ctx, http.MethodPatch, "/auctions/"+url.PathEscape(id)+"/pay", nil, &auction); err != nil {
		return nil, err
	}
	c.patchCache(ctx, replaceIn(auction))
	return &auction, nil
}

// DeleteAuction removes an auction.
func (c *Client) DeleteAuction(ctx context.Context, id string) error {
	if err := c.requireOnline(ctx); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodDelete, "/auctions/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.patchCache(ctx, func(list []models.Auction) []models.Auction {
		out := list[:0]
		for _, a := range list {
			if a.ID != id {
				out = append(out, a)
			}
		}
		return out
	})
	return nil
}

// ValidateMobile checks the 10-digit mobile number rule applied before
// submitting.
func ValidateMobile(mobile string) error {
	if !mobilePattern.MatchString(strings.TrimSpace(mobile)) {
		return apperrors.ValidationFields("invalid mobile number", map[string]string{
			"mobileNumber": "mobile number must be exactly 10 digits",
		})
	}
	return nil
}

// ValidateRequest runs the checks a form performs before submitting.
func ValidateRequest(req AuctionRequest) error {
	fields := make(map[string]string)
	if strings.TrimSpace(req.PersonName) == "" {
		fields["personName"] = "personName is required"
	}
	if err := ValidateMobile(req.MobileNumber); err != nil {
		fields["mobileNumber"] = "mobile number must be exactly 10 digits"
	}
	if req.AuctionDate.IsZero() {
		fields["auctionDate"] = "auctionDate is required"
	}
	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ItemName) == "" || item.Quantity <= 0 || !item.Price.Round(2).IsPositive() {
			fields[fmt.Sprintf("items[%d]", i)] = "each item needs a name, a quantity above 0 and a price above 0"
		}
	}
	if len(fields) > 0 {
		return apperrors.ValidationFields("please fill in all required fields", fields)
	}
	return nil
}

func (c *Client) requireOnline(ctx context.Context) error {
	if !c.connectivity.Online(ctx) {
		return ErrOffline
	}
	return nil
}

func (c *Client) fromCache(ctx context.Context, cause error) ([]models.Auction, Source, error) {
	if c.cache == nil {
		return nil, "", cause
	}
	auctions, ok, err := c.cache.Load(ctx)
	if err != nil {
		logger.Warn("failed to read auction cache", map[string]any{"error": err.Error()})
		return nil, "", cause
	}
	if !ok {
		return nil, "", cause
	}
	return auctions, SourceCache, nil
}

func (c *Client) patchCache(ctx context.Context, patch func([]models.Auction) []models.Auction) {
	if c.cache == nil {
		return
	}
	list, ok, err := c.cache.Load(ctx)
	if err != nil || !ok {
		return
	}
	if err := c.cache.Save(ctx, patch(list)); err != nil {
		logger.Warn("failed to update auction cache", map[string]any{"error": err.Error()})
	}
}

func replaceIn(auction models.Auction) func([]models.Auction) []models.Auction {
	return func(list []models.Auction) []models.Auction {
		for i := range list {
			if list[i].ID == auction.ID {
				list[i] = auction
			}
		}
		return list
	}
}

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Internal(err, "marshal %s %s request", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Internal(err, "build %s %s request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.TransientIO(err, "%s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseBodyLimit))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, responseBodyLimit)).Decode(out); err != nil {
		return apperrors.Internal(err, "decode %s %s response", method, path)
	}
	return nil
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(raw))
	}
	if body.Message == "" {
		body.Message = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.ValidationFields(body.Message, body.Fields)
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound("%s", body.Message)
	case resp.StatusCode == http.StatusServiceUnavailable,
		resp.StatusCode == http.StatusBadGateway,
		resp.StatusCode == http.StatusGatewayTimeout:
		return apperrors.TransientIO(fmt.Errorf("status %d", resp.StatusCode), "%s", body.Message)
	default:
		return apperrors.Internal(fmt.Errorf("status %d", resp.StatusCode), "%s", body.Message)
	}
}
