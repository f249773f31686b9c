// Package bookingapi is a client for the restaurant bookings REST API.
package bookingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"romaantica/internal/metrics"
	"romaantica/internal/models"
)

const (
	DefaultTimeout = 10 * time.Second

	headerAPIKey         = "x-api-key"
	headerIdempotencyKey = "X-Idempotency-Key"
	slotCachePrefix      = "romaantica:slots"
)

// Client calls the bookings endpoints under {baseURL}/bookings.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration

	healthPath string
}

// NewClient constructs a client for baseURL, e.g. "http://localhost:5000/api".
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/") + "/bookings",
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zerolog.Nop(),
	}
}

// UseRedisCache configures optional Redis caching for slot lookups.
func (c *Client) UseRedisCache(redisClient *redis.Client, ttl time.Duration) {
	c.redis = redisClient
	c.cacheTTL = ttl
}

// UseRateLimit throttles outbound calls to r per second with the given burst.
func (c *Client) UseRateLimit(r float64, burst int) {
	if r <= 0 {
		c.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	c.limiter = rate.NewLimiter(rate.Limit(r), burst)
}

// SetLogger sets the request logger.
func (c *Client) SetLogger(logger *zerolog.Logger) {
	if logger != nil {
		c.logger = logger.With().Str("component", "bookingapi").Logger()
	}
}

// ListBookings returns every booking.
func (c *Client) ListBookings(ctx context.Context) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	err := c.doJSON(ctx, "list", http.MethodGet, c.baseURL, nil, nil, &out)
	return out, err
}

// GetBooking returns the booking with id.
func (c *Client) GetBooking(ctx context.Context, id int64) (*models.BookingRecord, error) {
	var out models.BookingRecord
	if err := c.doJSON(ctx, "get", http.MethodGet, c.bookingURL(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// BookingsByDate returns the bookings of an ISO day.
func (c *Client) BookingsByDate(ctx context.Context, date string) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	endpoint := fmt.Sprintf("%s/date/%s", c.baseURL, url.PathEscape(date))
	err := c.doJSON(ctx, "by_date", http.MethodGet, endpoint, nil, nil, &out)
	return out, err
}

// BookingsByStatus returns the bookings in status.
func (c *Client) BookingsByStatus(ctx context.Context, status models.BookingStatus) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	endpoint := fmt.Sprintf("%s/status/%s", c.baseURL, url.PathEscape(string(status)))
	err := c.doJSON(ctx, "by_status", http.MethodGet, endpoint, nil, nil, &out)
	return out, err
}

// BookingsInRange returns the bookings between two ISO days, inclusive.
func (c *Client) BookingsInRange(ctx context.Context, startDate, endDate string) ([]models.BookingRecord, error) {
	var out []models.BookingRecord
	q := url.Values{"startDate": {startDate}, "endDate": {endDate}}
	err := c.doJSON(ctx, "range", http.MethodGet, c.baseURL+"/range?"+q.Encode(), nil, nil, &out)
	return out, err
}

// CreateBooking stores draft and returns the created booking. The idempotency
// key comes from ctx when the caller set one. Any 2xx is an acknowledgement:
// a body that cannot be decoded yields the draft echoed back as a pending booking.
func (c *Client) CreateBooking(ctx context.Context, draft models.DraftBooking) (*models.BookingRecord, error) {
	key := models.IdempotencyKey(ctx)
	if key == "" {
		key = uuid.NewString()
	}
	headers := http.Header{}
	headers.Set(headerIdempotencyKey, key)

	var body []byte
	if err := c.doJSON(ctx, "create", http.MethodPost, c.baseURL, headers, draft, &body); err != nil {
		return nil, err
	}
	c.invalidateSlots(ctx, draft.Date)

	if len(bytes.TrimSpace(body)) > 0 {
		var out models.BookingRecord
		err := json.Unmarshal(body, &out)
		if err == nil {
			return &out, nil
		}
		c.logger.Warn().Err(err).Str("date", draft.Date).Str("time", draft.Time).Msg("booking created, response not decodable")
	}
	return echoDraft(draft), nil
}

func echoDraft(d models.DraftBooking) *models.BookingRecord {
	return &models.BookingRecord{
		CustomerName:    d.CustomerName,
		CustomerEmail:   d.CustomerEmail,
		CustomerPhone:   d.CustomerPhone,
		Date:            d.Date,
		Time:            d.Time,
		NumberOfGuests:  d.NumberOfGuests,
		Status:          models.StatusPending,
		SpecialRequests: d.SpecialRequests,
	}
}

// UpdateBookingStatus changes the status of booking id.
func (c *Client) UpdateBookingStatus(ctx context.Context, id int64, status models.BookingStatus) error {
	body := models.UpdateBookingStatusRequest{Status: status}
	return c.doJSON(ctx, "update_status", http.MethodPatch, c.bookingURL(id)+"/status", nil, body, nil)
}

// UpdateBooking replaces booking id and returns the stored version.
func (c *Client) UpdateBooking(ctx context.Context, id int64, booking models.BookingRecord) (*models.BookingRecord, error) {
	var out models.BookingRecord
	if err := c.doJSON(ctx, "update", http.MethodPut, c.bookingURL(id), nil, booking, &out); err != nil {
		return nil, err
	}
	c.invalidateSlots(ctx, booking.Date)
	return &out, nil
}

// DeleteBooking removes booking id.
func (c *Client) DeleteBooking(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete", http.MethodDelete, c.bookingURL(id), nil, nil, nil)
}

// GetAvailableTimeSlots returns the slots of date for a party of guests.
// The API may answer with slot objects or with bare times; bare times are available.
func (c *Client) GetAvailableTimeSlots(ctx context.Context, date string, guests int) ([]models.TimeSlot, error) {
	cacheKey := fmt.Sprintf("%s:%s:%d", slotCachePrefix, date, guests)
	var slots []models.TimeSlot
	if c.readCache(ctx, cacheKey, &slots) {
		return slots, nil
	}

	q := url.Values{"date": {date}, "numberOfGuests": {strconv.Itoa(guests)}}
	var raw []json.RawMessage
	if err := c.doJSON(ctx, "available_slots", http.MethodGet, c.baseURL+"/available-slots?"+q.Encode(), nil, nil, &raw); err != nil {
		return nil, err
	}
	slots, err := decodeSlots(raw)
	if err != nil {
		return nil, fmt.Errorf("decode available slots: %w", err)
	}
	c.writeCache(ctx, cacheKey, slots)
	return slots, nil
}

// CheckAvailability reports whether time on date can host guests.
func (c *Client) CheckAvailability(ctx context.Context, date, tm string, guests int) (bool, error) {
	q := url.Values{"date": {date}, "time": {tm}, "numberOfGuests": {strconv.Itoa(guests)}}
	var ok bool
	err := c.doJSON(ctx, "check_availability", http.MethodGet, c.baseURL+"/check-availability?"+q.Encode(), nil, nil, &ok)
	return ok, err
}

func decodeSlots(raw []json.RawMessage) ([]models.TimeSlot, error) {
	slots := make([]models.TimeSlot, 0, len(raw))
	for _, item := range raw {
		item = bytes.TrimSpace(item)
		if len(item) > 0 && item[0] == '"' {
			var t string
			if err := json.Unmarshal(item, &t); err != nil {
				return nil, err
			}
			slots = append(slots, models.TimeSlot{Time: t, Available: true})
			continue
		}
		var slot models.TimeSlot
		if err := json.Unmarshal(item, &slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (c *Client) bookingURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) readCache(ctx context.Context, key string, out any) bool {
	if c.redis == nil || c.cacheTTL <= 0 {
		return false
	}
	val, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		metrics.IncCacheLookup(false)
		return false
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		metrics.IncCacheLookup(false)
		return false
	}
	metrics.IncCacheLookup(true)
	return true
}

func (c *Client) writeCache(ctx context.Context, key string, val any) {
	if c.redis == nil || c.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.cacheTTL).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("slot cache write failed")
	}
}

// invalidateSlots drops every cached slot list of date.
func (c *Client) invalidateSlots(ctx context.Context, date string) {
	if c.redis == nil || date == "" {
		return
	}
	pattern := fmt.Sprintf("%s:%s:*", slotCachePrefix, date)
	iter := c.redis.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn().Err(err).Str("date", date).Msg("slot cache scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Str("date", date).Msg("slot cache invalidation failed")
	}
}

func (c *Client) doJSON(ctx context.Context, name, method, endpoint string, headers http.Header, body, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", name, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	c.addHeaders(req)
	return c.do(name, req, out)
}

func (c *Client) do(name string, req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return transportError(req, fmt.Errorf("rate limiter: %w", err))
		}
	}

	c.logger.Debug().Str("method", req.Method).Str("url", req.URL.String()).Msg("booking api request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncAPIRequest(name, 0)
		c.logger.Error().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("booking api unreachable")
		return transportError(req, err)
	}
	defer resp.Body.Close()
	metrics.IncAPIRequest(name, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(req, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode >= 300 {
		apiErr := responseError(req, resp.StatusCode, data)
		c.logger.Error().Int("status", apiErr.Status).Str("message", apiErr.Message).Str("url", apiErr.URL).Msg("booking api error")
		return apiErr
	}
	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", name, err)
	}
	return nil
}

func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if req.Body != nil && req.Body != http.NoBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set(headerAPIKey, c.apiKey)
	}
}

// SetHealthPath makes Ping probe path, relative to the API root (e.g. "/health").
// Without it Ping asks for today's available slots.
func (c *Client) SetHealthPath(path string) {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	c.healthPath = path
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := c.pingURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	c.addHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(req, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Status: resp.StatusCode, Method: req.Method, URL: endpoint}
	}
	return nil
}

func (c *Client) pingURL() string {
	if c.healthPath != "" {
		return strings.TrimSuffix(c.baseURL, "/bookings") + c.healthPath
	}
	q := url.Values{
		"date":           {time.Now().Format(models.DateLayout)},
		"numberOfGuests": {"1"},
	}
	return c.baseURL + "/available-slots?" + q.Encode()
}
