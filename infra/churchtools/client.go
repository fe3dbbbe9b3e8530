// Package churchtools fetches room bookings from a ChurchTools instance.
// One request covers one resource: the poller isolates rooms from each
// other, so a failing fetch never involves more than one room.
package churchtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/heatplan/heatplan/core/logger"
	"github.com/heatplan/heatplan/core/model"
)

// Config defines the ChurchTools API connection.
type Config struct {
	// Host is the instance name, e.g. "church.example.org". A scheme may
	// be given explicitly; https is assumed otherwise.
	Host string `json:"host"`
	// LoginToken authenticates as "Authorization: Login {token}".
	LoginToken string `json:"login_token"`
}

// Validate checks that the connection is fully specified.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("churchtools: host is required")
	}
	if c.LoginToken == "" {
		return fmt.Errorf("churchtools: login_token is required")
	}
	return nil
}

// StatusError is returned for non-2xx API responses.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("churchtools: unexpected response status %s", e.Status)
}

type bookingsResponse struct {
	Data []bookingData `json:"data"`
}

type bookingData struct {
	Base struct {
		ID int64 `json:"id"`
	} `json:"base"`
	Calculated struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	} `json:"calculated"`
}

// Client talks to the bookings endpoint. Request deadlines come from the
// caller's context; the client sets none of its own.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     logger.Logger
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, log logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := cfg.Host
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   cfg.LoginToken,
		http:    &http.Client{},
		log:     log,
	}, nil
}

// Bookings returns the confirmed bookings of one resource overlapping
// [from, to). The API filters at day granularity; callers narrow further.
// All instants are normalized to UTC.
func (c *Client) Bookings(ctx context.Context, roomID int64, from, to time.Time) ([]model.BookingInterval, error) {
	u, err := url.Parse(c.baseURL + "/api/bookings")
	if err != nil {
		return nil, fmt.Errorf("churchtools: bad host: %w", err)
	}
	q := url.Values{}
	q.Add("resource_ids[]", strconv.FormatInt(roomID, 10))
	// status 2 is "confirmed"; unconfirmed requests never drive heating.
	q.Add("status_ids[]", "2")
	q.Add("from", from.UTC().Format("2006-01-02"))
	q.Add("to", to.UTC().Format("2006-01-02"))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("churchtools: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Login "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("churchtools: get bookings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	var payload bookingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("churchtools: decode bookings: %w", err)
	}

	out := make([]model.BookingInterval, 0, len(payload.Data))
	for _, d := range payload.Data {
		if d.Base.ID != roomID {
			continue
		}
		start, err := time.Parse(time.RFC3339, d.Calculated.StartDate)
		if err != nil {
			return nil, fmt.Errorf("churchtools: parse startDate %q: %w", d.Calculated.StartDate, err)
		}
		end, err := time.Parse(time.RFC3339, d.Calculated.EndDate)
		if err != nil {
			return nil, fmt.Errorf("churchtools: parse endDate %q: %w", d.Calculated.EndDate, err)
		}
		out = append(out, model.BookingInterval{Start: start.UTC(), End: end.UTC()})
	}
	return out, nil
}
