package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"fascicle/internal/model"
)

// Aggregate is the full metadata tree of a series as served by
// GET /series/<slug>/aggregate.
type Aggregate struct {
	Series  model.RawSeries   `json:"series"`
	Volumes []VolumeAggregate `json:"volumes"`
}

// VolumeAggregate pairs a volume with its parts inside an Aggregate.
type VolumeAggregate struct {
	Volume model.RawVolume `json:"volume"`
	Parts  []model.RawPart `json:"parts"`
}

// pagination is the trailer the API attaches to every list response.
type pagination struct {
	Limit    int  `json:"limit"`
	LastPage bool `json:"lastPage"`
}

type followsPage struct {
	Series     []model.RawSeries `json:"series"`
	Pagination pagination        `json:"pagination"`
}

// Event is one entry of the publishing events feed, newest first.
type Event struct {
	Details string      `json:"details"`
	Launch  time.Time   `json:"launch"`
	Serie   EventSeries `json:"serie"`
}

// EventSeries identifies the series an event belongs to.
type EventSeries struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
}

// EventsParams filters the events feed. Zero fields are omitted.
type EventsParams struct {
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Skip      int
}

// EventPage is one page of the events feed. HasMore means older events
// exist beyond the requested window.
type EventPage struct {
	Events  []Event `json:"events"`
	HasMore bool    `json:"-"`
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login authenticates against POST /auth/login and keeps the bearer token
// in memory for the rest of the run.
func (c *Client) Login(ctx context.Context, email, password string) error {
	payload, err := json.Marshal(loginRequest{Login: email, Password: password})
	if err != nil {
		return fmt.Errorf("api: encode login: %w", err)
	}

	data, err := c.fetch(ctx, http.MethodPost, c.endpoint("auth", "login"), nil, payload, false)
	if err != nil {
		return err
	}

	var resp loginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("api: decode login: %w", err)
	}
	if resp.Token == "" {
		return fmt.Errorf("api: login response carried no token")
	}
	c.setToken(resp.Token)
	return nil
}

// Logout invalidates the session with DELETE /auth/logout. The in-memory
// token is dropped even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.fetch(ctx, http.MethodDelete, c.endpoint("auth", "logout"), nil, nil, true)
	c.setToken("")
	return err
}

// SeriesAggregate fetches the whole series tree in one call.
func (c *Client) SeriesAggregate(ctx context.Context, slug string) (*Aggregate, error) {
	var agg Aggregate
	if err := c.getJSON(ctx, c.endpoint("series", slug, "aggregate"), nil, &agg); err != nil {
		return nil, err
	}
	return &agg, nil
}

// SeriesForVolume resolves the series a volume slug belongs to. Needed for
// legacy volume URLs, whose slugs do not carry the series.
func (c *Client) SeriesForVolume(ctx context.Context, volumeSlug string) (model.RawSeries, error) {
	var series model.RawSeries
	err := c.getJSON(ctx, c.endpoint("volumes", volumeSlug, "series"), nil, &series)
	return series, err
}

// SeriesForPart resolves the series a part slug belongs to.
func (c *Client) SeriesForPart(ctx context.Context, partSlug string) (model.RawSeries, error) {
	var series model.RawSeries
	err := c.getJSON(ctx, c.endpoint("parts", partSlug, "series"), nil, &series)
	return series, err
}

// PartContent fetches the prepub XHTML of a part.
func (c *Client) PartContent(ctx context.Context, slug string) (string, error) {
	u := c.endpoint("parts", slug, "content")
	data, err := c.cached(ctx, u.Path, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, http.MethodGet, u, nil, nil, true)
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Account is the profile of the logged-in user as served by GET /me.
type Account struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Level              string `json:"level"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

// Member reports whether the account carries an active paid membership.
// Memberships keep prepub parts readable past their expiration window.
func (a Account) Member() bool {
	if a.Level == "USER" {
		return false
	}
	return a.SubscriptionStatus == "ACTIVE" || a.SubscriptionStatus == "TRIALING"
}

// Me fetches the profile of the logged-in user.
func (c *Client) Me(ctx context.Context) (Account, error) {
	var account Account
	err := c.getJSON(ctx, c.endpoint("me"), nil, &account)
	return account, err
}

// FollowedSeries lists the series followed by the logged-in user, walking
// GET /me/follows with skip until the last page.
func (c *Client) FollowedSeries(ctx context.Context) ([]model.RawSeries, error) {
	var all []model.RawSeries
	skip := 0
	for {
		query := url.Values{}
		if skip > 0 {
			query.Set("skip", strconv.Itoa(skip))
		}

		var page followsPage
		if err := c.getJSON(ctx, c.endpoint("me", "follows"), query, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Series...)

		limit := page.Pagination.Limit
		if page.Pagination.LastPage || limit <= 0 || len(page.Series) < limit {
			return all, nil
		}
		skip += limit
	}
}

// Follow adds a series to the user's followed list.
func (c *Client) Follow(ctx context.Context, seriesID string) error {
	_, err := c.fetch(ctx, http.MethodPut, c.endpoint("me", "follow", seriesID), nil, nil, true)
	return err
}

// Unfollow removes a series from the user's followed list.
func (c *Client) Unfollow(ctx context.Context, seriesID string) error {
	_, err := c.fetch(ctx, http.MethodDelete, c.endpoint("me", "follow", seriesID), nil, nil, true)
	return err
}

// Events fetches one window of the publishing events feed.
func (c *Client) Events(ctx context.Context, params EventsParams) (EventPage, error) {
	query := url.Values{}
	if !params.StartDate.IsZero() {
		query.Set("start_date", params.StartDate.UTC().Format(time.RFC3339))
	}
	if !params.EndDate.IsZero() {
		query.Set("end_date", params.EndDate.UTC().Format(time.RFC3339))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Skip > 0 {
		query.Set("skip", strconv.Itoa(params.Skip))
	}

	var resp struct {
		Events     []Event    `json:"events"`
		Pagination pagination `json:"pagination"`
	}
	if err := c.getJSON(ctx, c.endpoint("events"), query, &resp); err != nil {
		return EventPage{}, err
	}
	return EventPage{Events: resp.Events, HasMore: !resp.Pagination.LastPage}, nil
}

// Image fetches a CDN image by its full URL. Images repeat across parts and
// cover candidates, so responses share the run cache.
func (c *Client) Image(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid image URL %q", rawURL)
	}
	return c.cached(ctx, rawURL, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, http.MethodGet, u, nil, nil, false)
	})
}
