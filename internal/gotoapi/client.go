// Package gotoapi is a small client for the GoTo users and call-history APIs.
package gotoapi

import (
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

	errx "github.com/calldash/server/internal/core/error"
	"github.com/calldash/server/internal/model"
	logx "github.com/calldash/server/pkg/logger"
	"github.com/calldash/server/pkg/metrics"
	"golang.org/x/oauth2"
)

const (
	endpointUsers = "users"
	endpointCalls = "calls"

	// maxPages bounds pagination in case the provider keeps returning markers.
	maxPages = 500
	// bodySnippet is how much of an error body we keep for logs.
	bodySnippet = 512
)

// invalidator is implemented by token sources that can drop a rejected token.
type invalidator interface {
	Invalidate(ctx context.Context)
}

type page[T any] struct {
	Items          []T    `json:"items"`
	NextPageMarker string `json:"nextPageMarker,omitempty"`
}

// Client talks to the provider on behalf of a single account.
type Client struct {
	baseURL    string
	accountKey string
	pageSize   int
	base       http.RoundTripper
	http       *http.Client
	tokens     oauth2.TokenSource
}

type Option func(*Client)

// WithTransport sets the transport underneath the bearer-token transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

// NewClient builds a client whose requests carry a bearer token from tokens.
func NewClient(cfg model.ProviderConfig, tokens oauth2.TokenSource, opts ...Option) *Client {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 15 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accountKey: cfg.AccountKey,
		pageSize:   pageSize,
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: tokens, Base: c.base},
	}
	return c
}

// ListUsers returns every user of the account.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	q := url.Values{}
	q.Set("accountKey", c.accountKey)

	users, err := paginate[model.User](ctx, c, endpointUsers, "/users/v1/users", q)
	if err != nil {
		return nil, err
	}
	logx.Debug().Int("users", len(users)).Msg("fetched users")
	return users, nil
}

// ListCalls returns the call history of one user between start and end,
// both formatted as 2006-01-02T15:04:05Z.
func (c *Client) ListCalls(ctx context.Context, userKey, start, end string) ([]model.Call, error) {
	q := url.Values{}
	q.Set("userKey", userKey)
	q.Set("accountKey", c.accountKey)
	q.Set("startTime", start)
	q.Set("endTime", end)
	q.Set("pageSize", strconv.Itoa(c.pageSize))

	calls, err := paginate[model.Call](ctx, c, endpointCalls, "/call-history/v1/calls", q)
	if err != nil {
		return nil, err
	}
	metrics.CallsFetchedTotal.Add(float64(len(calls)))
	logx.Debug().
		Str("userKey", userKey).
		Str("start", start).
		Str("end", end).
		Int("calls", len(calls)).
		Msg("fetched calls")
	return calls, nil
}

func paginate[T any](ctx context.Context, c *Client, endpoint, path string, q url.Values) ([]T, error) {
	var (
		all    []T
		marker string
	)
	for range maxPages {
		if marker != "" {
			q.Set("pageMarker", marker)
		}
		var p page[T]
		if err := c.getJSON(ctx, endpoint, path, q, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if p.NextPageMarker == "" || p.NextPageMarker == marker {
			return all, nil
		}
		marker = p.NextPageMarker
	}
	logx.Warn().Str("endpoint", endpoint).Int("pages", maxPages).Msg("pagination limit reached")
	return all, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	u := c.baseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	res, err := c.http.Do(req)
	metrics.ProviderRequestDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		var appErr *errx.AppError
		if errors.As(err, &appErr) {
			// token source failure, already mapped
			return err
		}
		logx.Error().Err(err).Str("endpoint", endpoint).Msg("provider request failed")
		return errx.WrapUpstream(fmt.Errorf("%s: %w", endpoint, err), 0)
	}
	defer res.Body.Close()
	metrics.ProviderRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(res.StatusCode)).Inc()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, bodySnippet))
		upstream := &errx.UpstreamError{Endpoint: endpoint, Status: res.StatusCode, Body: strings.TrimSpace(string(body))}
		logx.Error().
			Str("endpoint", endpoint).
			Int("status", res.StatusCode).
			Str("body", upstream.Body).
			Msg("provider returned error status")
		if res.StatusCode == http.StatusUnauthorized {
			if inv, ok := c.tokens.(invalidator); ok {
				inv.Invalidate(ctx)
			}
		}
		return errx.WrapUpstream(upstream, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errx.WrapUpstream(fmt.Errorf("decode %s response: %w", endpoint, err), res.StatusCode)
	}
	return nil
}
