// Copyright 2026 The Peering Manager Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package peeringdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultURL     = "https://peeringdb.com/api/"
	DefaultTimeout = 30 * time.Second

	maxResponseBytes = 64 << 20
)

// ErrUnavailable is returned (wrapped) whenever the registry could not
// produce a usable answer. It is distinct from an empty result.
var ErrUnavailable = errors.New("peeringdb: registry unavailable")

// Client is a read-only HTTP client for the PeeringDB REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
	apiKey     string
}

// ClientOption is a functional option for configuring a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom *http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the overall timeout for a single registry request
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUserAgent overrides the User-Agent header sent with each request
func WithUserAgent(userAgent string) ClientOption {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIKey authenticates requests with a PeeringDB API key
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

// NewClient creates a new registry client. The baseURL should point at the
// API root (e.g., "https://peeringdb.com/api/").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		userAgent: "peering-manager",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	c.logger = c.logger.With("component", "peeringdb")
	return c
}

type lookupResponse struct {
	Data []Record `json:"data"`
}

// Lookup queries a registry namespace with the given filter parameters. A
// depth of 1 is requested unless the caller sets one. A nil error with an
// empty slice means the registry confirmed there are no matching objects;
// any failure to obtain a usable answer returns an error wrapping
// ErrUnavailable.
func (c *Client) Lookup(
	ctx context.Context,
	ns Namespace,
	params url.Values,
) ([]Record, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	if query.Get("depth") == "" {
		query.Set("depth", "1")
	}
	reqURL := c.baseURL + "/" + url.PathEscape(string(ns)) + "?" + query.Encode()
	start := time.Now()
	body, err := c.doGet(ctx, reqURL)
	if err != nil {
		c.logger.Debug(
			"registry lookup failed",
			"namespace", string(ns),
			"error", err,
		)
		return nil, fmt.Errorf("%w: lookup %s: %w", ErrUnavailable, ns, err)
	}
	defer body.Close()

	var resp lookupResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf(
			"%w: decoding %s response: %w",
			ErrUnavailable,
			ns,
			err,
		)
	}
	if resp.Data == nil {
		resp.Data = []Record{}
	}
	c.logger.Debug(
		"registry lookup",
		"namespace", string(ns),
		"records", len(resp.Data),
		"duration", time.Since(start),
	)
	return resp.Data, nil
}

// Networks looks up networks matching params
func (c *Client) Networks(
	ctx context.Context,
	params url.Values,
) ([]NetworkRecord, error) {
	return lookupAs[NetworkRecord](ctx, c, NamespaceNetwork, params)
}

// NetworkIXLANs looks up network IX LAN presences matching params
func (c *Client) NetworkIXLANs(
	ctx context.Context,
	params url.Values,
) ([]NetworkIXLANRecord, error) {
	return lookupAs[NetworkIXLANRecord](
		ctx,
		c,
		NamespaceNetworkInternetExchangeLAN,
		params,
	)
}

// Prefixes looks up IX LAN prefixes matching params
func (c *Client) Prefixes(
	ctx context.Context,
	params url.Values,
) ([]PrefixRecord, error) {
	return lookupAs[PrefixRecord](
		ctx,
		c,
		NamespaceInternetExchangePrefix,
		params,
	)
}

func lookupAs[T any](
	ctx context.Context,
	c *Client,
	ns Namespace,
	params url.Values,
) ([]T, error) {
	records, err := c.Lookup(ctx, ns, params)
	if err != nil {
		return nil, err
	}
	ret := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := rec.Decode(&item); err != nil {
			return nil, fmt.Errorf(
				"%w: decoding %s record: %w",
				ErrUnavailable,
				ns,
				err,
			)
		}
		ret = append(ret, item)
	}
	return ret, nil
}

// doGet performs an HTTP GET request and returns the response body.
// The caller is responsible for closing the returned ReadCloser.
func (c *Client) doGet(
	ctx context.Context,
	reqURL string,
) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		reqURL,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	}

	resp, err := c.httpClient.Do( //nolint:gosec // URL is built from the configured registry base
		req,
	)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return nil, errors.New("nil response from server")
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		return nil, fmt.Errorf(
			"unexpected status %d: %s",
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxResponseBytes),
		Closer: resp.Body,
	}, nil
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
