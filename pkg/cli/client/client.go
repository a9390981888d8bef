/* Copyright 2025 Trailsync Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package client provides the transport to the trailsync server
package client

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

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
	"golang.org/x/time/rate"
)

// ErrContentTypeMismatch is returned when the server does not respond with JSON
var ErrContentTypeMismatch = errors.New("content type mismatch")

// HTTPError represents an HTTP error response from the server
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf(`response %d "%s"`, e.StatusCode, e.Message)
}

// IsConflict returns true if the error is a 409 Conflict error
func (e *HTTPError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsUnauthorized returns true if the server rejected the credential
func (e *HTTPError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

const contentTypeApplicationJSON = "application/json"

const (
	// defaultRateLimitPerSecond is the max requests per second the client will make
	defaultRateLimitPerSecond = 50
	// rateLimitBurst is the burst capacity for rate limiting
	rateLimitBurst = 100
)

// rateLimitedTransport wraps an http.RoundTripper with rate limiting
type rateLimitedTransport struct {
	transport http.RoundTripper
	limiter   *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	return t.transport.RoundTrip(req)
}

// NewRateLimitedHTTPClient creates an HTTP client sending at most
// perSecond requests per second. Zero selects the default.
func NewRateLimitedHTTPClient(perSecond float64) *http.Client {
	if perSecond <= 0 {
		perSecond = defaultRateLimitPerSecond
	}

	transport := &rateLimitedTransport{
		transport: http.DefaultTransport,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), rateLimitBurst),
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Minute,
	}
}

// Client talks to the sync endpoints of the server
type Client struct {
	Endpoint   string
	Version    string
	HTTPClient *http.Client
	Credential credential.Provider
}

// New returns a client for the API at the given endpoint
func New(endpoint, version string, hc *http.Client, cred credential.Provider) *Client {
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		Endpoint:   strings.TrimRight(endpoint, "/"),
		Version:    version,
		HTTPClient: hc,
		Credential: cred,
	}
}

func (c *Client) newReq(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	token, err := c.Credential.Token(ctx)
	if err != nil {
		return nil, err
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.Endpoint+path, r)
	if err != nil {
		return nil, errors.Wrap(err, "constructing http request")
	}

	req.Header.Set("CLI-Version", c.Version)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	if body != nil {
		req.Header.Set("Content-Type", contentTypeApplicationJSON)
	}

	return req, nil
}

// checkRespErr converts an error response into an HTTPError
func checkRespErr(res *http.Response) error {
	if res.StatusCode < 400 {
		return nil
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return errors.Wrapf(err, "server responded with %d but client could not read the response body", res.StatusCode)
	}

	return &HTTPError{
		StatusCode: res.StatusCode,
		Message:    strings.TrimRight(string(body), "\n"),
	}
}

func checkContentType(res *http.Response) error {
	got := res.Header.Get("Content-Type")
	if !strings.HasPrefix(got, contentTypeApplicationJSON) {
		return errors.Wrapf(ErrContentTypeMismatch, "got: '%s' want: '%s'. Did you configure your endpoint correctly?", got, contentTypeApplicationJSON)
	}

	return nil
}

// do sends the request and decodes a JSON response into dest. Transport
// failures are returned as NetworkError.
func (c *Client) do(ctx context.Context, op, method, path string, payload, dest interface{}) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(err, "marshalling payload")
		}
		body = b
	}

	req, err := c.newReq(ctx, method, path, body)
	if err != nil {
		return err
	}

	log.Debug("HTTP %s %s\n", method, path)

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return &syncerr.NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	log.Debug("HTTP %d %s\n", res.StatusCode, res.Status)

	if err := checkRespErr(res); err != nil {
		return err
	}
	if err := checkContentType(res); err != nil {
		return errors.Wrap(err, "unexpected Content-Type")
	}

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return &syncerr.NetworkError{Op: op, Err: errors.Wrap(err, "decoding the response body")}
	}

	return nil
}

// mapError translates an error response into the sync error taxonomy.
// 400, 403, 404 and 409 map to their typed errors and any 5xx becomes a
// NetworkError so the operation can be retried. Other statuses, such as a
// rejected credential, are returned as the HTTPError.
func (c *Client) mapError(ctx context.Context, err error, op, resource string, id int, msg string) error {
	var herr *HTTPError
	if !errors.As(err, &herr) {
		return errors.Wrap(err, msg)
	}

	switch {
	case herr.StatusCode == http.StatusBadRequest:
		return syncerr.NewValidation("", herr.Message)
	case herr.StatusCode == http.StatusForbidden:
		return syncerr.NewNotOwner(resource, id, c.userID(ctx))
	case herr.StatusCode == http.StatusNotFound:
		return syncerr.NewNotFound(resource, id)
	case herr.IsConflict():
		return syncerr.NewConflict(resource, id, herr.Message)
	case herr.StatusCode >= http.StatusInternalServerError:
		return &syncerr.NetworkError{Op: op, Err: herr}
	}

	return errors.Wrap(err, msg)
}

// userID returns the id of the signed-in user, or 0 if the token cannot
// be decoded
func (c *Client) userID(ctx context.Context) int {
	token, err := c.Credential.Token(ctx)
	if err != nil {
		return 0
	}

	id, err := credential.Decode(token)
	if err != nil {
		return 0
	}

	return id.UserID
}

// PushChanges sends a change set to the server
func (c *Client) PushChanges(ctx context.Context, cs wire.ChangeSet) (wire.PushResponse, error) {
	var ret wire.PushResponse

	err := c.do(ctx, "push", http.MethodPost, "/v1/sync/push", cs, &ret)
	if err != nil {
		return ret, c.mapError(ctx, err, "push", "route", cs.RouteID, "pushing changes")
	}

	return ret, nil
}

// GetRouteBundle fetches the full snapshot of a route
func (c *Client) GetRouteBundle(ctx context.Context, routeID int) (wire.Bundle, error) {
	var ret wire.Bundle

	path := fmt.Sprintf("/v1/routes/%d/bundle", routeID)
	if err := c.do(ctx, "download", http.MethodGet, path, nil, &ret); err != nil {
		return ret, c.mapError(ctx, err, "download", "route", routeID, "getting route bundle")
	}

	return ret, nil
}

// ListRoutesParams filters the route listing
type ListRoutesParams struct {
	Region  string
	Page    int
	PerPage int
}

// ListRoutes lists the routes known to the server
func (c *Client) ListRoutes(ctx context.Context, p ListRoutesParams) (wire.RouteList, error) {
	var ret wire.RouteList

	v := url.Values{}
	if p.Region != "" {
		v.Set("region", p.Region)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(p.PerPage))
	}

	path := "/v1/routes"
	if q := v.Encode(); q != "" {
		path = path + "?" + q
	}

	if err := c.do(ctx, "list", http.MethodGet, path, nil, &ret); err != nil {
		return ret, c.mapError(ctx, err, "list", "route", 0, "listing routes")
	}

	return ret, nil
}
