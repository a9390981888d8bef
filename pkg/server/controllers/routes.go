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

package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/app"
	mw "github.com/trailsync/trailsync/pkg/server/middleware"
)

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
	// Limiter throttles the routes that ask for it. Nil disables limiting.
	Limiter *mw.RateLimiter
}

// NewAPIRoutes returns the routes served under /api
func NewAPIRoutes(a *app.App, c *Controllers) []Route {
	return []Route{
		{"POST", "/v1/sync/push", mw.Auth(a.DB, a.Issuer, c.Sync.Push), true},
		{"GET", "/v1/routes", mw.Auth(a.DB, a.Issuer, c.Routes.Index), true},
		{"GET", "/v1/routes/{routeID:[0-9]+}/bundle", mw.Auth(a.DB, a.Issuer, c.Routes.Bundle), true},
	}
}

// NewRouteConfig returns the default route configuration of the app. Rate
// limiting is off in the test environment.
func NewRouteConfig(a *app.App) RouteConfig {
	ctl := New(a)

	var rl *mw.RateLimiter
	if a.AppEnv != "TEST" {
		rl = mw.NewRateLimiter(mw.DefaultRateLimitPerSecond, mw.DefaultRateLimitBurst)
	}

	return RouteConfig{
		Controllers: ctl,
		APIRoutes:   NewAPIRoutes(a, ctl),
		Limiter:     rl,
	}
}

func registerRoutes(router *mux.Router, rl *mw.RateLimiter, routes []Route) {
	for _, route := range routes {
		wrappedHandler := mw.ApplyLimit(route.Handler, route.RateLimit, rl)

		router.
			Handle(route.Pattern, wrappedHandler).
			Methods(route.Method)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "not found", http.StatusNotFound)
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter().StrictSlash(true)

	apiRouter := router.PathPrefix("/api").Subrouter()
	registerRoutes(apiRouter, rc.Limiter, rc.APIRoutes)

	router.Handle("/health", mw.ApplyLimit(rc.Controllers.Health.Index, true, rc.Limiter)).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(notFound)
	apiRouter.NotFoundHandler = http.HandlerFunc(notFound)

	return mw.Global(router), nil
}
