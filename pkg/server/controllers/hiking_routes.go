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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/schema"
	"github.com/trailsync/trailsync/pkg/server/app"
	mw "github.com/trailsync/trailsync/pkg/server/middleware"
	"github.com/trailsync/trailsync/pkg/server/presenters"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

var queryDecoder = newQueryDecoder()

func newQueryDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

// NewRoutes creates a new Routes controller
func NewRoutes(app *app.App) *Routes {
	return &Routes{app: app}
}

// Routes is a controller for hiking routes
type Routes struct {
	app *app.App
}

type listRoutesQuery struct {
	Region  string `schema:"region"`
	Page    int    `schema:"page"`
	PerPage int    `schema:"per_page"`
}

func parseListRoutesQuery(r *http.Request) (app.ListRoutesParams, error) {
	var q listRoutesQuery
	if err := queryDecoder.Decode(&q, r.URL.Query()); err != nil {
		return app.ListRoutesParams{}, syncerr.NewValidation("query", err.Error())
	}

	if q.Page < 0 {
		return app.ListRoutesParams{}, syncerr.NewValidation("page", "must not be negative")
	}
	if q.PerPage < 0 {
		return app.ListRoutesParams{}, syncerr.NewValidation("per_page", "must not be negative")
	}

	return app.ListRoutesParams{
		Region:  q.Region,
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

// Index handles GET /api/v1/routes
func (rc *Routes) Index(w http.ResponseWriter, r *http.Request) {
	params, err := parseListRoutesQuery(r)
	if err != nil {
		mw.DoError(w, "parsing query", err, http.StatusBadRequest)
		return
	}

	res, err := rc.app.ListRoutes(params)
	if err != nil {
		mw.DoError(w, "listing routes", err, http.StatusInternalServerError)
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentRouteList(res))
}

func parseRouteID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["routeID"]

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, syncerr.NewValidation("route_id", fmt.Sprintf("invalid id '%s'", raw))
	}

	return id, nil
}

// Bundle handles GET /api/v1/routes/{routeID}/bundle
func (rc *Routes) Bundle(w http.ResponseWriter, r *http.Request) {
	id, err := parseRouteID(r)
	if err != nil {
		mw.DoError(w, "parsing route id", err, http.StatusBadRequest)
		return
	}

	b, err := rc.app.GetRouteBundle(id)
	if err != nil {
		mw.DoError(w, "getting route bundle", err, http.StatusInternalServerError)
		return
	}

	mw.RespondJSON(w, http.StatusOK, presenters.PresentBundle(b))
}
