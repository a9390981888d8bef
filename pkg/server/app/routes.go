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

package app

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"gorm.io/gorm"
)

const (
	defaultPerPage = 30
	maxPerPage     = 100
)

func paginate(conn *gorm.DB, page, perPage int) *gorm.DB {
	if page > 0 {
		offset := perPage * (page - 1)
		conn = conn.Offset(offset)
	}

	return conn.Limit(perPage)
}

// ListRoutesParams filters the route listing
type ListRoutesParams struct {
	Region  string
	Page    int
	PerPage int
}

// ListRoutesResult is the result of listing routes
type ListRoutesResult struct {
	Routes []database.Route
	Total  int64
}

// ListRoutes returns a page of routes, most recently updated first
func (a *App) ListRoutes(params ListRoutesParams) (ListRoutesResult, error) {
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	} else if perPage > maxPerPage {
		perPage = maxPerPage
	}

	conn := a.DB.Model(&database.Route{})
	if params.Region != "" {
		conn = conn.Where("LOWER(region) = ?", strings.ToLower(params.Region))
	}

	var total int64
	if err := conn.Count(&total).Error; err != nil {
		return ListRoutesResult{}, errors.Wrap(err, "counting total")
	}

	routes := []database.Route{}
	if total > 0 {
		q := paginate(conn.Order("updated_at DESC, id DESC"), params.Page, perPage)
		if err := q.Find(&routes).Error; err != nil {
			return ListRoutesResult{}, errors.Wrap(err, "finding routes")
		}
	}

	return ListRoutesResult{Routes: routes, Total: total}, nil
}

// CreateRoute creates an empty route owned by the given user
func (a *App) CreateRoute(userID int, slug, name, region string) (database.Route, error) {
	slug = strings.TrimSpace(slug)
	name = strings.TrimSpace(name)
	if slug == "" {
		return database.Route{}, syncerr.NewValidation("slug", "is required")
	}
	if name == "" {
		return database.Route{}, syncerr.NewValidation("name", "is required")
	}

	var route database.Route
	err := a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.Route{}).Where("LOWER(slug) = ?", strings.ToLower(slug)).Count(&count).Error; err != nil {
			return errors.Wrap(err, "counting routes")
		}
		if count > 0 {
			return ErrDuplicateSlug
		}

		now := a.Clock.Now()
		route = database.Route{
			Model:  database.Model{CreatedAt: now, UpdatedAt: now},
			UserID: userID,
			Slug:   slug,
			Name:   name,
			Region: strings.TrimSpace(region),
		}
		if err := tx.Create(&route).Error; err != nil {
			return errors.Wrap(err, "inserting route")
		}

		return nil
	})
	if err != nil {
		return database.Route{}, err
	}

	return route, nil
}

// getRoute finds a route or returns a NotFoundError
func getRoute(tx *gorm.DB, routeID int) (database.Route, error) {
	var route database.Route

	err := tx.Where("id = ?", routeID).First(&route).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return route, syncerr.NewNotFound("route", routeID)
	} else if err != nil {
		return route, errors.Wrap(err, "finding route")
	}

	return route, nil
}

// RouteBundle is the full snapshot of a route and its children
type RouteBundle struct {
	Route           database.Route
	GPX             []database.GPXSegment
	Waypoints       []database.Waypoint
	Comments        []database.Comment
	Favorites       []database.RouteFavorite
	RouteRatings    []database.RouteRating
	WaypointRatings []database.WaypointRating
	CommentRatings  []database.CommentRating
}

// GetRouteBundle reads the snapshot of a route in one transaction so that
// the cached ratings agree with the rating rows
func (a *App) GetRouteBundle(routeID int) (RouteBundle, error) {
	var b RouteBundle

	err := a.DB.Transaction(func(tx *gorm.DB) error {
		route, err := getRoute(tx, routeID)
		if err != nil {
			return err
		}
		b.Route = route

		if err := tx.Where("route_id = ?", routeID).Order("id").Find(&b.GPX).Error; err != nil {
			return errors.Wrap(err, "finding gpx segments")
		}
		if err := tx.Where("route_id = ?", routeID).Order("id").Find(&b.Waypoints).Error; err != nil {
			return errors.Wrap(err, "finding waypoints")
		}

		waypointIDs := tx.Model(&database.Waypoint{}).Select("id").Where("route_id = ?", routeID)
		if err := tx.Where("route_id = ? OR waypoint_id IN (?)", routeID, waypointIDs).Order("id").Find(&b.Comments).Error; err != nil {
			return errors.Wrap(err, "finding comments")
		}
		if err := tx.Where("route_id = ?", routeID).Order("user_id").Find(&b.Favorites).Error; err != nil {
			return errors.Wrap(err, "finding favorites")
		}
		if err := tx.Where("route_id = ?", routeID).Order("user_id").Find(&b.RouteRatings).Error; err != nil {
			return errors.Wrap(err, "finding route ratings")
		}
		if err := tx.Where("waypoint_id IN (?)", waypointIDs).Order("waypoint_id, user_id").Find(&b.WaypointRatings).Error; err != nil {
			return errors.Wrap(err, "finding waypoint ratings")
		}

		commentIDs := make([]int, 0, len(b.Comments))
		for _, c := range b.Comments {
			commentIDs = append(commentIDs, c.ID)
		}
		if len(commentIDs) > 0 {
			if err := tx.Where("comment_id IN ?", commentIDs).Order("comment_id, user_id").Find(&b.CommentRatings).Error; err != nil {
				return errors.Wrap(err, "finding comment ratings")
			}
		}

		return nil
	})
	if err != nil {
		return RouteBundle{}, err
	}

	return b, nil
}
