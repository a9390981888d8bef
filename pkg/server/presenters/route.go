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

package presenters

import (
	"github.com/trailsync/trailsync/pkg/server/app"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/wire"
)

// PresentRoute presents a route
func PresentRoute(r database.Route) wire.Route {
	return wire.Route{
		ID:        r.ID,
		UserID:    r.UserID,
		Slug:      r.Slug,
		Name:      r.Name,
		Region:    r.Region,
		Rating:    r.Rating,
		CreatedAt: FormatTS(r.CreatedAt),
		UpdatedAt: FormatTS(r.UpdatedAt),
	}
}

// PresentRouteList presents a page of the route listing
func PresentRouteList(res app.ListRoutesResult) wire.RouteList {
	ret := wire.RouteList{
		Routes: []wire.RouteSummary{},
		Total:  res.Total,
	}

	for _, r := range res.Routes {
		ret.Routes = append(ret.Routes, wire.RouteSummary{
			ID:        r.ID,
			Slug:      r.Slug,
			Name:      r.Name,
			Region:    r.Region,
			Rating:    r.Rating,
			UpdatedAt: FormatTS(r.UpdatedAt),
		})
	}

	return ret
}

// PresentWaypoint presents a waypoint
func PresentWaypoint(w database.Waypoint) wire.Waypoint {
	return wire.Waypoint{
		ID:          w.ID,
		RouteID:     w.RouteID,
		UserID:      w.UserID,
		Name:        w.Name,
		Description: w.Description,
		Lat:         w.Lat,
		Lon:         w.Lon,
		Type:        w.Type,
		Rating:      w.Rating,
		CreatedAt:   FormatTS(w.CreatedAt),
		UpdatedAt:   FormatTS(w.UpdatedAt),
	}
}

// PresentComment presents a comment
func PresentComment(c database.Comment) wire.Comment {
	return wire.Comment{
		ID:         c.ID,
		UserID:     c.UserID,
		Kind:       c.Kind,
		WaypointID: c.WaypointID,
		RouteID:    c.RouteID,
		Content:    c.Content,
		Edited:     c.Edited,
		Rating:     c.Rating,
		CreatedAt:  FormatTS(c.CreatedAt),
		UpdatedAt:  FormatTS(c.UpdatedAt),
	}
}

// PresentBundle presents the snapshot of a route
func PresentBundle(b app.RouteBundle) wire.Bundle {
	ret := wire.Bundle{
		Route:     PresentRoute(b.Route),
		GPX:       []wire.GPXSegment{},
		Waypoints: []wire.Waypoint{},
		Comments:  []wire.Comment{},
		Favorites: wire.Favorites{Route: []wire.RouteFavorite{}},
		Ratings: wire.Ratings{
			Route:    []wire.Rating{},
			Waypoint: []wire.Rating{},
			Comment:  []wire.Rating{},
		},
	}

	for _, g := range b.GPX {
		ret.GPX = append(ret.GPX, wire.GPXSegment{ID: g.ID, RouteID: g.RouteID, Name: g.Name, Geometry: g.Geometry})
	}
	for _, w := range b.Waypoints {
		ret.Waypoints = append(ret.Waypoints, PresentWaypoint(w))
	}
	for _, c := range b.Comments {
		ret.Comments = append(ret.Comments, PresentComment(c))
	}
	for _, f := range b.Favorites {
		ret.Favorites.Route = append(ret.Favorites.Route, wire.RouteFavorite{UserID: f.UserID, RouteID: f.RouteID})
	}
	for _, r := range b.RouteRatings {
		ret.Ratings.Route = append(ret.Ratings.Route, wire.Rating{UserID: r.UserID, TargetID: r.RouteID, Val: r.Val})
	}
	for _, r := range b.WaypointRatings {
		ret.Ratings.Waypoint = append(ret.Ratings.Waypoint, wire.Rating{UserID: r.UserID, TargetID: r.WaypointID, Val: r.Val})
	}
	for _, r := range b.CommentRatings {
		ret.Ratings.Comment = append(ret.Ratings.Comment, wire.Rating{UserID: r.UserID, TargetID: r.CommentID, Val: r.Val})
	}

	return ret
}
