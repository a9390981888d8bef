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

package wire

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

var validate = validator.New()

// toValidationError converts the first failing field reported by the
// validator into a ValidationError
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Namespace())
		return syncerr.NewValidation(field, fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}

	return errors.Wrap(err, "validating payload")
}

// ValidateBundle checks the preconditions of a bundle download. Only the
// route itself is required; malformed children are skipped individually.
func ValidateBundle(b Bundle) error {
	if err := validate.Struct(b.Route); err != nil {
		return toValidationError(err)
	}

	return nil
}

// ValidateComment checks that exactly one target is set and that it
// agrees with the kind
func ValidateComment(kind string, waypointID, routeID *int) error {
	if waypointID != nil && routeID != nil {
		return syncerr.NewValidation("comment", "both waypoint_id and route_id are set")
	}
	if waypointID == nil && routeID == nil {
		return syncerr.NewValidation("comment", "neither waypoint_id nor route_id is set")
	}

	switch kind {
	case CommentKindRoute:
		if routeID == nil {
			return syncerr.NewValidation("comment.kind", "route comment without route_id")
		}
	case CommentKindWaypoint:
		if waypointID == nil {
			return syncerr.NewValidation("comment.kind", "waypoint comment without waypoint_id")
		}
	default:
		return syncerr.NewValidation("comment.kind", fmt.Sprintf("unknown kind '%s'", kind))
	}

	return nil
}

// ValidateChangeSet checks a pushed change set before it is applied
func ValidateChangeSet(c ChangeSet) error {
	if err := validate.Struct(c); err != nil {
		return toValidationError(err)
	}

	if c.Route != nil && c.Route.ID != c.RouteID {
		return syncerr.NewValidation("route.id", "does not match route_id")
	}

	for _, w := range c.Waypoints {
		if w.RouteID != c.RouteID {
			return syncerr.NewValidation("waypoints.route_id", fmt.Sprintf("waypoint %d belongs to another route", w.ID))
		}
		if w.SyncStatus != StatusDeleted && strings.TrimSpace(w.Name) == "" {
			return syncerr.NewValidation("waypoints.name", fmt.Sprintf("waypoint %d has no name", w.ID))
		}
	}

	for _, cm := range c.Comments {
		if err := ValidateComment(cm.Kind, cm.WaypointID, cm.RouteID); err != nil {
			return err
		}
		if cm.RouteID != nil && *cm.RouteID != c.RouteID {
			return syncerr.NewValidation("comments.route_id", fmt.Sprintf("comment %d belongs to another route", cm.ID))
		}
		if cm.SyncStatus != StatusDeleted && strings.TrimSpace(cm.Content) == "" {
			return syncerr.NewValidation("comments.content", fmt.Sprintf("comment %d is empty", cm.ID))
		}
	}

	for _, r := range c.Ratings.Route {
		if r.TargetID != c.RouteID {
			return syncerr.NewValidation("ratings.route.target_id", "rating targets another route")
		}
	}

	for _, f := range c.Favorites.Route {
		if f.RouteID != c.RouteID {
			return syncerr.NewValidation("favorites.route_id", "favorite targets another route")
		}
	}

	return nil
}
