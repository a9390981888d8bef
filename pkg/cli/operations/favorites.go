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

package operations

import (
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/status"
)

// ToggleFavorite adds the route to the favorites of the user, or removes it
// if it already is one. It reports whether the route is a favorite afterwards.
func ToggleFavorite(db *database.DB, userID, routeID int) (bool, error) {
	var favorited bool

	err := database.RunInTx(db, func(tx *database.DB) error {
		if _, err := GetRoute(tx, routeID); err != nil {
			return err
		}

		f, err := database.GetRouteFavorite(tx, userID, routeID)
		if database.IsNotFound(err) {
			f = database.RouteFavorite{UserID: userID, RouteID: routeID, SyncStatus: status.OnCreate()}
			favorited = true
			return f.Insert(tx)
		} else if err != nil {
			return errors.Wrap(err, "finding favorite")
		}

		if f.SyncStatus == status.Deleted {
			f.SyncStatus = status.OnUpdate(f.SyncStatus)
			favorited = true
			return f.Update(tx)
		}

		next, action := status.OnDelete(f.SyncStatus)
		if action == status.Purge {
			return f.Expunge(tx)
		}

		f.SyncStatus = next
		return f.Update(tx)
	})
	if err != nil {
		return false, err
	}

	return favorited, nil
}

// IsFavorite reports whether the route is a visible favorite of the user
func IsFavorite(db *database.DB, userID, routeID int) (bool, error) {
	f, err := database.GetRouteFavorite(db, userID, routeID)
	if database.IsNotFound(err) {
		return false, nil
	} else if err != nil {
		return false, errors.Wrap(err, "finding favorite")
	}

	return status.IsVisible(f.SyncStatus), nil
}
