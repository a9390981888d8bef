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

// Package rating implements the vote toggle shared by routes, waypoints
// and comments
package rating

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

// Result is the outcome of a toggle
type Result struct {
	// Total is the aggregate rating of the target after the toggle
	Total int
	// UserRating is the vote of the user after the toggle, nil if cleared
	UserRating *int
}

func checkTarget(db *database.DB, kind database.RatingKind, targetID int) error {
	var s status.Status

	err := db.QueryRow("SELECT sync_status FROM "+kind.ParentTable()+" WHERE id = ?", targetID).Scan(&s)
	if database.IsNotFound(err) {
		return syncerr.NewNotFound(string(kind), targetID)
	} else if err != nil {
		return errors.Wrapf(err, "finding %s %d", kind, targetID)
	}

	if !status.IsVisible(s) {
		return syncerr.NewNotFound(string(kind), targetID)
	}

	return nil
}

// Recompute sums the visible votes on a target and caches the total on the
// target row. Callers run it in the transaction that mutated the votes.
func Recompute(db *database.DB, kind database.RatingKind, targetID int) (int, error) {
	total, err := database.SumRatings(db, kind, targetID)
	if err != nil {
		return 0, errors.Wrap(err, "summing ratings")
	}

	if _, err := database.SetCachedRating(db, kind, targetID, total); err != nil {
		return 0, errors.Wrap(err, "caching the total")
	}

	return total, nil
}

func apply(db *database.DB, kind database.RatingKind, targetID, userID, val int) (*int, error) {
	existing, err := database.GetRating(db, kind, userID, targetID)
	if database.IsNotFound(err) {
		r := database.Rating{
			Kind:       kind,
			UserID:     userID,
			TargetID:   targetID,
			Val:        val,
			SyncStatus: status.OnCreate(),
		}
		if err := r.Insert(db); err != nil {
			return nil, errors.Wrap(err, "inserting rating")
		}

		log.Debug("inserted %s rating %d of user %d on %d\n", kind, val, userID, targetID)
		return &val, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "finding existing rating")
	}

	// A tombstone means the vote was cleared. Voting again revives it.
	if existing.SyncStatus == status.Deleted {
		existing.Val = val
		existing.SyncStatus = status.OnUpdate(existing.SyncStatus)
		if err := existing.Update(db); err != nil {
			return nil, errors.Wrap(err, "reviving rating")
		}

		return &val, nil
	}

	if existing.Val == val {
		next, action := status.OnDelete(existing.SyncStatus)
		if action == status.Purge {
			if err := existing.Expunge(db); err != nil {
				return nil, errors.Wrap(err, "purging rating")
			}
		} else {
			existing.SyncStatus = next
			if err := existing.Update(db); err != nil {
				return nil, errors.Wrap(err, "marking rating deleted")
			}
		}

		log.Debug("cleared %s rating of user %d on %d (%s)\n", kind, userID, targetID, action)
		return nil, nil
	}

	existing.Val = val
	existing.SyncStatus = status.OnUpdate(existing.SyncStatus)
	if err := existing.Update(db); err != nil {
		return nil, errors.Wrap(err, "flipping rating")
	}

	return &val, nil
}

// Toggle applies a vote of val (+1 or -1) by a user on a target.
//
// Without a prior vote the vote is inserted. Voting the same value again
// clears it, and voting the opposite value flips it. The aggregate of the
// target is recomputed in the same transaction.
func Toggle(db *database.DB, kind database.RatingKind, targetID, userID, val int) (Result, error) {
	if !kind.Valid() {
		return Result{}, syncerr.NewValidation("kind", fmt.Sprintf("unknown rating kind '%s'", kind))
	}
	if val != 1 && val != -1 {
		return Result{}, syncerr.NewValidation("val", fmt.Sprintf("must be 1 or -1, got %d", val))
	}
	if userID == 0 {
		return Result{}, syncerr.NewValidation("user_id", "is required")
	}

	var ret Result
	err := database.RunInTx(db, func(tx *database.DB) error {
		if err := checkTarget(tx, kind, targetID); err != nil {
			return err
		}

		userRating, err := apply(tx, kind, targetID, userID, val)
		if err != nil {
			return err
		}

		total, err := Recompute(tx, kind, targetID)
		if err != nil {
			return errors.Wrap(err, "recomputing aggregate")
		}

		ret = Result{Total: total, UserRating: userRating}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return ret, nil
}

// Get returns the current aggregate of a target and the vote of the user
func Get(db *database.DB, kind database.RatingKind, targetID, userID int) (Result, error) {
	if !kind.Valid() {
		return Result{}, syncerr.NewValidation("kind", fmt.Sprintf("unknown rating kind '%s'", kind))
	}

	var ret Result
	err := db.QueryRow("SELECT rating FROM "+kind.ParentTable()+" WHERE id = ? AND sync_status != ?", targetID, status.Deleted).Scan(&ret.Total)
	if database.IsNotFound(err) {
		return Result{}, syncerr.NewNotFound(string(kind), targetID)
	} else if err != nil {
		return Result{}, errors.Wrapf(err, "finding %s %d", kind, targetID)
	}

	r, err := database.GetRating(db, kind, userID, targetID)
	if err != nil && !database.IsNotFound(err) {
		return Result{}, errors.Wrap(err, "finding the vote of the user")
	}
	if err == nil && status.IsVisible(r.SyncStatus) {
		val := r.Val
		ret.UserRating = &val
	}

	return ret, nil
}
