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
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/rating"
	"github.com/trailsync/trailsync/pkg/cli/status"
	"github.com/trailsync/trailsync/pkg/cli/utils"
	"github.com/trailsync/trailsync/pkg/cli/validate"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
)

// CommentParams holds the fields of a new comment. Exactly one of
// WaypointID and RouteID must be set, matching Kind.
type CommentParams struct {
	Kind       string
	WaypointID *int
	RouteID    *int
	Content    string
}

func getOwnedComment(db *database.DB, id, userID int) (database.Comment, error) {
	cm, err := database.GetComment(db, id)
	if database.IsNotFound(err) {
		return cm, syncerr.NewNotFound("comment", id)
	} else if err != nil {
		return cm, errors.Wrap(err, "finding comment")
	}

	if !status.IsVisible(cm.SyncStatus) {
		return cm, syncerr.NewNotFound("comment", id)
	}
	if cm.UserID != userID {
		return cm, syncerr.NewNotOwner("comment", id, userID)
	}

	return cm, nil
}

func checkCommentTarget(db *database.DB, p CommentParams) error {
	if p.Kind == database.CommentKindRoute {
		_, err := GetRoute(db, *p.RouteID)
		return err
	}

	_, err := getVisibleWaypoint(db, *p.WaypointID)
	return err
}

// CreateComment adds a comment authored by the user on a route or a waypoint
func CreateComment(db *database.DB, c clock.Clock, userID int, p CommentParams) (database.Comment, error) {
	if err := wire.ValidateComment(p.Kind, p.WaypointID, p.RouteID); err != nil {
		return database.Comment{}, err
	}
	if err := validate.CommentContent(p.Content); err != nil {
		return database.Comment{}, err
	}

	id, err := utils.ReserveID(c)
	if err != nil {
		return database.Comment{}, errors.Wrap(err, "reserving an id")
	}

	now := c.Now().UnixNano()
	cm := database.Comment{
		ID:         id,
		UserID:     userID,
		Kind:       p.Kind,
		WaypointID: p.WaypointID,
		RouteID:    p.RouteID,
		Content:    p.Content,
		CreatedAt:  now,
		UpdatedAt:  now,
		SyncStatus: status.OnCreate(),
	}

	err = database.RunInTx(db, func(tx *database.DB) error {
		if err := checkCommentTarget(tx, p); err != nil {
			return err
		}

		return cm.Insert(tx)
	})
	if err != nil {
		return database.Comment{}, err
	}

	log.Debug("created %s comment %d\n", cm.Kind, cm.ID)

	return cm, nil
}

// UpdateComment replaces the content of a comment authored by the user and
// flags it as edited. It reports false without writing anything when the
// content is unchanged.
func UpdateComment(db *database.DB, c clock.Clock, userID, id int, content string) (database.Comment, bool, error) {
	if err := validate.CommentContent(content); err != nil {
		return database.Comment{}, false, err
	}

	var ret database.Comment
	var changed bool

	err := database.RunInTx(db, func(tx *database.DB) error {
		cm, err := getOwnedComment(tx, id, userID)
		if err != nil {
			return err
		}

		ret = cm
		if cm.Content == content {
			return nil
		}

		cm.Content = content
		cm.Edited = true
		cm.SyncStatus = status.OnUpdate(cm.SyncStatus)
		cm.UpdatedAt = c.Now().UnixNano()
		if err := cm.Update(tx); err != nil {
			return errors.Wrap(err, "updating comment")
		}

		ret = cm
		changed = true
		return nil
	})
	if err != nil {
		return database.Comment{}, false, err
	}

	return ret, changed, nil
}

// DeleteComment deletes a comment authored by the user. A comment that was
// never pushed is purged along with its ratings.
func DeleteComment(db *database.DB, userID, id int) (status.Action, error) {
	var action status.Action

	err := database.RunInTx(db, func(tx *database.DB) error {
		cm, err := getOwnedComment(tx, id, userID)
		if err != nil {
			return err
		}

		next, a := status.OnDelete(cm.SyncStatus)
		action = a

		if a == status.Purge {
			return cm.Expunge(tx)
		}

		if _, err := tx.Exec("DELETE FROM comment_ratings WHERE comment_id = ? AND sync_status = ?", id, status.New); err != nil {
			return errors.Wrap(err, "purging unpushed ratings")
		}

		cm.SyncStatus = next
		if err := cm.Update(tx); err != nil {
			return err
		}

		if _, err := rating.Recompute(tx, database.RatingComment, id); err != nil {
			return errors.Wrap(err, "recomputing aggregate")
		}

		return nil
	})
	if err != nil {
		return action, err
	}

	log.Debug("deleted comment %d (%s)\n", id, action)

	return action, nil
}

// ListComments returns the visible comments on a route or a waypoint
func ListComments(db *database.DB, kind string, targetID int) ([]database.Comment, error) {
	switch kind {
	case database.CommentKindRoute:
		return database.ListRouteComments(db, targetID)
	case database.CommentKindWaypoint:
		return database.ListWaypointComments(db, targetID)
	}

	return nil, syncerr.NewValidation("kind", "unknown comment kind '"+kind+"'")
}
