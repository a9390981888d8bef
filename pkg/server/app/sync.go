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
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/server/log"
	"github.com/trailsync/trailsync/pkg/server/permissions"
	"github.com/trailsync/trailsync/pkg/syncerr"
	"github.com/trailsync/trailsync/pkg/wire"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyResult is the result of applying a change set
type ApplyResult struct {
	Applied  int
	Skipped  int
	SyncedAt time.Time
}

// touched collects the targets whose cached rating must be recomputed
type touched struct {
	routes    map[int]bool
	waypoints map[int]bool
	comments  map[int]bool
}

func newTouched() touched {
	return touched{
		routes:    map[int]bool{},
		waypoints: map[int]bool{},
		comments:  map[int]bool{},
	}
}

// applier applies one change set inside a transaction
type applier struct {
	tx      *gorm.DB
	user    database.User
	routeID int
	now     time.Time
	res     ApplyResult
	touched touched
}

func (ap *applier) count(affected int64) {
	if affected > 0 {
		ap.res.Applied++
	} else {
		ap.res.Skipped++
	}
}

// ApplyChangeSet applies a pushed change set in one transaction. Every
// write is scoped to the authenticated user and a retried change set
// leaves the store unchanged.
func (a *App) ApplyChangeSet(ctx context.Context, user database.User, cs wire.ChangeSet) (ApplyResult, error) {
	if err := wire.ValidateChangeSet(cs); err != nil {
		return ApplyResult{}, err
	}

	ap := &applier{
		user:    user,
		routeID: cs.RouteID,
		now:     a.Clock.Now().UTC(),
		touched: newTouched(),
	}

	err := a.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ap.tx = tx

		route, err := getRoute(tx, cs.RouteID)
		if err != nil {
			return err
		}

		if cs.Route != nil {
			if err := ap.applyRoute(route, *cs.Route); err != nil {
				return err
			}
		}

		// Upserts run parents first so that children created in the same
		// push find their target. Deletions run last, children first.
		for _, w := range cs.Waypoints {
			if w.SyncStatus != wire.StatusDeleted {
				if err := ap.upsertWaypoint(w); err != nil {
					return err
				}
			}
		}
		for _, c := range cs.Comments {
			if c.SyncStatus != wire.StatusDeleted {
				if err := ap.upsertComment(c); err != nil {
					return err
				}
			}
		}
		if err := ap.applyRatings(cs.Ratings); err != nil {
			return err
		}
		if err := ap.applyFavorites(cs.Favorites); err != nil {
			return err
		}
		for _, c := range cs.Comments {
			if c.SyncStatus == wire.StatusDeleted {
				if err := ap.deleteComment(c.ID); err != nil {
					return err
				}
			}
		}
		for _, w := range cs.Waypoints {
			if w.SyncStatus == wire.StatusDeleted {
				if err := ap.deleteWaypoint(w.ID); err != nil {
					return err
				}
			}
		}

		return recomputeTouched(tx, ap.touched)
	})
	if err != nil {
		return ApplyResult{}, err
	}

	ap.res.SyncedAt = ap.now

	log.WithFields(log.Fields{
		"user_id":  user.ID,
		"route_id": cs.RouteID,
		"applied":  ap.res.Applied,
		"skipped":  ap.res.Skipped,
	}).Info("applied change set")

	return ap.res, nil
}

func (ap *applier) applyRoute(route database.Route, rc wire.RouteChange) error {
	if !permissions.EditRoute(&ap.user, route) {
		return syncerr.NewNotOwner("route", route.ID, ap.user.ID)
	}

	// Routes are created and removed out of band; only edits are synced.
	if rc.SyncStatus == wire.StatusDeleted {
		ap.res.Skipped++
		return nil
	}

	conn := ap.tx.Model(&database.Route{}).
		Where("id = ? AND user_id = ?", route.ID, ap.user.ID).
		Updates(map[string]interface{}{
			"name":       rc.Name,
			"region":     rc.Region,
			"updated_at": ap.now,
		})
	if err := conn.Error; err != nil {
		return errors.Wrap(err, "updating route")
	}
	ap.count(conn.RowsAffected)

	return nil
}

// findWaypoint returns the waypoint with the given id, or nil
func findWaypoint(tx *gorm.DB, id int) (*database.Waypoint, error) {
	var w database.Waypoint

	err := tx.Where("id = ?", id).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding waypoint %d", id)
	}

	return &w, nil
}

// findComment returns the comment with the given id, or nil
func findComment(tx *gorm.DB, id int) (*database.Comment, error) {
	var c database.Comment

	err := tx.Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "finding comment %d", id)
	}

	return &c, nil
}

func (ap *applier) upsertWaypoint(wc wire.WaypointChange) error {
	fields := map[string]interface{}{
		"name":        wc.Name,
		"description": wc.Description,
		"lat":         wc.Lat,
		"lon":         wc.Lon,
		"type":        wc.Type,
		"updated_at":  ap.now,
	}

	if wc.SyncStatus == wire.StatusNew {
		w := database.Waypoint{
			Model:       database.Model{ID: wc.ID, CreatedAt: ap.now, UpdatedAt: ap.now},
			RouteID:     ap.routeID,
			UserID:      ap.user.ID,
			Name:        wc.Name,
			Description: wc.Description,
			Lat:         wc.Lat,
			Lon:         wc.Lon,
			Type:        wc.Type,
		}

		conn := ap.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&w)
		if err := conn.Error; err != nil {
			return errors.Wrapf(err, "inserting waypoint %d", wc.ID)
		}
		if conn.RowsAffected > 0 {
			ap.res.Applied++
			return nil
		}

		existing, err := findWaypoint(ap.tx, wc.ID)
		if err != nil {
			return err
		}
		if existing != nil && !permissions.EditWaypoint(&ap.user, *existing) {
			return syncerr.NewConflict("waypoint", wc.ID, "id is taken by another user")
		}
		if existing != nil && existing.RouteID != ap.routeID {
			return syncerr.NewConflict("waypoint", wc.ID, "id is taken on another route")
		}
	}

	conn := ap.tx.Model(&database.Waypoint{}).
		Where("id = ? AND user_id = ? AND route_id = ?", wc.ID, ap.user.ID, ap.routeID).
		Updates(fields)
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "updating waypoint %d", wc.ID)
	}
	ap.count(conn.RowsAffected)

	return nil
}

// commentTargetExists reports whether the target of a comment is on the
// route being synced
func (ap *applier) commentTargetExists(cc wire.CommentChange) (bool, error) {
	if cc.Kind == wire.CommentKindRoute {
		return *cc.RouteID == ap.routeID, nil
	}

	w, err := findWaypoint(ap.tx, *cc.WaypointID)
	if err != nil {
		return false, err
	}

	return w != nil && w.RouteID == ap.routeID, nil
}

func (ap *applier) upsertComment(cc wire.CommentChange) error {
	ok, err := ap.commentTargetExists(cc)
	if err != nil {
		return err
	}
	if !ok {
		ap.res.Skipped++
		return nil
	}

	if cc.SyncStatus == wire.StatusNew {
		c := database.Comment{
			Model:      database.Model{ID: cc.ID, CreatedAt: ap.now, UpdatedAt: ap.now},
			UserID:     ap.user.ID,
			Kind:       cc.Kind,
			WaypointID: cc.WaypointID,
			RouteID:    cc.RouteID,
			Content:    cc.Content,
			Edited:     cc.Edited,
		}

		conn := ap.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c)
		if err := conn.Error; err != nil {
			return errors.Wrapf(err, "inserting comment %d", cc.ID)
		}
		if conn.RowsAffected > 0 {
			ap.res.Applied++
			return nil
		}

		existing, err := findComment(ap.tx, cc.ID)
		if err != nil {
			return err
		}
		if existing != nil && !permissions.EditComment(&ap.user, *existing) {
			return syncerr.NewConflict("comment", cc.ID, "id is taken by another user")
		}
	}

	conn := ap.tx.Model(&database.Comment{}).
		Where("id = ? AND user_id = ?", cc.ID, ap.user.ID).
		Updates(map[string]interface{}{
			"content":    cc.Content,
			"edited":     cc.Edited,
			"updated_at": ap.now,
		})
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "updating comment %d", cc.ID)
	}
	ap.count(conn.RowsAffected)

	return nil
}

func (ap *applier) deleteComment(id int) error {
	conn := ap.tx.Where("id = ? AND user_id = ?", id, ap.user.ID).Delete(&database.Comment{})
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "deleting comment %d", id)
	}
	ap.count(conn.RowsAffected)

	if conn.RowsAffected > 0 {
		if err := ap.tx.Where("comment_id = ?", id).Delete(&database.CommentRating{}).Error; err != nil {
			return errors.Wrapf(err, "deleting ratings of comment %d", id)
		}
		delete(ap.touched.comments, id)
	}

	return nil
}

func (ap *applier) deleteWaypoint(id int) error {
	conn := ap.tx.Where("id = ? AND user_id = ? AND route_id = ?", id, ap.user.ID, ap.routeID).Delete(&database.Waypoint{})
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "deleting waypoint %d", id)
	}
	ap.count(conn.RowsAffected)

	if conn.RowsAffected == 0 {
		return nil
	}

	// Comments of other users go with the waypoint, like a cascade
	commentIDs := ap.tx.Model(&database.Comment{}).Select("id").Where("waypoint_id = ?", id)
	if err := ap.tx.Where("comment_id IN (?)", commentIDs).Delete(&database.CommentRating{}).Error; err != nil {
		return errors.Wrapf(err, "deleting comment ratings of waypoint %d", id)
	}
	if err := ap.tx.Where("waypoint_id = ?", id).Delete(&database.Comment{}).Error; err != nil {
		return errors.Wrapf(err, "deleting comments of waypoint %d", id)
	}
	if err := ap.tx.Where("waypoint_id = ?", id).Delete(&database.WaypointRating{}).Error; err != nil {
		return errors.Wrapf(err, "deleting ratings of waypoint %d", id)
	}
	delete(ap.touched.waypoints, id)

	return nil
}

// ratingTarget describes how a rating table refers to its target
type ratingTarget struct {
	column  string
	model   func(userID, targetID, val int, now time.Time) interface{}
	exists  func(ap *applier, id int) (bool, error)
	touched map[int]bool
}

func (ap *applier) ratingTargets() map[string]ratingTarget {
	return map[string]ratingTarget{
		"route": {
			column: "route_id",
			model: func(userID, targetID, val int, now time.Time) interface{} {
				return &database.RouteRating{UserID: userID, RouteID: targetID, Val: val, CreatedAt: now, UpdatedAt: now}
			},
			exists: func(ap *applier, id int) (bool, error) {
				return id == ap.routeID, nil
			},
			touched: ap.touched.routes,
		},
		"waypoint": {
			column: "waypoint_id",
			model: func(userID, targetID, val int, now time.Time) interface{} {
				return &database.WaypointRating{UserID: userID, WaypointID: targetID, Val: val, CreatedAt: now, UpdatedAt: now}
			},
			exists: func(ap *applier, id int) (bool, error) {
				w, err := findWaypoint(ap.tx, id)
				return w != nil && w.RouteID == ap.routeID, err
			},
			touched: ap.touched.waypoints,
		},
		"comment": {
			column: "comment_id",
			model: func(userID, targetID, val int, now time.Time) interface{} {
				return &database.CommentRating{UserID: userID, CommentID: targetID, Val: val, CreatedAt: now, UpdatedAt: now}
			},
			exists: func(ap *applier, id int) (bool, error) {
				return commentOnRoute(ap.tx, id, ap.routeID)
			},
			touched: ap.touched.comments,
		},
	}
}

// commentOnRoute reports whether the comment is on the route or on one of
// its waypoints
func commentOnRoute(tx *gorm.DB, commentID, routeID int) (bool, error) {
	var count int64

	waypointIDs := tx.Model(&database.Waypoint{}).Select("id").Where("route_id = ?", routeID)
	err := tx.Model(&database.Comment{}).
		Where("id = ? AND (route_id = ? OR waypoint_id IN (?))", commentID, routeID, waypointIDs).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrapf(err, "finding comment %d", commentID)
	}

	return count > 0, nil
}

func (ap *applier) applyRating(kind string, target ratingTarget, rc wire.RatingChange) error {
	if rc.SyncStatus == wire.StatusDeleted {
		conn := ap.tx.Where("user_id = ? AND "+target.column+" = ?", ap.user.ID, rc.TargetID).Delete(target.model(0, 0, 0, ap.now))
		if err := conn.Error; err != nil {
			return errors.Wrapf(err, "deleting %s rating", kind)
		}
		ap.count(conn.RowsAffected)
		target.touched[rc.TargetID] = true

		return nil
	}

	ok, err := target.exists(ap, rc.TargetID)
	if err != nil {
		return err
	}
	if !ok {
		ap.res.Skipped++
		return nil
	}

	conn := ap.tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: target.column}},
		DoUpdates: clause.AssignmentColumns([]string{"val", "updated_at"}),
	}).Create(target.model(ap.user.ID, rc.TargetID, rc.Rating, ap.now))
	if err := conn.Error; err != nil {
		return errors.Wrapf(err, "upserting %s rating", kind)
	}
	ap.res.Applied++
	target.touched[rc.TargetID] = true

	return nil
}

func (ap *applier) applyRatings(rc wire.RatingChanges) error {
	targets := ap.ratingTargets()

	groups := []struct {
		kind    string
		changes []wire.RatingChange
	}{
		{"route", rc.Route},
		{"waypoint", rc.Waypoint},
		{"comment", rc.Comment},
	}

	for _, g := range groups {
		for _, c := range g.changes {
			if err := ap.applyRating(g.kind, targets[g.kind], c); err != nil {
				return err
			}
		}
	}

	return nil
}

func (ap *applier) applyFavorites(fc wire.FavoriteChanges) error {
	for _, f := range fc.Route {
		var conn *gorm.DB

		if f.SyncStatus == wire.StatusDeleted {
			conn = ap.tx.Where("user_id = ? AND route_id = ?", ap.user.ID, f.RouteID).Delete(&database.RouteFavorite{})
		} else {
			fav := database.RouteFavorite{UserID: ap.user.ID, RouteID: f.RouteID, CreatedAt: ap.now}
			conn = ap.tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fav)
		}
		if err := conn.Error; err != nil {
			return errors.Wrapf(err, "applying favorite on route %d", f.RouteID)
		}
		ap.count(conn.RowsAffected)
	}

	return nil
}
