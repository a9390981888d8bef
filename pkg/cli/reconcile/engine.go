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

// Package reconcile reconciles the local replica of a route with the
// remote: Download replaces the route with a server bundle and Upload
// pushes locally authored changes.
package reconcile

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/wire"
)

// ErrSyncInFlight is returned when a sync of the same route is already running
var ErrSyncInFlight = errors.New("a sync of this route is already in progress")

// Transport is the remote side of a sync
type Transport interface {
	PushChanges(ctx context.Context, cs wire.ChangeSet) (wire.PushResponse, error)
	GetRouteBundle(ctx context.Context, routeID int) (wire.Bundle, error)
}

// Engine runs syncs against a local database. A route is synced by at
// most one caller at a time.
type Engine struct {
	DB         *database.DB
	Transport  Transport
	Credential credential.Provider
	Clock      clock.Clock

	mu       sync.Mutex
	inflight map[int]bool
}

// NewEngine returns an engine
func NewEngine(db *database.DB, t Transport, cred credential.Provider, c clock.Clock) *Engine {
	return &Engine{
		DB:         db,
		Transport:  t,
		Credential: cred,
		Clock:      c,
		inflight:   map[int]bool{},
	}
}

func (e *Engine) acquire(routeID int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.inflight == nil {
		e.inflight = map[int]bool{}
	}
	if e.inflight[routeID] {
		return ErrSyncInFlight
	}
	e.inflight[routeID] = true

	return nil
}

func (e *Engine) release(routeID int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.inflight, routeID)
}

// Download fetches the bundle of a route and replaces the local copy with it
func (e *Engine) Download(ctx context.Context, routeID int, opts DownloadOptions) (DownloadResult, error) {
	if err := e.acquire(routeID); err != nil {
		return DownloadResult{}, err
	}
	defer e.release(routeID)

	return e.download(ctx, routeID, opts)
}

// Upload pushes the unpushed rows of a route authored by the current user
func (e *Engine) Upload(ctx context.Context, routeID int) (UploadResult, error) {
	if err := e.acquire(routeID); err != nil {
		return UploadResult{}, err
	}
	defer e.release(routeID)

	return e.upload(ctx, routeID)
}

// ReconcileOptions alters the behavior of a reconcile
type ReconcileOptions struct {
	PushOnly bool
	PullOnly bool
	Force    bool
}

// ReconcileResult reports both halves of a reconcile
type ReconcileResult struct {
	Upload   *UploadResult
	Download *DownloadResult
}

// Reconcile uploads local changes and then downloads the route. Uploading
// first means the download never discards unpushed work.
func (e *Engine) Reconcile(ctx context.Context, routeID int, opts ReconcileOptions) (ReconcileResult, error) {
	var ret ReconcileResult

	if opts.PushOnly && opts.PullOnly {
		return ret, errors.New("push-only and pull-only are mutually exclusive")
	}

	if err := e.acquire(routeID); err != nil {
		return ret, err
	}
	defer e.release(routeID)

	if !opts.PullOnly {
		res, err := e.upload(ctx, routeID)
		if err != nil {
			return ret, errors.Wrap(err, "uploading")
		}
		ret.Upload = &res
	}

	if !opts.PushOnly {
		res, err := e.download(ctx, routeID, DownloadOptions{Force: opts.Force})
		if err != nil {
			return ret, errors.Wrap(err, "downloading")
		}
		ret.Download = &res
	}

	return ret, nil
}

func (e *Engine) download(ctx context.Context, routeID int, opts DownloadOptions) (DownloadResult, error) {
	b, err := e.Transport.GetRouteBundle(ctx, routeID)
	if err != nil {
		return DownloadResult{}, err
	}
	if b.Route.ID != routeID {
		return DownloadResult{}, errors.Errorf("requested route %d but received route %d", routeID, b.Route.ID)
	}

	// a caller that gave up must not see its replica change afterwards
	if err := ctx.Err(); err != nil {
		return DownloadResult{}, err
	}

	if opts.Force && opts.Confirm != nil {
		pending, err := database.CountPending(e.DB, routeID)
		if err != nil {
			return DownloadResult{}, errors.Wrap(err, "counting pending changes")
		}
		if pending.Total() > 0 {
			if err := opts.Confirm(b, pending); err != nil {
				return DownloadResult{}, err
			}
		}
	}

	if opts.Clock == nil {
		opts.Clock = e.Clock
	}
	res, err := DownloadRouteBundle(e.DB, b, opts)
	if err != nil {
		return res, err
	}

	log.Debug("downloaded route %d: %d waypoints, %d comments, %d ratings\n", routeID, res.Waypoints, res.Comments, res.Ratings)

	return res, nil
}

func (e *Engine) upload(ctx context.Context, routeID int) (UploadResult, error) {
	ret := UploadResult{RouteID: routeID}

	id, err := credential.Current(ctx, e.Credential)
	if err != nil {
		return ret, errors.Wrap(err, "resolving the current user")
	}

	box, err := collect(e.DB, routeID, id.UserID)
	if err != nil {
		return ret, errors.Wrap(err, "collecting local changes")
	}
	if box.len() == 0 {
		log.Debug("nothing to push for route %d\n", routeID)
		return ret, nil
	}

	cs := box.changeSet(routeID)
	if err := wire.ValidateChangeSet(cs); err != nil {
		return ret, err
	}
	ret.Pushed = cs.Len()

	resp, err := e.Transport.PushChanges(ctx, cs)
	if err != nil {
		return ret, err
	}
	ret.Applied = resp.Applied
	ret.Skipped = resp.Skipped

	now := e.Clock.Now()
	err = database.RunInTx(e.DB, func(tx *database.DB) error {
		if err := markPushed(tx, routeID, box, now.UnixNano(), &ret); err != nil {
			return err
		}

		return database.UpsertSystem(tx, consts.SystemLastSyncAt, strconv.FormatInt(now.Unix(), 10))
	})
	if err != nil {
		return ret, errors.Wrap(err, "settling pushed rows")
	}

	log.Debug("pushed %d rows of route %d: %d applied, %d skipped\n", ret.Pushed, routeID, ret.Applied, ret.Skipped)

	return ret, nil
}
