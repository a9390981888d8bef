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
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/app"
	"github.com/trailsync/trailsync/pkg/server/context"
	mw "github.com/trailsync/trailsync/pkg/server/middleware"
	"github.com/trailsync/trailsync/pkg/wire"
)

// maxPushBytes caps the size of a pushed change set
const maxPushBytes = 8 << 20

// NewSync creates a new Sync controller
func NewSync(app *app.App) *Sync {
	return &Sync{app: app}
}

// Sync is a sync controller
type Sync struct {
	app *app.App
}

func decodeChangeSet(w http.ResponseWriter, r *http.Request) (wire.ChangeSet, error) {
	var cs wire.ChangeSet

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPushBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cs); err != nil {
		return cs, errors.Wrap(err, "decoding change set")
	}

	return cs, nil
}

// Push handles POST /api/v1/sync/push. The change set is applied as a whole
// or not at all.
func (s *Sync) Push(w http.ResponseWriter, r *http.Request) {
	user := context.User(r.Context())
	if user == nil {
		mw.RespondUnauthorized(w)
		return
	}

	cs, err := decodeChangeSet(w, r)
	if err != nil {
		mw.DoError(w, "decoding payload", err, http.StatusBadRequest)
		return
	}
	if err := wire.ValidateChangeSet(cs); err != nil {
		mw.DoError(w, "validating change set", err, http.StatusBadRequest)
		return
	}

	res, err := s.app.ApplyChangeSet(r.Context(), *user, cs)
	if err != nil {
		mw.DoError(w, "applying change set", err, http.StatusInternalServerError)
		return
	}

	mw.RespondJSON(w, http.StatusOK, wire.PushResponse{
		Applied:  res.Applied,
		Skipped:  res.Skipped,
		SyncedAt: res.SyncedAt,
	})
}
