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

// Package context defines the runtime context of trail commands
package context

import (
	"net/http"

	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// TrailCtx is a context holding the information of the current runtime
type TrailCtx struct {
	Paths       Paths
	APIEndpoint string
	Editor      string
	Version     string
	DeviceID    string
	DB          *database.DB
	Clock       clock.Clock
	HTTPClient  *http.Client
	Credential  credential.Provider
}

// Redact replaces private information from the context with a set of
// placeholder values
func Redact(ctx TrailCtx) TrailCtx {
	ctx.Credential = nil
	ctx.DeviceID = "redacted"

	return ctx
}
