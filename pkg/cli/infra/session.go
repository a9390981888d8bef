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

package infra

import (
	gocontext "context"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/client"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/reconcile"
)

// ErrNotLoggedIn is returned by commands that need a credential
var ErrNotLoggedIn = errors.New("not logged in. Run 'trail login' first")

// CurrentUser returns the identity of the logged in user
func CurrentUser(ctx context.TrailCtx) (credential.Identity, error) {
	id, err := credential.Current(gocontext.Background(), ctx.Credential)
	if errors.Is(err, credential.ErrNoCredential) {
		return id, ErrNotLoggedIn
	} else if err != nil {
		return id, errors.Wrap(err, "reading the credential")
	}

	return id, nil
}

// NewClient returns a client for the configured server
func NewClient(ctx context.TrailCtx) *client.Client {
	return client.New(ctx.APIEndpoint, ctx.Version, ctx.HTTPClient, ctx.Credential)
}

// NewEngine returns a sync engine for the local database and the configured server
func NewEngine(ctx context.TrailCtx) *reconcile.Engine {
	return reconcile.NewEngine(ctx.DB, NewClient(ctx), ctx.Credential, ctx.Clock)
}
