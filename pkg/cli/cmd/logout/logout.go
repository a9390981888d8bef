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

package logout

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
)

var example = `
  trail logout`

// NewCmd returns a new logout command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "logout",
		Short:   "Forget the stored access token",
		Example: example,
		RunE:    newRun(ctx),
	}

	return cmd
}

// Do removes the stored token. Unsynced local changes are kept.
func Do(ctx context.TrailCtx) error {
	var token string
	err := database.GetSystem(ctx.DB, consts.SystemSessionToken, &token)
	if database.IsNotFound(err) {
		return infra.ErrNotLoggedIn
	} else if err != nil {
		return errors.Wrap(err, "getting session token")
	}

	if err := credential.Clear(ctx.DB); err != nil {
		return errors.Wrap(err, "deleting session token")
	}

	return nil
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		err := Do(ctx)
		if err == infra.ErrNotLoggedIn {
			log.Error("not logged in\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging out")
		}

		log.Success("logged out\n")

		return nil
	}
}
