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

package login

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/trailsync/trailsync/pkg/cli/context"
	"github.com/trailsync/trailsync/pkg/cli/credential"
	"github.com/trailsync/trailsync/pkg/cli/infra"
	"github.com/trailsync/trailsync/pkg/cli/log"
	"github.com/trailsync/trailsync/pkg/cli/ui"
)

var example = `
  trail login

  # read the token from a file
  trail login < token.txt`

var tokenFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.TrailCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Store the access token issued by the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&tokenFlag, "token", "t", "", "the access token")

	return cmd
}

// Do saves the token and returns the identity it carries
func Do(ctx context.TrailCtx, token string) (credential.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return credential.Identity{}, errors.New("empty token")
	}

	id, err := credential.Save(ctx.DB, token)
	if err != nil {
		return id, errors.Wrap(err, "saving the token")
	}

	return id, nil
}

// getServerDisplayURL returns the origin of the API endpoint, or an empty
// string if it cannot be determined
func getServerDisplayURL(ctx context.TrailCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host)
}

func readToken() (string, error) {
	if tokenFlag != "" {
		return tokenFlag, nil
	}

	if ui.IsPiped() {
		return ui.ReadStdInput()
	}

	var token string
	if err := ui.PromptSecret("token", &token); err != nil {
		return "", errors.Wrap(err, "getting token input")
	}

	return token, nil
}

func newRun(ctx context.TrailCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if u := getServerDisplayURL(ctx); u != "" {
			log.Infof("server: %s\n", u)
		}

		token, err := readToken()
		if err != nil {
			return err
		}

		id, err := Do(ctx, token)
		if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Successf("logged in as %s (user %d)\n", id.Username, id.UserID)

		return nil
	}
}
