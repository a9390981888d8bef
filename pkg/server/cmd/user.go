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

package cmd

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const userUsage = `Usage:
  trailsync-server user [command]

Available commands:
  create: Create a new user
  token: Issue an API token for a user`

func userCreateCmd(args []string, out io.Writer) error {
	fs := setupFlagSet("create", "trailsync-server user create")

	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "User password of at least 8 characters (required)")
	db := addDBFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireString(*username, "username"); err != nil {
		return err
	}
	if err := requireString(*password, "password"); err != nil {
		return err
	}

	a, cleanup, err := setupAppWithDB(db.params())
	if err != nil {
		return err
	}
	defer cleanup()

	user, err := a.CreateUser(*username, *password)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	fmt.Fprintf(out, "User created successfully\n")
	fmt.Fprintf(out, "ID: %d\n", user.ID)
	fmt.Fprintf(out, "Username: %s\n", user.Username)

	return nil
}

func userTokenCmd(args []string, out io.Writer) error {
	fs := setupFlagSet("token", "trailsync-server user token")

	username := fs.String("username", "", "Username (required)")
	password := fs.String("password", "", "User password (required)")
	jwtSecret := fs.String("jwtSecret", "", "Secret signing the token (env: TRAILSYNC_JWT_SECRET)")
	jwtIssuer := fs.String("jwtIssuer", "", "Issuer claim of the token (env: TRAILSYNC_JWT_ISSUER, default: trailsync)")
	db := addDBFlags(fs)

	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireString(*username, "username"); err != nil {
		return err
	}
	if err := requireString(*password, "password"); err != nil {
		return err
	}

	p := db.params()
	p.JWTSecret = *jwtSecret
	p.JWTIssuer = *jwtIssuer

	a, cleanup, err := setupAppWithDB(p)
	if err != nil {
		return err
	}
	defer cleanup()

	tok, err := a.IssueToken(*username, *password)
	if err != nil {
		return errors.Wrap(err, "issuing token")
	}

	fmt.Fprintln(out, tok)

	return nil
}

func userCmd(args []string, out io.Writer) error {
	if len(args) < 1 {
		fmt.Fprintln(out, userUsage)
		return errors.New("missing subcommand")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "create":
		return userCreateCmd(subArgs, out)
	case "token":
		return userTokenCmd(subArgs, out)
	default:
		fmt.Fprintln(out, userUsage)
		return errors.Errorf("unknown subcommand: %s", subcommand)
	}
}
