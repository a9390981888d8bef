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

// Package credential decodes the bearer token of the signed-in user and
// keeps it in the local store
package credential

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/cli/consts"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/wire"
)

// ErrNoCredential is returned when no user is signed in
var ErrNoCredential = errors.New("not logged in. Please run 'trail login'")

// Identity is the user a token was issued to
type Identity struct {
	UserID   int
	Username string
}

// Provider supplies the bearer token of the current user
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// Decode extracts the identity from a token without verifying its
// signature. The result is only used to attribute rows authored offline;
// the server verifies the token on every request.
func Decode(token string) (Identity, error) {
	var claims wire.Claims

	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Identity{}, errors.Wrap(err, "decoding token")
	}
	if claims.UserID == 0 {
		return Identity{}, errors.New("token carries no user_id")
	}

	return Identity{UserID: claims.UserID, Username: claims.Username}, nil
}

// StoredProvider reads the token saved by 'trail login' from the local store
type StoredProvider struct {
	DB *database.DB
}

// Token returns the stored token, or ErrNoCredential
func (p StoredProvider) Token(ctx context.Context) (string, error) {
	var token string

	err := database.GetSystem(p.DB, consts.SystemSessionToken, &token)
	if database.IsNotFound(err) || (err == nil && token == "") {
		return "", ErrNoCredential
	} else if err != nil {
		return "", errors.Wrap(err, "reading the session token")
	}

	return token, nil
}

// Static is a Provider returning a fixed token
type Static string

// Token returns the token
func (s Static) Token(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoCredential
	}

	return string(s), nil
}

// Current decodes the identity of the token supplied by p
func Current(ctx context.Context, p Provider) (Identity, error) {
	token, err := p.Token(ctx)
	if err != nil {
		return Identity{}, err
	}

	return Decode(token)
}

// Save stores the token after checking that it can be decoded
func Save(db *database.DB, token string) (Identity, error) {
	id, err := Decode(token)
	if err != nil {
		return Identity{}, err
	}

	if err := database.UpsertSystem(db, consts.SystemSessionToken, token); err != nil {
		return Identity{}, errors.Wrap(err, "saving the session token")
	}

	return id, nil
}

// Clear removes the stored token
func Clear(db *database.DB) error {
	return database.DeleteSystem(db, consts.SystemSessionToken)
}
