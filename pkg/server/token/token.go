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

// Package token issues and verifies the bearer tokens of the sync API
package token

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/clock"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/wire"
)

// DefaultTTL is the lifetime of a token when none is configured
const DefaultTTL = 30 * 24 * time.Hour

var (
	// ErrMissingSecret is returned when no signing secret is configured
	ErrMissingSecret = errors.New("signing secret must be provided")
	// ErrInvalidToken is returned when a token cannot be verified
	ErrInvalidToken = errors.New("invalid token")
)

// Issuer signs and verifies HS256 tokens
type Issuer struct {
	Secret []byte
	Name   string
	TTL    time.Duration
	Clock  clock.Clock
}

// NewIssuer returns an issuer with defaults filled in
func NewIssuer(secret, name string, ttl time.Duration, c clock.Clock) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if c == nil {
		c = clock.New()
	}

	return &Issuer{
		Secret: []byte(secret),
		Name:   name,
		TTL:    ttl,
		Clock:  c,
	}
}

// Issue returns a signed token for the user and its expiry
func (i *Issuer) Issue(user database.User) (string, time.Time, error) {
	if len(i.Secret) == 0 {
		return "", time.Time{}, ErrMissingSecret
	}

	now := i.Clock.Now().UTC()
	expiresAt := now.Add(i.TTL)

	claims := wire.Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			Issuer:    i.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}

	return signed, expiresAt, nil
}

// Verify checks the signature, issuer and expiry of a token and returns
// its claims
func (i *Issuer) Verify(tokenString string) (*wire.Claims, error) {
	if len(i.Secret) == 0 {
		return nil, ErrMissingSecret
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(i.Clock.Now),
		jwt.WithExpirationRequired(),
	}
	if i.Name != "" {
		opts = append(opts, jwt.WithIssuer(i.Name))
	}

	claims := &wire.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}

		return i.Secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err.Error())
	}
	if claims.UserID == 0 {
		return nil, errors.Wrap(ErrInvalidToken, "missing user id")
	}

	return claims, nil
}
