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

package credential

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/assert"
	"github.com/trailsync/trailsync/pkg/cli/database"
	"github.com/trailsync/trailsync/pkg/wire"
)

func mustSign(t *testing.T, claims wire.Claims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-secret"))
	if err != nil {
		t.Fatal(errors.Wrap(err, "signing"))
	}

	return token
}

func TestDecode(t *testing.T) {
	token := mustSign(t, wire.Claims{UserID: 7, Username: "ana"})

	id, err := Decode(token)
	if err != nil {
		t.Fatal(errors.Wrap(err, "decoding"))
	}

	assert.Equal(t, id, Identity{UserID: 7, Username: "ana"}, "identity mismatch")
}

func TestDecodeInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "empty", token: ""},
		{name: "no user id", token: mustSign(t, wire.Claims{Username: "ana"})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.token)

			assert.NotEqual(t, err, nil, "decoding should fail")
		})
	}
}

func TestStoredProvider(t *testing.T) {
	db := database.InitTestMemoryDB(t)
	p := StoredProvider{DB: db}

	_, err := p.Token(context.Background())
	assert.Equal(t, err, ErrNoCredential, "no token should be stored yet")

	token := mustSign(t, wire.Claims{UserID: 3, Username: "bo"})
	id, err := Save(db, token)
	if err != nil {
		t.Fatal(errors.Wrap(err, "saving"))
	}
	assert.Equal(t, id.UserID, 3, "user id mismatch")

	got, err := Current(context.Background(), p)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting current identity"))
	}
	assert.Equal(t, got.Username, "bo", "username mismatch")

	if err := Clear(db); err != nil {
		t.Fatal(errors.Wrap(err, "clearing"))
	}
	_, err = p.Token(context.Background())
	assert.Equal(t, err, ErrNoCredential, "token should be cleared")
}

func TestSaveRejectsGarbage(t *testing.T) {
	db := database.InitTestMemoryDB(t)

	_, err := Save(db, "garbage")
	assert.NotEqual(t, err, nil, "saving garbage should fail")
	assert.Equal(t, database.MustCount(t, "counting system rows", db, "system", ""), 0, "nothing should be stored")
}
