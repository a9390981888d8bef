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

package middleware

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/context"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/server/token"
	"gorm.io/gorm"
)

// AuthWithToken authenticates the request with its bearer token. It reports
// false without an error when the credential is missing or invalid.
func AuthWithToken(db *gorm.DB, issuer *token.Issuer, r *http.Request) (database.User, bool, error) {
	var user database.User

	cred, err := GetCredential(r)
	if err != nil || cred == "" {
		return user, false, nil
	}

	claims, err := issuer.Verify(cred)
	if err != nil {
		return user, false, nil
	}

	err = db.Where("id = ?", claims.UserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, false, nil
	} else if err != nil {
		return user, false, errors.Wrap(err, "finding user from token")
	}

	return user, true, nil
}

// Auth is an authentication middleware. The verified user is stored in the
// request context.
func Auth(db *gorm.DB, issuer *token.Issuer, next http.HandlerFunc) http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok, err := AuthWithToken(db, issuer, r)
		if err != nil {
			DoError(w, "authenticating with token", err, http.StatusInternalServerError)
			return
		}
		if !ok {
			RespondUnauthorized(w)
			return
		}

		ctx := context.WithUser(r.Context(), &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
