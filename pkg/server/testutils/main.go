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

// Package testutils provides utilities used in tests
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/database"
	"github.com/trailsync/trailsync/pkg/server/helpers"
	"github.com/trailsync/trailsync/pkg/server/token"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitMemoryDB creates an in-memory SQLite database with the schema initialized
func InitMemoryDB(t *testing.T) *gorm.DB {
	// A unique name keeps tests from sharing the cache
	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", MustUUID(t))
	db, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}

	if err := database.InitSchema(db); err != nil {
		t.Fatal(errors.Wrap(err, "initializing schema"))
	}
	if err := database.Migrate(db); err != nil {
		t.Fatal(errors.Wrap(err, "migrating"))
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	return db
}

// MustUUID generates a UUID and fails the test on error
func MustUUID(t *testing.T) string {
	uuid, err := helpers.GenUUID()
	if err != nil {
		t.Fatal(errors.Wrap(err, "Failed to generate UUID"))
	}
	return uuid
}

// SetupUserData creates and returns a new user with username and password for testing purposes
func SetupUserData(db *gorm.DB, username, password string) database.User {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(errors.Wrap(err, "Failed to hash password"))
	}

	user := database.User{
		Username: username,
		Password: string(hashedPassword),
	}
	if err := db.Save(&user).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare user"))
	}

	return user
}

// SetupRouteData creates and returns a new route owned by the given user
func SetupRouteData(db *gorm.DB, userID int, slug, name, region string) database.Route {
	route := database.Route{
		UserID: userID,
		Slug:   slug,
		Name:   name,
		Region: region,
	}
	if err := db.Save(&route).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare route"))
	}

	return route
}

// SetupWaypointData creates and returns a new waypoint on the given route
func SetupWaypointData(db *gorm.DB, routeID, userID int, name string) database.Waypoint {
	w := database.Waypoint{
		RouteID: routeID,
		UserID:  userID,
		Name:    name,
		Lat:     46.1,
		Lon:     7.6,
		Type:    "viewpoint",
	}
	if err := db.Save(&w).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare waypoint"))
	}

	return w
}

// SetupRouteCommentData creates and returns a new comment on the given route
func SetupRouteCommentData(db *gorm.DB, routeID, userID int, content string) database.Comment {
	c := database.Comment{
		UserID:  userID,
		Kind:    "route",
		RouteID: &routeID,
		Content: content,
	}
	if err := db.Save(&c).Error; err != nil {
		panic(errors.Wrap(err, "Failed to prepare comment"))
	}

	return c
}

// HTTPDo makes an HTTP request and returns a response
func HTTPDo(t *testing.T, req *http.Request) *http.Response {
	hc := http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	res, err := hc.Do(req)
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing http request"))
	}

	return res
}

// SetReqAuthHeader sets the authorization header in the given request to a
// token issued for the given user
func SetReqAuthHeader(t *testing.T, issuer *token.Issuer, req *http.Request, user database.User) {
	tok, _, err := issuer.Issue(user)
	if err != nil {
		t.Fatal(errors.Wrap(err, "issuing token"))
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", tok))
}

// HTTPAuthDo makes an HTTP request with an appropriate authorization header for a user
func HTTPAuthDo(t *testing.T, issuer *token.Issuer, req *http.Request, user database.User) *http.Response {
	SetReqAuthHeader(t, issuer, req, user)

	return HTTPDo(t, req)
}

// MakeReq makes an HTTP request and returns a response
func MakeReq(endpoint string, method, path, data string) *http.Request {
	u := fmt.Sprintf("%s%s", endpoint, path)

	req, err := http.NewRequest(method, u, strings.NewReader(data))
	if err != nil {
		panic(errors.Wrap(err, "constructing http request"))
	}

	return req
}

// MustExec fails the test if the given database query has error
func MustExec(t *testing.T, db *gorm.DB, message string) {
	if err := db.Error; err != nil {
		t.Fatalf("%s: %s", message, err.Error())
	}
}

// MustDecodeJSON decodes the body of the response into dest
func MustDecodeJSON(t *testing.T, res *http.Response, dest interface{}) {
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		t.Fatal(errors.Wrap(err, "decoding response body"))
	}
}

// MustRespondJSON responds with the JSON-encoding of the given interface. If the encoding
// fails, the test fails. It is used by test servers.
func MustRespondJSON(t *testing.T, w http.ResponseWriter, i interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(i); err != nil {
		t.Fatal(message)
	}
}
