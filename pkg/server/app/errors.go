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

package app

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a user cannot be found
	ErrNotFound = errors.New("not found")
	// ErrUsernameRequired is returned when a user is created without a username
	ErrUsernameRequired = errors.New("username is required")
	// ErrPasswordTooShort is returned when a password is shorter than 8 characters
	ErrPasswordTooShort = errors.New("password should be longer than 8 characters")
	// ErrDuplicateUsername is returned when the username is taken
	ErrDuplicateUsername = errors.New("duplicate username")
	// ErrLoginInvalid is returned when the username or the password is wrong
	ErrLoginInvalid = errors.New("wrong login credentials")
	// ErrDuplicateSlug is returned when a route slug is taken
	ErrDuplicateSlug = errors.New("duplicate route slug")
)
