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
	"strings"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/database"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateUser creates a user with a bcrypt hashed password
func (a *App) CreateUser(username, password string) (database.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return database.User{}, ErrUsernameRequired
	}
	if len(password) < 8 {
		return database.User{}, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return database.User{}, errors.Wrap(err, "hashing password")
	}

	var user database.User
	err = a.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&database.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return errors.Wrap(err, "counting user")
		}
		if count > 0 {
			return ErrDuplicateUsername
		}

		now := a.Clock.Now()
		user = database.User{
			Username:    username,
			Password:    string(hashedPassword),
			LastLoginAt: &now,
		}
		if err := tx.Create(&user).Error; err != nil {
			return errors.Wrap(err, "saving user")
		}

		return nil
	})
	if err != nil {
		return database.User{}, err
	}

	return user, nil
}

// GetUserByUsername finds a user by username
func (a *App) GetUserByUsername(username string) (database.User, error) {
	var user database.User

	err := a.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrNotFound
	} else if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

// GetUserByID finds a user by id
func (a *App) GetUserByID(id int) (database.User, error) {
	var user database.User

	err := a.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrNotFound
	} else if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

// Authenticate checks the password of a user
func (a *App) Authenticate(username, password string) (database.User, error) {
	user, err := a.GetUserByUsername(username)
	if errors.Is(err, ErrNotFound) {
		return user, ErrLoginInvalid
	} else if err != nil {
		return user, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return database.User{}, ErrLoginInvalid
	}

	return user, nil
}

// IssueToken authenticates a user and signs a bearer token for them
func (a *App) IssueToken(username, password string) (string, error) {
	user, err := a.Authenticate(username, password)
	if err != nil {
		return "", err
	}

	tok, _, err := a.Issuer.Issue(user)
	if err != nil {
		return "", errors.Wrap(err, "issuing token")
	}

	now := a.Clock.Now()
	if err := a.DB.Model(&user).Update("last_login_at", &now).Error; err != nil {
		return "", errors.Wrap(err, "updating last_login_at")
	}

	return tok, nil
}
