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

package utils

import (
	"crypto/rand"
	"encoding/binary"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/clock"
)

// idEpoch is the origin of the timestamp part of reserved ids
var idEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// GenerateUUID returns a uuid v4 in string
func GenerateUUID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", errors.Wrap(err, "generating uuid")
	}

	return u.String(), nil
}

// ReserveID returns an id for a row created offline. The high bits hold the
// milliseconds elapsed since idEpoch and the low 16 bits are random, which
// keeps the value above the serial ids of the server and below 2^53.
func ReserveID(c clock.Clock) (int, error) {
	ms := c.Now().Sub(idEpoch).Milliseconds()
	if ms < 0 {
		return 0, errors.Errorf("clock is set before %s", idEpoch.Format(time.RFC3339))
	}

	var b [2]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, errors.Wrap(err, "reading random bytes")
	}

	return int(ms<<16 | int64(binary.BigEndian.Uint16(b[:]))), nil
}

// regexNumber is a regex that matches a string that looks like an integer
var regexNumber = regexp.MustCompile(`^\d+$`)

// IsNumber checks if the given string is in the form of a number
func IsNumber(s string) bool {
	if s == "" {
		return false
	}

	return regexNumber.MatchString(s)
}

// ParseID parses a positive integer id given as a command argument
func ParseID(s string) (int, error) {
	if !IsNumber(s) {
		return 0, errors.Errorf("invalid id '%s'", s)
	}

	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing id '%s'", s)
	}
	if id == 0 {
		return 0, errors.Errorf("invalid id '%s'", s)
	}

	return id, nil
}
