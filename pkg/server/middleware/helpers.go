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
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/trailsync/trailsync/pkg/server/context"
	"github.com/trailsync/trailsync/pkg/server/helpers"
	"github.com/trailsync/trailsync/pkg/server/log"
	"github.com/trailsync/trailsync/pkg/syncerr"
)

// ErrMalformedCredential is returned when the Authorization header is not a bearer credential
var ErrMalformedCredential = errors.New("malformed Authorization header")

// statusFor maps the sync error taxonomy to a status code. Other errors
// keep the given fallback.
func statusFor(err error, fallback int) int {
	switch {
	case syncerr.IsValidation(err):
		return http.StatusBadRequest
	case syncerr.IsNotOwner(err):
		return http.StatusForbidden
	case syncerr.IsNotFound(err):
		return http.StatusNotFound
	case syncerr.IsConflict(err):
		return http.StatusConflict
	}

	return fallback
}

// DoError logs the error and responds with the status code it maps to.
// Server errors are not exposed to the client.
func DoError(w http.ResponseWriter, msg string, err error, statusCode int) {
	statusCode = statusFor(err, statusCode)

	if statusCode >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"status": statusCode,
		}).ErrorWrap(err, msg)

		http.Error(w, http.StatusText(statusCode), statusCode)
		return
	}

	log.WithFields(log.Fields{
		"status": statusCode,
		"error":  err,
	}).Debug(msg)

	http.Error(w, err.Error(), statusCode)
}

// RespondJSON encodes v as the JSON body of the response
func RespondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.ErrorWrap(err, "encoding response")
	}
}

// RespondUnauthorized responds with unauthorized
func RespondUnauthorized(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Bearer realm="trailsync"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}

// GetCredential extracts the bearer token from the Authorization header.
// It returns an empty string if the header is absent.
func GetCredential(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", nil
	}

	scheme, cred, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(cred) == "" {
		return "", ErrMalformedCredential
	}

	return strings.TrimSpace(cred), nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Global is the middleware applied to every request. It assigns a request
// id, recovers from panics and logs the outcome.
func Global(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := helpers.RequestID(r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Request-ID", id)
		r = r.WithContext(context.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				DoError(rec, "recovering from panic", errors.Errorf("panic: %v", p), http.StatusInternalServerError)
			}

			log.WithFields(log.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).String(),
			}).Info("request")
		}()

		next.ServeHTTP(rec, r)
	})
}
