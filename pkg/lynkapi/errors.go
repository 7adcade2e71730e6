// Copyright 2025 Interlynk.io
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lynkapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrTransport matches any failure to complete the HTTP round trip.
	ErrTransport = errors.New("transport failure")
	// ErrUnauthorized matches a 401 response.
	ErrUnauthorized = errors.New("authentication failed")
	// ErrDecode matches a response body that is not valid JSON.
	ErrDecode = errors.New("malformed JSON response")
)

// TransportError wraps network level failures such as refused connections and timeouts.
type TransportError struct {
	Elapsed time.Duration
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request failed after %.3f seconds: %v", e.Elapsed.Seconds(), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is returned for any non-200 HTTP status.
type StatusError struct {
	Code     int
	Body     string
	Messages []string
}

func (e *StatusError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("request failed with status code %d: %s", e.Code, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("request failed with status code %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.Code == http.StatusUnauthorized
}

// ClientError reports a 4xx status other than 429.
func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500 && e.Code != http.StatusTooManyRequests
}

// GraphQLError is a 200 response that carries an "errors" array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "GraphQL error: " + strings.Join(e.Messages, "; ")
}

// IsRetryable reports whether resubmitting the same request may succeed:
// transport failures, 429 and anything outside the 4xx range.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransport) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.ClientError()
	}
	return false
}

// IsFatal reports errors that must never be retried: 401 and the other 4xx codes except 429.
func IsFatal(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.ClientError()
}
