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

package upload

import (
	"context"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/interlynk-io/lynk/pkg/lynkapi"
)

// RetryPolicy decides how many times an upload is resubmitted and how long to
// wait in between.
type RetryPolicy struct {
	// MaxRetries is the number of resubmissions after the first attempt.
	MaxRetries int
	// NewBackOff returns a fresh interval generator for one upload.
	NewBackOff func() backoff.BackOff
	// Retryable reports whether an attempt's error is worth retrying.
	Retryable func(error) bool
}

// DefaultRetryPolicy waits 1s, 2s, 4s, ... between attempts and retries
// transport failures, 429 and 5xx.
func DefaultRetryPolicy(retries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries: retries,
		NewBackOff: doublingBackOff,
		Retryable:  lynkapi.IsRetryable,
	}
}

func doublingBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Attempts is the total number of tries including the first one.
func (p RetryPolicy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

func (p RetryPolicy) backOff() backoff.BackOff {
	if p.NewBackOff == nil {
		return doublingBackOff()
	}
	return p.NewBackOff()
}

func (p RetryPolicy) retryable(err error) bool {
	if p.Retryable == nil {
		return lynkapi.IsRetryable(err)
	}
	return p.Retryable(err)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
