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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/interlynk-io/lynk/pkg/logger"
)

// CallStat records a single completed round trip.
type CallStat struct {
	Operation string
	Duration  time.Duration
	Size      int
	Status    int
}

// Summary aggregates all recorded calls.
type Summary struct {
	Calls      int
	TotalTime  time.Duration
	TotalBytes int
	AvgTime    time.Duration
	AvgSize    int
}

type Stats struct {
	mu    sync.Mutex
	calls []CallStat
}

func (s *Stats) Record(c CallStat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, c)
}

func (s *Stats) Calls() []CallStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CallStat, len(s.calls))
	copy(out, s.calls)
	return out
}

func (s *Stats) Summary() Summary {
	calls := s.Calls()
	sum := Summary{Calls: len(calls)}
	for _, c := range calls {
		sum.TotalTime += c.Duration
		sum.TotalBytes += c.Size
	}
	if sum.Calls > 0 {
		sum.AvgTime = sum.TotalTime / time.Duration(sum.Calls)
		sum.AvgSize = sum.TotalBytes / sum.Calls
	}
	return sum
}

// Log writes the session summary and one line per call at debug level.
func (s *Stats) Log(ctx context.Context) {
	sum := s.Summary()
	if sum.Calls == 0 {
		return
	}

	logger.LogDebug(ctx, "API Summary",
		"calls", sum.Calls,
		"total_time", fmt.Sprintf("%.3fs", sum.TotalTime.Seconds()),
		"total_data", humanize.Bytes(uint64(sum.TotalBytes)),
		"avg_time", fmt.Sprintf("%.3fs", sum.AvgTime.Seconds()),
		"avg_size", humanize.Bytes(uint64(sum.AvgSize)))

	for i, c := range s.Calls() {
		logger.LogDebug(ctx, fmt.Sprintf("  Call %d", i+1),
			"operation", c.Operation,
			"time", fmt.Sprintf("%.3fs", c.Duration.Seconds()),
			"size", humanize.Bytes(uint64(c.Size)),
			"status", c.Status)
	}
}
