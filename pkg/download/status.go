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

package download

const (
	StatusUnknown    = "UNKNOWN"
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusFinished   = "FINISHED"
)

// Status is the per action processing state of a version.
type Status struct {
	Checks     string `json:"checksStatus"`
	Policy     string `json:"policyStatus"`
	Labeling   string `json:"labelingStatus"`
	Automation string `json:"automationStatus"`
	VulnScan   string `json:"vulnScanStatus"`
}

// StatusFor maps a version's vulnRunStatus to the five action statuses.
// Unrecognized values, including "", map to UNKNOWN everywhere.
func StatusFor(vulnRunStatus string) Status {
	switch vulnRunStatus {
	case StatusNotStarted:
		return uniform(StatusNotStarted)
	case StatusInProgress:
		s := uniform(StatusCompleted)
		s.VulnScan = StatusInProgress
		return s
	case StatusFinished:
		return uniform(StatusCompleted)
	default:
		return uniform(StatusUnknown)
	}
}

func uniform(v string) Status {
	return Status{Checks: v, Policy: v, Labeling: v, Automation: v, VulnScan: v}
}

// Rows returns the statuses as ordered key/value pairs for display.
func (s Status) Rows() [][2]string {
	return [][2]string{
		{"checksStatus", s.Checks},
		{"policyStatus", s.Policy},
		{"labelingStatus", s.Labeling},
		{"automationStatus", s.Automation},
		{"vulnScanStatus", s.VulnScan},
	}
}
