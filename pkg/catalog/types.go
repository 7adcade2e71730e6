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

package catalog

type PrimaryComponent struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Version is one SBOM record of an environment (an "sbom" in the API).
type Version struct {
	ID               string            `json:"id"`
	UpdatedAt        Timestamp         `json:"updatedAt"`
	VulnRunStatus    string            `json:"vulnRunStatus,omitempty"`
	PrimaryComponent *PrimaryComponent `json:"primaryComponent"`
}

// Name is the primary component version, empty when the SBOM has no primary component.
func (v Version) Name() string {
	if v.PrimaryComponent == nil {
		return ""
	}
	return v.PrimaryComponent.Version
}

// Environment is a deployment context of a product (a "project" in the API).
type Environment struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Versions []Version `json:"versions"`
}

// Product is the top level grouping (a "project group" in the API).
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	UpdatedAt    Timestamp     `json:"updatedAt"`
	Enabled      bool          `json:"enabled"`
	Environments []Environment `json:"environments"`
}

// VersionCount is the number of versions across all environments.
func (p Product) VersionCount() int {
	n := 0
	for _, env := range p.Environments {
		n += len(env.Versions)
	}
	return n
}

// ProductSummary is the row shown by the products listing.
type ProductSummary struct {
	Name      string    `json:"name"`
	UpdatedAt Timestamp `json:"updatedAt"`
	ID        string    `json:"id"`
	Versions  int       `json:"versions"`
}
