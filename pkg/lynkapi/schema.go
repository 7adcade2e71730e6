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
	"fmt"
	"strings"
)

// Capabilities describes what a server API generation accepts.
type Capabilities struct {
	// NameBasedUpload: sbomUpload resolves projectGroupName/projectName itself.
	NameBasedUpload bool
	// NameBasedDownload: sbom(...) accepts projectGroupName/projectName/versionName.
	NameBasedDownload bool
}

// Schema adapts the fixed set of operations to one server API generation.
type Schema interface {
	Version() string
	Capabilities() Capabilities
	ProductsCount() Operation
	Products() Operation
	Upload() Operation
	Download() Operation
}

const productsCountQuery = `
query GetProductsCount($name: String, $enabled: Boolean) {
  organization {
    productNodes: projectGroups(
      search: $name
      enabled: $enabled
      orderBy: { field: PROJECT_GROUPS_UPDATED_AT, direction: DESC }
    ) {
      prodCount: totalCount
    }
  }
}
`

const productsQuery = `
query GetProducts($first: Int) {
  organization {
    productNodes: projectGroups(
      enabled: true
      first: $first
      orderBy: { field: PROJECT_GROUPS_UPDATED_AT, direction: DESC }
    ) {
      prodCount: totalCount
      products: nodes {
        id
        name
        updatedAt
        enabled
        environments: projects {
          id
          name
          versions: sboms {
            id
            vulnRunStatus
            updatedAt
            primaryComponent {
              name
              version
            }
          }
        }
      }
    }
  }
}
`

const uploadMutationV1 = `
mutation uploadSbom($doc: Upload!, $projectId: ID!) {
  sbomUpload(input: { doc: $doc, projectId: $projectId }) {
    errors
  }
}
`

const uploadMutationV2 = `
mutation uploadSbom(
  $doc: Upload!
  $projectId: ID
  $projectName: String
  $projectGroupName: String
  $projectGroupId: ID
) {
  sbomUpload(
    input: {
      doc: $doc
      projectId: $projectId
      projectName: $projectName
      projectGroupName: $projectGroupName
      projectGroupId: $projectGroupId
    }
  ) {
    errors
  }
}
`

const downloadQueryV1 = `
query downloadSbom($projectId: Uuid!, $sbomId: Uuid!, $includeVulns: Boolean,
                   $spec: String, $original: Boolean, $package: Boolean,
                   $lite: Boolean, $excludeParts: Boolean,
                   $supportLevelOnly: Boolean, $includeSupportStatus: Boolean) {
  sbom(projectId: $projectId, sbomId: $sbomId) {
    download(
      sbomId: $sbomId
      includeVulns: $includeVulns
      spec: $spec
      original: $original
      dontPackageSbom: $package
      lite: $lite
      excludeParts: $excludeParts
      supportLevelOnly: $supportLevelOnly
      includeSupportStatus: $includeSupportStatus
    ) {
      content
      contentType
      filename
    }
  }
}
`

const downloadQueryV2 = `
query downloadSbom($projectId: Uuid, $sbomId: Uuid, $projectName: String,
                   $projectGroupName: String, $versionName: String,
                   $includeVulns: Boolean, $spec: SbomSpec, $original: Boolean,
                   $package: Boolean, $lite: Boolean, $excludeParts: Boolean,
                   $supportLevelOnly: Boolean, $includeSupportStatus: Boolean) {
  sbom(projectId: $projectId, sbomId: $sbomId, projectName: $projectName,
       projectGroupName: $projectGroupName, versionName: $versionName) {
    download(
      sbomId: $sbomId
      includeVulns: $includeVulns
      spec: $spec
      original: $original
      dontPackageSbom: $package
      lite: $lite
      excludeParts: $excludeParts
      supportLevelOnly: $supportLevelOnly
      includeSupportStatus: $includeSupportStatus
    ) {
      content
      contentType
      filename
      __typename
    }
    __typename
  }
}
`

type schema struct {
	version       string
	caps          Capabilities
	productsCount Operation
	products      Operation
	upload        Operation
	download      Operation
}

func (s *schema) Version() string            { return s.version }
func (s *schema) Capabilities() Capabilities { return s.caps }
func (s *schema) ProductsCount() Operation   { return s.productsCount }
func (s *schema) Products() Operation        { return s.products }
func (s *schema) Upload() Operation          { return s.upload }
func (s *schema) Download() Operation        { return s.download }

var (
	// SchemaV1 requires environment and version IDs for every data-moving call.
	SchemaV1 Schema = &schema{
		version:       "v1",
		productsCount: MustParseOperation(productsCountQuery),
		products:      MustParseOperation(productsQuery),
		upload:        MustParseOperation(uploadMutationV1),
		download:      MustParseOperation(downloadQueryV1),
	}

	// SchemaV2 lets the server resolve product/environment/version names.
	SchemaV2 Schema = &schema{
		version:       "v2",
		caps:          Capabilities{NameBasedUpload: true, NameBasedDownload: true},
		productsCount: MustParseOperation(productsCountQuery),
		products:      MustParseOperation(productsQuery),
		upload:        MustParseOperation(uploadMutationV2),
		download:      MustParseOperation(downloadQueryV2),
	}
)

// SchemaFor returns the adapter for the given API generation; "" selects the latest.
func SchemaFor(version string) (Schema, error) {
	switch strings.ToLower(strings.TrimSpace(version)) {
	case "", "v2", "2":
		return SchemaV2, nil
	case "v1", "1":
		return SchemaV1, nil
	}
	return nil, fmt.Errorf("unsupported API schema %q (must be one of: v1, v2)", version)
}
