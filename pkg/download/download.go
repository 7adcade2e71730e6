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

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/lynkapi"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "text/xml"
	ContentTypeCSV  = "text/csv"
)

var (
	ErrNoMatch        = errors.New("No SBOM matched with the given criteria")
	ErrMissingVersion = errors.New("Please provide either --verId OR all of --prod, --env, and --ver")
)

// Executor sends one GraphQL operation.
type Executor interface {
	Execute(ctx context.Context, op lynkapi.Operation, vars map[string]interface{}) (*lynkapi.Response, error)
}

// Request identifies the SBOM to fetch. Fields left empty are not sent.
type Request struct {
	EnvID   string
	VerID   string
	Prod    string
	Env     string
	Ver     string
	Options config.DownloadOptions
}

// Artifact is a decoded SBOM as returned by the server.
type Artifact struct {
	Content     []byte
	ContentType string
	Filename    string
}

// IsJSON reports whether the server declared JSON content. Parameters such
// as charset are ignored.
func (a *Artifact) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(a.ContentType))
	}
	return mediaType == ContentTypeJSON
}

type Downloader struct {
	client Executor
	schema lynkapi.Schema
}

func New(client Executor, schema lynkapi.Schema) *Downloader {
	return &Downloader{client: client, schema: schema}
}

// Variables assembles the query variables, leaving out every identifier or
// flag the caller did not set so that server side defaults apply.
func (d *Downloader) Variables(req Request) (map[string]interface{}, error) {
	vars := map[string]interface{}{}

	if d.schema.Capabilities().NameBasedDownload {
		setString(vars, "sbomId", req.VerID)
		setString(vars, "projectId", req.EnvID)
		setString(vars, "projectGroupName", req.Prod)
		setString(vars, "projectName", req.Env)
		setString(vars, "versionName", req.Ver)
		if req.VerID == "" && (req.Prod == "" || req.Env == "" || req.Ver == "") {
			return nil, ErrMissingVersion
		}
	} else {
		if req.EnvID == "" || req.VerID == "" {
			return nil, fmt.Errorf("schema %s requires resolved environment and version ids", d.schema.Version())
		}
		vars["projectId"] = req.EnvID
		vars["sbomId"] = req.VerID
	}

	opts := req.Options
	setBool(vars, "includeVulns", config.ParseBool(opts.Vuln))
	setString(vars, "spec", opts.Spec)
	setBool(vars, "original", opts.Original)
	setBool(vars, "package", opts.DontPackageSBOM)
	setBool(vars, "lite", opts.Lite)
	setBool(vars, "excludeParts", opts.ExcludeParts)
	setBool(vars, "supportLevelOnly", opts.SupportLevelOnly)
	setBool(vars, "includeSupportStatus", opts.IncludeSupportStatus)
	return vars, nil
}

func setString(vars map[string]interface{}, key, value string) {
	if value != "" {
		vars[key] = value
	}
}

func setBool(vars map[string]interface{}, key string, value bool) {
	if value {
		vars[key] = true
	}
}

type downloadData struct {
	SBOM *struct {
		Download *struct {
			Content     *string `json:"content"`
			ContentType string  `json:"contentType"`
			Filename    string  `json:"filename"`
		} `json:"download"`
	} `json:"sbom"`
}

// Download fetches and decodes one SBOM. Failures are returned as is; there
// is no retry.
func (d *Downloader) Download(ctx context.Context, req Request) (*Artifact, error) {
	vars, err := d.Variables(req)
	if err != nil {
		return nil, err
	}
	if req.Options.SpecVersion != "" {
		logger.LogDebug(ctx, "Spec version is not sent to the server", "specVersion", req.Options.SpecVersion)
	}

	resp, err := d.client.Execute(ctx, d.schema.Download(), vars)
	if err != nil {
		return nil, err
	}

	return Decode(ctx, resp.Data)
}

// Decode extracts and base64 decodes the download member of a downloadSbom response.
func Decode(ctx context.Context, data json.RawMessage) (*Artifact, error) {
	var dd downloadData
	if len(data) > 0 {
		if err := json.Unmarshal(data, &dd); err != nil {
			return nil, fmt.Errorf("decoding download response: %w", err)
		}
	}
	if dd.SBOM == nil || dd.SBOM.Download == nil || dd.SBOM.Download.Content == nil {
		return nil, ErrNoMatch
	}

	dl := dd.SBOM.Download
	content, err := base64.StdEncoding.DecodeString(*dl.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding SBOM content: %w", err)
	}

	art := &Artifact{
		Content:     content,
		ContentType: dl.ContentType,
		Filename:    dl.Filename,
	}
	if art.ContentType == "" {
		art.ContentType = ContentTypeJSON
	}

	ratio := 0.0
	if n := len(*dl.Content); n > 0 {
		ratio = (1 - float64(len(content))/float64(n)) * 100
	}
	logger.LogDebug(ctx, "Download completed",
		"base64_size", humanize.Bytes(uint64(len(*dl.Content))),
		"decoded_size", humanize.Bytes(uint64(len(content))),
		"compression", fmt.Sprintf("%.2f%%", ratio),
		"content_type", art.ContentType,
	)
	return art, nil
}
