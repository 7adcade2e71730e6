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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/dustin/go-humanize"
	"github.com/interlynk-io/lynk/pkg/ciinfo"
	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/lynkapi"
	"github.com/protobom/protobom/pkg/formats"
	"github.com/sirupsen/logrus"
)

const authFailedMessage = "Authentication failed. Please check your INTERLYNK_SECURITY_TOKEN"

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrAuthFailed    = errors.New(authFailedMessage)
	ErrMissingTarget = errors.New("upload requires a product (--prod or --prodId)")
)

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("Upload failed after %d attempts", e.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// RejectedError carries the errors reported under sbomUpload for a 200 response.
type RejectedError struct {
	Errors string
}

func (e *RejectedError) Error() string {
	return "Error uploading sbom: " + e.Errors
}

// Client is the subset of lynkapi.Client the uploader needs.
type Client interface {
	Upload(ctx context.Context, op lynkapi.Operation, vars map[string]interface{}, file lynkapi.UploadFile) (*lynkapi.Response, error)
	Token() string
}

// Request names the SBOM file and the product/environment it belongs to.
// Ids take precedence over names.
type Request struct {
	SBOMPath string
	ProdID   string
	Prod     string
	EnvID    string
	Env      string
}

// Result describes a successful upload.
type Result struct {
	Attempts int
	Size     int64
	Format   string
}

// Uploader sends SBOM files with retries.
type Uploader struct {
	client Client
	schema lynkapi.Schema
	policy RetryPolicy
	sleep  Sleeper
	out    io.Writer
	ci     *ciinfo.Info
}

type Option func(*Uploader)

func WithRetryPolicy(p RetryPolicy) Option { return func(u *Uploader) { u.policy = p } }

func WithSleeper(s Sleeper) Option { return func(u *Uploader) { u.sleep = s } }

// WithOutput sets where user facing messages are printed.
func WithOutput(w io.Writer) Option { return func(u *Uploader) { u.out = w } }

func WithCIInfo(info *ciinfo.Info) Option { return func(u *Uploader) { u.ci = info } }

func New(client Client, schema lynkapi.Schema, opts ...Option) *Uploader {
	u := &Uploader{
		client: client,
		schema: schema,
		policy: DefaultRetryPolicy(3),
		sleep:  sleepContext,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Variables builds the mutation variables for req. Unset identifiers are
// left out so the server can apply its own defaults.
func (u *Uploader) Variables(req Request) (map[string]interface{}, error) {
	vars := map[string]interface{}{"doc": nil}

	if !u.schema.Capabilities().NameBasedUpload {
		if req.EnvID == "" {
			return nil, fmt.Errorf("schema %s requires a resolved environment id", u.schema.Version())
		}
		vars["projectId"] = req.EnvID
		return vars, nil
	}

	switch {
	case req.ProdID != "":
		vars["projectGroupId"] = req.ProdID
	case req.Prod != "":
		vars["projectGroupName"] = req.Prod
	default:
		return nil, ErrMissingTarget
	}

	switch {
	case req.EnvID != "":
		vars["projectId"] = req.EnvID
	case req.Env != "":
		vars["projectName"] = req.Env
	}
	return vars, nil
}

// Upload sends the SBOM at req.SBOMPath. A missing file fails before any
// request is made. 401 and other 4xx responses (except 429) are not retried.
func (u *Uploader) Upload(ctx context.Context, req Request) (*Result, error) {
	data, err := os.ReadFile(req.SBOMPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, req.SBOMPath)
		}
		return nil, fmt.Errorf("reading %s: %w", req.SBOMPath, err)
	}

	vars, err := u.Variables(req)
	if err != nil {
		return nil, err
	}

	result := &Result{Size: int64(len(data)), Format: sniffFormat(ctx, data)}
	if u.ci != nil {
		u.ci.Log(ctx)
	}
	logger.LogDebug(ctx, "Uploading SBOM", "file", req.SBOMPath, "size", humanize.Bytes(uint64(len(data))), "format", result.Format)

	attempts := u.policy.Attempts()
	b := u.policy.backOff()
	op := u.schema.Upload()

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result.Attempts = attempt
		start := time.Now()

		resp, err := u.client.Upload(ctx, op, vars, lynkapi.UploadFile{
			Name:    filepath.Base(req.SBOMPath),
			Content: bytes.NewReader(data),
		})
		elapsed := time.Since(start)

		if err == nil {
			if rejected := uploadErrors(resp); rejected != "" {
				return nil, &RejectedError{Errors: rejected}
			}
			logger.LogDebug(ctx, "Upload completed", "attempt", attempt, "elapsed", elapsed.String(),
				"speed", humanize.Bytes(uint64(float64(len(data))/maxSeconds(elapsed)))+"/s")
			fmt.Fprintln(u.out, "Uploaded successfully")
			return result, nil
		}

		if errors.Is(err, lynkapi.ErrUnauthorized) {
			logger.LogDebug(ctx, "Token used", "token", logger.MaskToken(u.client.Token()))
			return nil, ErrAuthFailed
		}

		var se *lynkapi.StatusError
		if errors.As(err, &se) {
			logger.LogError(ctx, err, "Error uploading sbom", "status", se.Code, "attempt", attempt, "attempts", attempts)
		} else {
			logger.LogError(ctx, err, "Error uploading sbom", "attempt", attempt, "attempts", attempts)
		}

		if !u.policy.retryable(err) {
			return nil, err
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		wait := b.NextBackOff()
		if wait == backoff.Stop {
			break
		}
		logger.LogInfo(ctx, "Retrying upload", "in", wait.String())
		if err := u.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempts: result.Attempts, Last: lastErr}
}

func maxSeconds(d time.Duration) float64 {
	if s := d.Seconds(); s > 0 {
		return s
	}
	return 1
}

type uploadData struct {
	SBOMUpload *struct {
		Errors json.RawMessage `json:"errors"`
	} `json:"sbomUpload"`
}

// uploadErrors returns the non-empty errors reported under sbomUpload.
func uploadErrors(resp *lynkapi.Response) string {
	if resp == nil || len(resp.Data) == 0 {
		return ""
	}
	var d uploadData
	if err := json.Unmarshal(resp.Data, &d); err != nil || d.SBOMUpload == nil {
		return ""
	}
	switch raw := strings.TrimSpace(string(d.SBOMUpload.Errors)); raw {
	case "", "null", "[]", `""`:
		return ""
	default:
		return raw
	}
}

// sniffFormat reports the SBOM format for logging; unknown formats are left
// for the server to reject.
func sniffFormat(ctx context.Context, data []byte) string {
	originalLevel := logrus.GetLevel()
	logrus.SetLevel(logrus.ErrorLevel)
	defer logrus.SetLevel(originalLevel)

	sniffer := formats.Sniffer{}
	format, err := sniffer.SniffReader(bytes.NewReader(data))
	if err != nil || format == "" {
		logger.LogDebug(ctx, "Unrecognized SBOM format, leaving validation to the server", "error", err)
		return "unknown"
	}
	logger.LogDebug(ctx, "Detected SBOM format", "type", format.Type(), "version", format.Version(), "encoding", format.Encoding())
	return string(format)
}
