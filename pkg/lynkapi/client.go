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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/interlynk-io/lynk/pkg/logger"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 100 * time.Second
	defaultAPIURL    = "https://api.interlynk.io/lynkapi"
	defaultUserAgent = "lynk/1.0"

	// uploadFileField is the multipart part holding the document, mapped to variables.doc.
	uploadFileField = "0"
)

// Client issues single GraphQL operations against the Interlynk API.
type Client struct {
	apiURL     string
	token      string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	stats      *Stats
}

// Config holds the configuration for the Interlynk client
type Config struct {
	APIURL     string
	Token      string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	// RateLimit caps requests per second; zero disables pacing.
	RateLimit float64
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

// Response is the generic GraphQL envelope; Data is decoded by the caller.
type Response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ResponseError `json:"errors,omitempty"`
}

type ResponseError struct {
	Message string `json:"message"`
}

// UploadFile is the document attached to a multipart upload.
type UploadFile struct {
	Name    string
	Content io.Reader
}

// NewClient creates a new Interlynk API client
func NewClient(config Config) *Client {
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Client{
		apiURL:     config.APIURL,
		token:      config.Token,
		userAgent:  config.UserAgent,
		httpClient: httpClient,
		limiter:    limiter,
		stats:      &Stats{},
	}
}

// APIURL returns the endpoint the client talks to.
func (c *Client) APIURL() string { return c.apiURL }

// Token returns the bearer token in use.
func (c *Client) Token() string { return c.token }

// Stats returns the per-call statistics gathered so far.
func (c *Client) Stats() *Stats { return c.stats }

// Execute sends op as a JSON body. A 200 response carrying an "errors" array is
// returned together with a *GraphQLError.
func (c *Client) Execute(ctx context.Context, op Operation, vars map[string]interface{}) (*Response, error) {
	if err := op.checkVariables(vars); err != nil {
		return nil, err
	}

	body, err := json.Marshal(graphQLRequest{
		Query:         op.Document,
		Variables:     vars,
		OperationName: op.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling GraphQL request: %w", err)
	}

	logger.LogDebug(ctx, "API Request", "operation", op.Name, "url", c.apiURL, "variables", vars)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(ctx, op.Name, req)
}

// Upload sends op using the GraphQL multipart request convention with file
// bound to variables.doc.
func (c *Client) Upload(ctx context.Context, op Operation, vars map[string]interface{}, file UploadFile) (*Response, error) {
	if err := op.checkVariables(vars); err != nil {
		return nil, err
	}
	if !op.Declares("doc") {
		return nil, fmt.Errorf("operation %s does not declare $doc", op.Name)
	}

	body, contentType, err := prepareMultipartForm(op, vars, file)
	if err != nil {
		return nil, err
	}

	logger.LogDebug(ctx, "Upload Request", "operation", op.Name, "url", c.apiURL, "variables", vars,
		"file", file.Name, "size", humanize.Bytes(uint64(body.Len())))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	return c.do(ctx, op.Name, req)
}

func prepareMultipartForm(op Operation, vars map[string]interface{}, file UploadFile) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	variables := make(map[string]interface{}, len(vars)+1)
	for k, v := range vars {
		variables[k] = v
	}
	variables["doc"] = nil

	operations := map[string]interface{}{
		"query":         op.Document,
		"variables":     variables,
		"operationName": op.Name,
	}
	if err := writeJSONField(writer, "operations", operations); err != nil {
		return nil, "", err
	}

	if err := writeJSONField(writer, "map", map[string][]string{
		uploadFileField: {"variables.doc"},
	}); err != nil {
		return nil, "", err
	}

	part, err := writer.CreateFormFile(uploadFileField, file.Name)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, "", fmt.Errorf("writing SBOM content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}

func writeJSONField(writer *multipart.Writer, fieldName string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", fieldName, err)
	}

	if err := writer.WriteField(fieldName, string(jsonData)); err != nil {
		return fmt.Errorf("writing %s field: %w", fieldName, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, opName string, req *http.Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		logger.LogError(ctx, err, "Request failed", "operation", opName, "elapsed", elapsed.String(), "request_id", requestID)
		return nil, &TransportError{Elapsed: elapsed, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, &TransportError{Elapsed: elapsed, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.stats.Record(CallStat{Operation: opName, Duration: elapsed, Size: len(body), Status: resp.StatusCode})
	logger.LogDebug(ctx, "API Response", "operation", opName, "status", resp.StatusCode,
		"time", fmt.Sprintf("%.3fs", elapsed.Seconds()), "size", humanize.Bytes(uint64(len(body))), "request_id", requestID)

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Code: resp.StatusCode, Body: string(body)}
		var errBody Response
		if json.Unmarshal(body, &errBody) == nil {
			for _, e := range errBody.Errors {
				statusErr.Messages = append(statusErr.Messages, e.Message)
			}
		}
		logger.LogError(ctx, nil, "Request failed with status code", "operation", opName, "status", resp.StatusCode)
		return nil, statusErr
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		logger.LogError(ctx, err, "Malformed JSON response", "operation", opName)
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	if len(out.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range out.Errors {
			logger.LogError(ctx, nil, "GraphQL response contains error", "operation", opName, "message", e.Message)
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return &out, gqlErr
	}

	return &out, nil
}
