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

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultAPIURL      = "https://api.interlynk.io/lynkapi"
	DefaultTimeout     = 100 * time.Second
	DefaultEnvironment = "default"
	DefaultRetries     = 3

	EnvSecurityToken = "INTERLYNK_SECURITY_TOKEN"
	EnvAPIURL        = "INTERLYNK_API_URL"
	EnvAPISchema     = "INTERLYNK_API_SCHEMA"
	EnvAPIRate       = "INTERLYNK_API_RATE"
)

// Viper keys; the flag keys match the persistent flag names.
const (
	KeyToken     = "token"
	KeyAPIURL    = "api-url"
	KeyAPISchema = "api-schema"
	KeyAPIRate   = "api-rate"
)

// ErrMissingToken is returned when neither --token nor INTERLYNK_SECURITY_TOKEN is set.
var ErrMissingToken = errors.New("Security token not found\nPlease set INTERLYNK_SECURITY_TOKEN environment variable or use --token parameter")

type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatTable OutputFormat = "table"
)

// Identity is the user supplied half of a RequestIdentity. An empty field means
// the value was not given.
type Identity struct {
	ProdID string
	Prod   string
	EnvID  string
	Env    string
	VerID  string
	Ver    string
}

type UploadOptions struct {
	SBOMPath string
	Retries  int
}

type DownloadOptions struct {
	Output               string
	Vuln                 string
	Spec                 string
	SpecVersion          string
	Lite                 bool
	DontPackageSBOM      bool
	Original             bool
	ExcludeParts         bool
	IncludeSupportStatus bool
	SupportLevelOnly     bool
	S3                   S3Options
}

// S3Options configures the s3:// output target. Empty fields fall back to
// the default AWS credential chain.
type S3Options struct {
	Region    string
	AccessKey string
	SecretKey string
}

// Config is populated once from flags and the environment and is read-only afterwards.
type Config struct {
	Token     string
	APIURL    string
	Timeout   time.Duration
	Schema    string
	RateLimit float64
	Verbose   int
	Format    OutputFormat

	Identity Identity
	Upload   UploadOptions
	Download DownloadOptions
}

// Load reads the API settings bound in v. Each key is tied to its own
// INTERLYNK_* variable; a changed flag bound under the same key wins.
// Command specific fields are filled by the caller.
func Load(v *viper.Viper) *Config {
	_ = v.BindEnv(KeyToken, EnvSecurityToken)
	_ = v.BindEnv(KeyAPIURL, EnvAPIURL)
	_ = v.BindEnv(KeyAPISchema, EnvAPISchema)
	_ = v.BindEnv(KeyAPIRate, EnvAPIRate)
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyAPISchema, "v2")

	token := v.GetString(KeyToken)
	schema := v.GetString(KeyAPISchema)
	rate := v.GetFloat64(KeyAPIRate)

	apiURL := strings.TrimSpace(v.GetString(KeyAPIURL))
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Config{
		Token:     strings.TrimSpace(token),
		APIURL:    apiURL,
		Timeout:   DefaultTimeout,
		Schema:    schema,
		RateLimit: rate,
		Format:    FormatJSON,
		Upload:    UploadOptions{Retries: DefaultRetries},
	}
}

var validBooleans = map[string]bool{
	"true": true, "false": true, "1": true, "0": true, "yes": true, "no": true,
}

// ParseBool interprets the loose boolean values accepted by --vuln.
func ParseBool(value string) bool {
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	}
	return false
}

// ValidateToken checks that a security token is available.
func (c *Config) ValidateToken() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	return nil
}

// Validate checks the whole configuration before any network call is made.
func (c *Config) Validate() error {
	if err := c.ValidateToken(); err != nil {
		return err
	}

	if c.Download.Vuln != "" && !validBooleans[strings.ToLower(c.Download.Vuln)] {
		return fmt.Errorf("invalid value for vuln: %s. Expected one of [true false 1 0 yes no]", c.Download.Vuln)
	}

	switch c.Download.Spec {
	case "", "SPDX", "CycloneDX":
	default:
		return fmt.Errorf("invalid value for spec: %s. Expected one of [SPDX CycloneDX]", c.Download.Spec)
	}

	if c.Upload.Retries < 0 {
		return fmt.Errorf("invalid value for retries: %d. Must be zero or greater", c.Upload.Retries)
	}

	switch c.Format {
	case FormatJSON, FormatTable:
	default:
		return fmt.Errorf("unsupported output format: %s", c.Format)
	}

	return nil
}
