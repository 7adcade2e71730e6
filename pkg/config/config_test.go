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
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvSecurityToken, "")
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPISchema, "")
	t.Setenv(EnvAPIRate, "")

	cfg := Load(viper.New())
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultRetries, cfg.Upload.Retries)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.Equal(t, "v2", cfg.Schema)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingToken)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv(EnvSecurityToken, "env-token")
	t.Setenv(EnvAPIURL, "http://localhost:3000/lynkapi")
	t.Setenv(EnvAPISchema, "v1")
	t.Setenv(EnvAPIRate, "2.5")

	cfg := Load(viper.New())
	assert.Equal(t, "env-token", cfg.Token)
	assert.Equal(t, "http://localhost:3000/lynkapi", cfg.APIURL)
	assert.Equal(t, "v1", cfg.Schema)
	assert.Equal(t, 2.5, cfg.RateLimit)
	require.NoError(t, cfg.Validate())
}

func TestTokenFlagWinsOverEnvironment(t *testing.T) {
	t.Setenv(EnvSecurityToken, "env-token")

	v := viper.New()
	v.Set("token", "flag-token")
	cfg := Load(v)
	assert.Equal(t, "flag-token", cfg.Token)
}

func TestUnprefixedVariablesAreIgnored(t *testing.T) {
	t.Setenv("TOKEN", "unrelated-ci-secret")
	t.Setenv("API_SCHEMA", "v1")
	t.Setenv("API_RATE", "9")
	t.Setenv(EnvSecurityToken, "lynk_real_token_1234")
	t.Setenv(EnvAPISchema, "")
	t.Setenv(EnvAPIRate, "")

	flags := pflag.NewFlagSet("lynk", pflag.ContinueOnError)
	flags.String(KeyToken, "", "")
	flags.String(KeyAPISchema, "", "")
	flags.Float64(KeyAPIRate, 0, "")
	require.NoError(t, flags.Parse(nil))

	v := viper.New()
	for _, name := range []string{KeyToken, KeyAPISchema, KeyAPIRate} {
		require.NoError(t, v.BindPFlag(name, flags.Lookup(name)))
	}

	cfg := Load(v)
	assert.Equal(t, "lynk_real_token_1234", cfg.Token)
	assert.Equal(t, "v2", cfg.Schema)
	assert.Zero(t, cfg.RateLimit)
}

func TestChangedTokenFlagWinsOverEnvironment(t *testing.T) {
	t.Setenv(EnvSecurityToken, "env-token")

	flags := pflag.NewFlagSet("lynk", pflag.ContinueOnError)
	flags.String(KeyToken, "", "")
	require.NoError(t, flags.Parse([]string{"--token", "flag-token"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag(KeyToken, flags.Lookup(KeyToken)))

	assert.Equal(t, "flag-token", Load(v).Token)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Token: "t", Format: FormatJSON, Upload: UploadOptions{Retries: 3}}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "vuln yes", mutate: func(c *Config) { c.Download.Vuln = "YES" }},
		{name: "vuln invalid", mutate: func(c *Config) { c.Download.Vuln = "maybe" }, wantErr: "invalid value for vuln"},
		{name: "spec invalid", mutate: func(c *Config) { c.Download.Spec = "SWID" }, wantErr: "invalid value for spec"},
		{name: "negative retries", mutate: func(c *Config) { c.Upload.Retries = -1 }, wantErr: "invalid value for retries"},
		{name: "bad format", mutate: func(c *Config) { c.Format = "csv" }, wantErr: "unsupported output format"},
		{name: "no token", mutate: func(c *Config) { c.Token = "" }, wantErr: "Security token not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("true"))
	assert.True(t, ParseBool("Yes"))
	assert.True(t, ParseBool("1"))
	assert.False(t, ParseBool("no"))
	assert.False(t, ParseBool(""))
}
