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

package cmd

import (
	"context"
	"io"

	"github.com/interlynk-io/lynk/pkg/catalog"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/lynkapi"
	"github.com/interlynk-io/lynk/pkg/output"
	"github.com/interlynk-io/lynk/pkg/resolver"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// session carries what every API command needs for one invocation.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	schema lynkapi.Schema
	client *lynkapi.Client
	out    io.Writer
}

// newSession initializes logging, loads and validates configuration and
// builds the API client. configure fills command specific options before
// validation.
func newSession(cmd *cobra.Command, configure func(cfg *config.Config) error) (*session, error) {
	verbose, _ := cmd.Flags().GetCount("verbose")
	logger.InitLogger(verbose > 0, false)

	ctx := logger.WithLogger(cmd.Context())
	logger.LogDebug(ctx, "Starting", "command", cmd.Name())

	v := viper.New()
	for _, name := range []string{config.KeyToken, config.KeyAPISchema, config.KeyAPIRate} {
		if f := cmd.Flags().Lookup(name); f != nil {
			_ = v.BindPFlag(name, f)
		}
	}

	cfg := config.Load(v)
	cfg.Verbose = verbose
	cfg.Identity = readIdentity(cmd)
	if table, _ := cmd.Flags().GetBool("table"); table {
		cfg.Format = config.FormatTable
	}

	if configure != nil {
		if err := configure(cfg); err != nil {
			logger.DeinitLogger()
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		logger.DeinitLogger()
		return nil, err
	}
	logger.LogDebug(ctx, "Token found", "token", logger.MaskToken(cfg.Token))

	schema, err := lynkapi.SchemaFor(cfg.Schema)
	if err != nil {
		logger.DeinitLogger()
		return nil, err
	}

	client := lynkapi.NewClient(lynkapi.Config{
		APIURL:    cfg.APIURL,
		Token:     cfg.Token,
		Timeout:   cfg.Timeout,
		RateLimit: cfg.RateLimit,
	})
	logger.LogDebug(ctx, "Configuration", "url", cfg.APIURL, "schema", schema.Version(), "identity", cfg.Identity)

	return &session{
		ctx:    ctx,
		cfg:    cfg,
		schema: schema,
		client: client,
		out:    cmd.OutOrStdout(),
	}, nil
}

// close logs the API call summary and flushes the logger.
func (s *session) close() {
	s.client.Stats().Log(s.ctx)
	logger.Sync()
	logger.DeinitLogger()
}

func (s *session) printer() *output.Printer {
	return output.NewPrinter(s.out, s.cfg.Format)
}

func (s *session) catalog() (*catalog.Catalog, error) {
	return catalog.Fetch(s.ctx, s.client, s.schema)
}

// resolve fetches the catalog and resolves the configured identity against it.
func (s *session) resolve() (*catalog.Catalog, *resolver.RequestIdentity, error) {
	cat, err := s.catalog()
	if err != nil {
		return nil, nil, err
	}
	id, err := resolver.Resolve(cat, s.cfg.Identity)
	if err != nil {
		return nil, nil, err
	}
	logger.LogDebug(s.ctx, "Resolved identity", "identity", id)
	return cat, id, nil
}

func readIdentity(cmd *cobra.Command) config.Identity {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	return config.Identity{
		ProdID: get("prodId"),
		Prod:   get("prod"),
		EnvID:  get("envId"),
		Env:    get("env"),
		VerID:  get("verId"),
		Ver:    get("ver"),
	}
}
