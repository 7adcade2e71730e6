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
	"fmt"

	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/download"
	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/output"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download SBOM",
	Long: `Download an SBOM by version id, or by product, environment and version
name. With only --prod and --ver the version is looked up in the "default"
environment.

The SBOM is written to --output, to the filename suggested by the server, or
to stdout. --output also accepts s3://bucket/key.`,
	Example: `  lynk download --verId 1a2b... --output sbom.json
  lynk download --prod my-product --env default --ver 1.2.3 --vuln true
  lynk download --prod my-product --ver 1.2.3 --spec SPDX --output s3://my-bucket/sboms/1.2.3.spdx.json`,
	Args: cobra.NoArgs,
	RunE: downloadSBOM,
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	addProductFlags(downloadCmd)
	addVersionFlags(downloadCmd)

	f := downloadCmd.Flags()
	f.String("output", "", "Output file or s3://bucket/key")
	f.String("vuln", "", "Include vulnerabilities (true, false, 1, 0, yes, no)")
	f.String("spec", "", "SBOM specification (SPDX or CycloneDX)")
	f.String("spec-version", "", "SBOM specification version")
	f.Bool("lite", false, "Download lite SBOM")
	f.Bool("dont-package-sbom", false, "Don't package SBOM")
	f.Bool("original", false, "Download original SBOM")
	f.Bool("exclude-parts", false, "Exclude parts from SBOM")
	f.Bool("include-support-status", false, "Include support status")
	f.Bool("support-level-only", false, "Download support levels only (CSV)")

	f.String("s3-region", "", "AWS region for s3:// output")
	f.String("s3-access-key", "", "AWS access key for s3:// output")
	f.String("s3-secret-key", "", "AWS secret key for s3:// output")
	downloadCmd.MarkFlagsRequiredTogether("s3-access-key", "s3-secret-key")
}

func readDownloadOptions(cmd *cobra.Command) config.DownloadOptions {
	f := cmd.Flags()
	str := func(name string) string {
		v, _ := f.GetString(name)
		return v
	}
	flag := func(name string) bool {
		v, _ := f.GetBool(name)
		return v
	}

	return config.DownloadOptions{
		Output:               str("output"),
		Vuln:                 str("vuln"),
		Spec:                 str("spec"),
		SpecVersion:          str("spec-version"),
		Lite:                 flag("lite"),
		DontPackageSBOM:      flag("dont-package-sbom"),
		Original:             flag("original"),
		ExcludeParts:         flag("exclude-parts"),
		IncludeSupportStatus: flag("include-support-status"),
		SupportLevelOnly:     flag("support-level-only"),
		S3: config.S3Options{
			Region:    str("s3-region"),
			AccessKey: str("s3-access-key"),
			SecretKey: str("s3-secret-key"),
		},
	}
}

// directDownload reports whether the server can locate the SBOM without a
// catalog lookup.
func directDownload(id config.Identity) bool {
	return id.VerID != "" || (id.Prod != "" && id.Env != "" && id.Ver != "")
}

func downloadSBOM(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, func(cfg *config.Config) error {
		cfg.Download = readDownloadOptions(cmd)
		id := cfg.Identity
		if !directDownload(id) && (id.Ver == "" || (id.Prod == "" && id.ProdID == "")) {
			return download.ErrMissingVersion
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer s.close()

	id := s.cfg.Identity
	req := download.Request{Options: s.cfg.Download}

	if s.schema.Capabilities().NameBasedDownload && directDownload(id) {
		req.VerID, req.EnvID = id.VerID, id.EnvID
		req.Prod, req.Env, req.Ver = id.Prod, id.Env, id.Ver
	} else {
		_, rid, err := s.resolve()
		if err != nil {
			return err
		}
		req.EnvID, req.VerID = rid.EnvID, rid.VerID
	}

	art, err := download.New(s.client, s.schema).Download(s.ctx, req)
	if err != nil {
		return fmt.Errorf("Failed to fetch SBOM: %w", err)
	}

	sink, err := output.WriteArtifact(s.ctx, art, s.cfg.Download, s.out)
	if err != nil {
		return err
	}
	logger.LogDebug(s.ctx, "Download finished", "target", sink.String(), "filename", art.Filename)
	return nil
}
