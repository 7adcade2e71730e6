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
	"github.com/interlynk-io/lynk/pkg/ciinfo"
	"github.com/interlynk-io/lynk/pkg/config"
	"github.com/interlynk-io/lynk/pkg/logger"
	"github.com/interlynk-io/lynk/pkg/upload"
	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload SBOM",
	Long: `Upload an SBOM file to a product environment. Transport failures,
rate limiting and server errors are retried with exponential backoff
(1s, 2s, 4s, ...). Authentication and other client errors are not retried.`,
	Example: `  lynk upload --prod my-product --sbom sbom.cdx.json
  lynk upload --prod my-product --env production --sbom sbom.spdx.json --retries 5`,
	Args: cobra.NoArgs,
	RunE: uploadSBOM,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	addProductFlags(uploadCmd)
	uploadCmd.Flags().String("sbom", "", "SBOM path")
	uploadCmd.Flags().Int("retries", config.DefaultRetries, "Number of upload retries")
	_ = uploadCmd.MarkFlagRequired("sbom")
	uploadCmd.MarkFlagsOneRequired("prod", "prodId")
}

func uploadSBOM(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, func(cfg *config.Config) error {
		cfg.Upload.SBOMPath, _ = cmd.Flags().GetString("sbom")
		cfg.Upload.Retries, _ = cmd.Flags().GetInt("retries")
		return nil
	})
	if err != nil {
		return err
	}
	defer s.close()

	id := s.cfg.Identity
	req := upload.Request{
		SBOMPath: s.cfg.Upload.SBOMPath,
		ProdID:   id.ProdID,
		Prod:     id.Prod,
		EnvID:    id.EnvID,
		Env:      id.Env,
	}

	// Legacy servers only accept an environment id.
	if !s.schema.Capabilities().NameBasedUpload {
		_, rid, err := s.resolve()
		if err != nil {
			return err
		}
		req.ProdID, req.Prod, req.EnvID, req.Env = rid.ProdID, rid.Prod, rid.EnvID, rid.Env
	}

	u := upload.New(s.client, s.schema,
		upload.WithRetryPolicy(upload.DefaultRetryPolicy(s.cfg.Upload.Retries)),
		upload.WithOutput(s.out),
		upload.WithCIInfo(ciinfo.FromEnvironment()),
	)

	result, err := u.Upload(s.ctx, req)
	if err != nil {
		return err
	}
	logger.LogDebug(s.ctx, "Upload finished", "attempts", result.Attempts, "format", result.Format)
	return nil
}
