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
	"github.com/interlynk-io/lynk/pkg/download"
	"github.com/interlynk-io/lynk/pkg/resolver"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "SBOM status",
	Long: `Show the processing status of one SBOM version: checks, policy,
labeling, automation and vulnerability scan.`,
	Example: `  lynk status --prod my-product --ver 1.2.3 --table
  lynk status --prodId 7d0c... --verId 1a2b...`,
	Args: cobra.NoArgs,
	RunE: showStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	addProductFlags(statusCmd)
	addVersionFlags(statusCmd)
	addFormatFlags(statusCmd)
	statusCmd.MarkFlagsOneRequired("prod", "prodId")
	statusCmd.MarkFlagsOneRequired("ver", "verId")
}

func showStatus(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	_, id, err := s.resolve()
	if err != nil {
		return err
	}
	if !id.HasVersion() {
		return resolver.ErrVersionNotFound
	}
	return s.printer().Status(download.StatusFor(id.VerStatus))
}
