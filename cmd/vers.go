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

	"github.com/spf13/cobra"
)

var versCmd = &cobra.Command{
	Use:   "vers",
	Short: "List versions",
	Long: `List the SBOM versions of a product environment. The environment
defaults to "default".`,
	Example: `  lynk vers --prod my-product --table
  lynk vers --prod my-product --env production`,
	Args: cobra.NoArgs,
	RunE: listVersions,
}

func init() {
	rootCmd.AddCommand(versCmd)
	addProductFlags(versCmd)
	addFormatFlags(versCmd)
	versCmd.MarkFlagsOneRequired("prod", "prodId")
}

func listVersions(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	cat, id, err := s.resolve()
	if err != nil {
		return err
	}

	versions, _ := cat.Versions(id.ProdID, id.EnvID)
	if len(versions) == 0 {
		_, err := fmt.Fprintln(s.out, "No versions found")
		return err
	}
	return s.printer().Versions(versions)
}
