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
	"github.com/spf13/cobra"
)

var prodsCmd = &cobra.Command{
	Use:   "prods",
	Short: "List products",
	Long:  `List every product of the organization with its id, version count and last update time.`,
	Example: `  lynk prods --table
  INTERLYNK_SECURITY_TOKEN=lynk_... lynk prods --json`,
	Args: cobra.NoArgs,
	RunE: listProducts,
}

func init() {
	rootCmd.AddCommand(prodsCmd)
	addFormatFlags(prodsCmd)
}

func listProducts(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	cat, err := s.catalog()
	if err != nil {
		return err
	}
	return s.printer().Products(cat.Summaries())
}
