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

var rootCmd = &cobra.Command{
	Use:   "lynk",
	Short: "Interlynk command line tool",
	Long: `lynk lists products and versions, uploads SBOMs and downloads SBOMs
from the Interlynk platform.

The security token is read from --token or INTERLYNK_SECURITY_TOKEN and the
API endpoint from INTERLYNK_API_URL.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Verbose output, repeat for more detail")
	rootCmd.PersistentFlags().String("token", "", "Security token (default $INTERLYNK_SECURITY_TOKEN)")
	rootCmd.PersistentFlags().String("api-schema", "", "API schema generation (v1, v2)")
	rootCmd.PersistentFlags().Float64("api-rate", 0, "Maximum API requests per second, 0 for unlimited")
	_ = rootCmd.PersistentFlags().MarkHidden("api-schema")
	_ = rootCmd.PersistentFlags().MarkHidden("api-rate")
}

func addProductFlags(cmd *cobra.Command) {
	cmd.Flags().String("prod", "", "Product name")
	cmd.Flags().String("prodId", "", "Product ID")
	cmd.Flags().String("env", "", "Environment name (default \"default\")")
	cmd.Flags().String("envId", "", "Environment ID")
}

func addVersionFlags(cmd *cobra.Command) {
	cmd.Flags().String("ver", "", "Version")
	cmd.Flags().String("verId", "", "Version ID")
	cmd.MarkFlagsMutuallyExclusive("ver", "verId")
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "JSON formatted (default)")
	cmd.Flags().Bool("table", false, "Table formatted")
	cmd.MarkFlagsMutuallyExclusive("json", "table")
}
