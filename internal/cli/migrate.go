/*
 * Copyright (c) 2026, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wso2/record-deduplication-service/internal/system/database/migrations"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var version uint

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema migrations",
		Long: `Apply the embedded schema migrations to the configured database.

Without --version the schema is migrated to the latest version. An up-to-date
schema is not an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if rootOpts.Runtime.Migrate == nil {
				return fmt.Errorf("migrations are not available")
			}
			result, err := rootOpts.Runtime.Migrate(cmd.Context(), migrations.Options{Version: version})
			if err != nil {
				return err
			}
			if !result.Changed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema already at version %d\n", result.CurrentVersion)
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema migrated from version %d to %d\n",
				result.PreviousVersion, result.CurrentVersion)
			return err
		},
	}

	cmd.Flags().UintVar(&version, "version", 0, "target schema version (default latest)")

	return cmd
}
