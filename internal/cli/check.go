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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		datasetID int64
		excludeID int64
		rawFields string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check candidate field values for duplicates",
		Long: `Compare a JSON object of field values against the records of a dataset and
print the ranked matches.`,
		Example: `  dedupectl check --dataset 1 --fields '{"name": "Jon Smith", "email": "jon@acme.com"}'`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetID <= 0 {
				return fmt.Errorf("--dataset must be a positive id")
			}
			fields, err := parseFields(rawFields)
			if err != nil {
				return err
			}
			if rootOpts.Runtime.Duplicates == nil {
				return fmt.Errorf("duplicate service is not available")
			}
			response, err := rootOpts.Runtime.Duplicates().Check(cmd.Context(), "", datasetID,
				model.CheckRequest{Fields: fields, ExcludeID: excludeID})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), response)
		},
	}

	cmd.Flags().Int64Var(&datasetID, "dataset", 0, "dataset to check against")
	cmd.Flags().StringVar(&rawFields, "fields", "", "field values as a JSON object")
	cmd.Flags().Int64Var(&excludeID, "exclude", 0, "record id to leave out of the comparison")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("fields")

	return cmd
}

func parseFields(raw string) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewBufferString(raw))
	decoder.UseNumber()
	var fields map[string]interface{}
	if err := decoder.Decode(&fields); err != nil {
		return nil, fmt.Errorf("--fields must be a JSON object: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("--fields must not be empty")
	}
	return fields, nil
}
