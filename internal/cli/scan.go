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
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
)

// ScanOptions holds the scan command flags.
type ScanOptions struct {
	DatasetID int64
	Limit     int
	Workers   int
	Resume    bool
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a dataset for duplicate pairs",
		Long: `Compare every pair of records in a dataset and store the matched pairs as
pending duplicate candidates. Pairs that already have a candidate are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.DatasetID, "dataset", 0, "dataset to scan")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many new candidates (0 means no limit)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "number of scan shards (default from configuration)")
	cmd.Flags().BoolVar(&opts.Resume, "resume", false, "continue from the stored checkpoint")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runScan(rootOpts *RootOptions, opts *ScanOptions, cmd *cobra.Command) error {
	if opts.DatasetID <= 0 {
		return fmt.Errorf("--dataset must be a positive id")
	}
	if opts.Limit < 0 || opts.Workers < 0 {
		return fmt.Errorf("--limit and --workers must not be negative")
	}
	if rootOpts.Runtime.Duplicates == nil {
		return fmt.Errorf("duplicate service is not available")
	}

	result, err := rootOpts.Runtime.Duplicates().ScanDatasetForDuplicates(cmd.Context(), opts.DatasetID,
		model.ScanOptions{Limit: opts.Limit, Workers: opts.Workers, Resume: opts.Resume})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
