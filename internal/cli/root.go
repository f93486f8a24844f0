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

// Package cli implements the dedupectl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/wso2/record-deduplication-service/internal/duplicates/model"
	dupservice "github.com/wso2/record-deduplication-service/internal/duplicates/service"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/database/migrations"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

// DuplicateRunner is the part of the duplicate service the commands drive.
type DuplicateRunner interface {
	ScanDatasetForDuplicates(ctx context.Context, datasetID int64, opts model.ScanOptions) (*model.ScanResult, error)
	Check(ctx context.Context, tenantID string, datasetID int64, req model.CheckRequest) (*model.CheckResponse, error)
}

// Runtime wires the commands to configuration, the database and the duplicate service.
type Runtime struct {
	Setup      func(home string) error
	Migrate    func(ctx context.Context, opts migrations.Options) (*migrations.Result, error)
	Duplicates func() DuplicateRunner
	Teardown   func()
}

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Home    string
	Runtime Runtime
}

// NewRootCommand creates the dedupectl root command backed by the configured database.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWithRuntime(DefaultRuntime())
}

// NewRootCommandWithRuntime creates the root command with the given runtime.
func NewRootCommandWithRuntime(runtime Runtime) *cobra.Command {
	opts := &RootOptions{Runtime: runtime}

	cmd := &cobra.Command{
		Use:           "dedupectl",
		Short:         "Operate the record deduplication service",
		Long:          "Run schema migrations, duplicate scans and duplicate checks against the deduplication database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Runtime.Setup == nil {
				return nil
			}
			return opts.Runtime.Setup(opts.Home)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Runtime.Teardown != nil {
				opts.Runtime.Teardown()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Home, "home", defaultHome(),
		"service home directory holding repository/conf/deployment.yaml")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

// DefaultRuntime loads the deployment configuration and uses the shared database pool.
func DefaultRuntime() Runtime {
	return Runtime{
		Setup: func(home string) error {
			if _, err := config.LoadEnvFiles(home); err != nil {
				return err
			}
			ddsConfig, err := config.LoadConfig(home, config.DefaultConfigFile)
			if err != nil {
				return err
			}
			if err := config.InitializeDDSRuntime(home, ddsConfig); err != nil {
				return err
			}
			return log.InitWithFormat(ddsConfig.Log.LogLevel, ddsConfig.Log.Format)
		},
		Migrate: func(ctx context.Context, opts migrations.Options) (*migrations.Result, error) {
			dbClient, err := provider.NewDBProvider().GetDBClient()
			if err != nil {
				return nil, err
			}
			if opts.MigrationsTable == "" {
				opts.MigrationsTable = config.GetDDSRuntime().Config.DataSource.MigrationsTable
			}
			return migrations.Run(ctx, dbClient.DB(), opts)
		},
		Duplicates: func() DuplicateRunner {
			return dupservice.GetDuplicateService()
		},
		Teardown: func() {
			_ = provider.ClosePool()
		},
	}
}

func defaultHome() string {
	if home := os.Getenv("DDS_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
