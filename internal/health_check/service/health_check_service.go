/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
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

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

const readinessTimeout = 3 * time.Second

// HealthCheckServiceInterface defines the service interface.
type HealthCheckServiceInterface interface {
	CheckReadiness(ctx context.Context) error
}

// HealthCheckService is the default implementation.
type HealthCheckService struct {
	dbProvider provider.DBProviderInterface
}

func NewHealthCheckService(dbProvider provider.DBProviderInterface) *HealthCheckService {
	return &HealthCheckService{dbProvider: dbProvider}
}

// CheckReadiness reports whether the database answers a trivial query.
func (h *HealthCheckService) CheckReadiness(ctx context.Context) error {

	if log.GetLogger() == nil {
		return errors.New("logger not initialized")
	}
	dbClient, err := h.dbProvider.GetDBClient()
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()
	if _, err := dbClient.ExecuteQueryContext(ctx, "SELECT 1;"); err != nil {
		return fmt.Errorf("database connectivity check failed: %v", err)
	}
	return nil
}
