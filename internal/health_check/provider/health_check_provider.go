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

package provider

import (
	"github.com/wso2/record-deduplication-service/internal/health_check/service"
	dbprovider "github.com/wso2/record-deduplication-service/internal/system/database/provider"
)

type HealthCheckProviderInterface interface {
	GetHealthCheckService() service.HealthCheckServiceInterface
}

// HealthCheckProvider builds readiness checks against one database.
type HealthCheckProvider struct {
	dbProvider dbprovider.DBProviderInterface
}

// NewHealthCheckProvider returns a provider for the configured database pool.
func NewHealthCheckProvider() HealthCheckProviderInterface {
	return NewHealthCheckProviderFor(dbprovider.NewDBProvider())
}

// NewHealthCheckProviderFor returns a provider checking the given database.
func NewHealthCheckProviderFor(dbProvider dbprovider.DBProviderInterface) HealthCheckProviderInterface {
	return &HealthCheckProvider{dbProvider: dbProvider}
}

func (p *HealthCheckProvider) GetHealthCheckService() service.HealthCheckServiceInterface {
	return service.NewHealthCheckService(p.dbProvider)
}
