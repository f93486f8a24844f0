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

package store

import (
	"github.com/wso2/record-deduplication-service/internal/system/database/client"
	"github.com/wso2/record-deduplication-service/internal/system/database/provider"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

func dbClient(dbProvider provider.DBProviderInterface, storeName string) (client.DBClientInterface, error) {

	dbClient, err := dbProvider.GetDBClient()
	if err != nil {
		errorMsg := "Failed to get database client for " + storeName + "."
		log.GetLogger().Debug(errorMsg, log.Error(err))
		return nil, errors.NewServerError(errors.ErrorMessage{
			Code:        errors.DB_CLIENT_INIT.Code,
			Message:     errors.DB_CLIENT_INIT.Message,
			Description: errorMsg,
		}, err)
	}
	return dbClient, nil
}

// executor returns ex, or the pool client when ex is nil.
func executor(dbProvider provider.DBProviderInterface, ex client.Executor, storeName string) (client.Executor, error) {

	if ex != nil {
		return ex, nil
	}
	return dbClient(dbProvider, storeName)
}

func queryError(description string, err error) error {

	log.GetLogger().Debug(description, log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.EXECUTE_QUERY.Code,
		Message:     errors.EXECUTE_QUERY.Message,
		Description: description,
	}, err)
}

func corruptedError(description string, err error) error {

	log.GetLogger().Error(description, log.Error(err))
	return errors.NewServerError(errors.ErrorMessage{
		Code:        errors.DATA_CORRUPTED.Code,
		Message:     errors.DATA_CORRUPTED.Message,
		Description: description,
	}, err)
}
