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

package client

import (
	"context"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

const uniqueViolationCode = "23505"

// RunInTransaction runs fn inside one transaction on dbClient. The transaction is committed
// when fn returns nil and rolled back when fn returns an error or panics.
func RunInTransaction(ctx context.Context, dbClient DBClientInterface, fn func(tx Executor) error) (err error) {

	tx, err := dbClient.BeginTx(ctx)
	if err != nil {
		return errors.Wrap(err, "error while beginning transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.GetLogger().Error("Error while rolling back transaction", log.Error(rbErr))
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "error while committing transaction")
	}
	return nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool {

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}
