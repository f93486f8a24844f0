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

package authz

import (
	"fmt"
	"slices"
	"strings"

	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

// ValidatePermission checks that the granted scopes contain every scope required for the
// operation. An operation without an entry in auth.required_scopes requires a scope with
// the operation's own name.
func ValidatePermission(scopeStr string, operation string) bool {

	logger := log.GetLogger()
	if scopeStr == "" {
		logger.Debug(fmt.Sprintf("No scopes provided for operation: %s", operation))
		return false
	}

	expectedScopes, ok := config.GetDDSRuntime().Config.Auth.RequiredScopes[operation]
	if !ok || len(expectedScopes) == 0 {
		expectedScopes = []string{operation}
	}

	grantedScopes := strings.Fields(scopeStr)
	for _, expected := range expectedScopes {
		if !slices.Contains(grantedScopes, expected) {
			logger.Debug(fmt.Sprintf("Missing scope '%s' for operation: %s", expected, operation))
			return false
		}
	}
	return true
}
