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

package security

import (
	"net/http"
	"strings"

	"github.com/wso2/record-deduplication-service/internal/system/authn"
	"github.com/wso2/record-deduplication-service/internal/system/authz"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

const bearerPrefix = "Bearer "

// AuthnAndAuthz authenticates the bearer token of r and checks that it grants the scopes of
// operation. Nothing is checked when auth.disabled is set.
func AuthnAndAuthz(r *http.Request, operation string) error {

	if config.GetDDSRuntime().Config.Auth.Disabled {
		return nil
	}

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return unauthorized("Missing or invalid Authorization header")
	}

	claims, err := authn.ValidateAuthenticationAndReturnClaims(strings.TrimPrefix(authHeader, bearerPrefix))
	if err != nil {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorType: log.InitiatorTypeUser,
			TargetType:    operation,
			ActionID:      log.ActionAuthenticationFailure,
		})
		return unauthorized("Missing or invalid Authorization header")
	}

	if !authz.ValidatePermission(grantedScopes(claims), operation) {
		log.GetLogger().Audit(log.AuditEvent{
			InitiatorID:   authn.GetUserIDFromClaims(claims),
			InitiatorType: log.InitiatorTypeUser,
			TargetType:    operation,
			ActionID:      log.ActionAuthorizationFailure,
		})
		return errors.NewClientError(errors.ErrorMessage{
			Code:        errors.FORBIDDEN.Code,
			Message:     errors.FORBIDDEN.Message,
			Description: "Do not have permission to perform this operation",
		}, http.StatusForbidden)
	}
	return nil
}

// grantedScopes joins the space separated `scope` claim with the `scp` list claim.
func grantedScopes(claims map[string]interface{}) string {

	scopes := []string{}
	if scope, ok := claims["scope"].(string); ok {
		scopes = append(scopes, scope)
	}
	if scp, ok := claims["scp"].([]interface{}); ok {
		for _, s := range scp {
			if str, ok := s.(string); ok {
				scopes = append(scopes, str)
			}
		}
	}
	return strings.Join(scopes, " ")
}

func unauthorized(description string) error {
	return errors.NewClientError(errors.ErrorMessage{
		Code:        errors.UN_AUTHORIZED.Code,
		Message:     errors.UN_AUTHORIZED.Message,
		Description: description,
	}, http.StatusUnauthorized)
}
