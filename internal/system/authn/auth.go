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

package authn

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	errors2 "github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

var hmacMethods = []string{"HS256", "HS384", "HS512"}

// ValidateAuthenticationAndReturnClaims validates a bearer token and returns its claims.
// With auth.jwt_secret set the HMAC signature is verified; otherwise the token is expected
// to have been verified by the gateway in front of the service.
func ValidateAuthenticationAndReturnClaims(token string) (map[string]interface{}, error) {

	logger := log.GetLogger()
	if strings.Count(token, ".") != 2 {
		logger.Debug("Expecting a JWT token but received an opaque token.")
		return nil, unauthorizedError()
	}

	authConfig := config.GetDDSRuntime().Config.Auth
	var claims map[string]interface{}
	var err error
	if authConfig.JWTSecret != "" {
		claims, err = verifyJWT(token, []byte(authConfig.JWTSecret))
	} else {
		claims, err = ParseJWTClaims(token)
	}
	if err != nil {
		return nil, unauthorizedError()
	}

	if !validateClaims(authConfig.Audience, claims) {
		return nil, unauthorizedError()
	}
	return claims, nil
}

func verifyJWT(tokenString string, secret []byte) (map[string]interface{}, error) {

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods(hmacMethods))
	if err != nil {
		log.GetLogger().Debug("JWT signature verification failed.", log.Error(err))
		return nil, err
	}
	return claims, nil
}

// ParseJWTClaims parses claims from a JWT without verifying the signature
func ParseJWTClaims(tokenString string) (map[string]interface{}, error) {

	logger := log.GetLogger()
	claims := jwt.MapClaims{}
	_, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims)
	if err != nil {
		errMsg := "Error occurred when parsing claims from JWT token."
		logger.Debug(errMsg, log.Error(err))
		serverError := errors2.NewServerError(errors2.ErrorMessage{
			Code:        errors2.PARSING_ERROR.Code,
			Message:     errors2.PARSING_ERROR.Message,
			Description: errMsg,
		}, err)
		return nil, serverError
	}
	return claims, nil
}

// validateClaims checks the expiry and, when an audience is configured, the `aud` claim.
func validateClaims(expectedAudience string, claims map[string]interface{}) bool {

	logger := log.GetLogger()
	expRaw, ok := claims["exp"]
	if !ok {
		logger.Debug("Token does not have an expiration time.")
		return false
	}
	expFloat, ok := expRaw.(float64)
	if !ok {
		logger.Debug("Token does not have a valid expiration time.", log.Any("exp", expRaw))
		return false
	}
	expUnix := int64(expFloat)
	if expUnix < time.Now().Unix() {
		logger.Debug("Token has expired.", log.String("exp", time.Unix(expUnix, 0).String()))
		return false
	}

	if expectedAudience == "" {
		return true
	}
	audRaw, ok := claims["aud"]
	if !ok {
		logger.Debug("Token does not have an audience claim.")
		return false
	}

	var audList []string
	switch aud := audRaw.(type) {
	case []interface{}:
		for _, a := range aud {
			if s, ok := a.(string); ok {
				audList = append(audList, s)
			}
		}
	case string:
		audList = append(audList, aud)
	}

	for _, aud := range audList {
		if aud == expectedAudience {
			return true
		}
	}
	logger.Debug("Token audience does not match expected audience.")
	return false
}

// GetUserIDFromClaims returns the `sub` claim.
func GetUserIDFromClaims(claims map[string]interface{}) string {

	if sub, ok := claims["sub"].(string); ok {
		return sub
	}
	return ""
}

// GetUserIDFromRequest extracts the subject from the bearer token of an already
// authenticated request. It returns an empty string when no token is present.
func GetUserIDFromRequest(r *http.Request) string {

	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	claims, err := ParseJWTClaims(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return ""
	}
	return GetUserIDFromClaims(claims)
}

func unauthorizedError() error {
	return errors2.NewClientError(errors2.ErrorMessage{
		Code:        errors2.UN_AUTHORIZED.Code,
		Message:     errors2.UN_AUTHORIZED.Message,
		Description: errors2.UN_AUTHORIZED.Description,
	}, http.StatusUnauthorized)
}
