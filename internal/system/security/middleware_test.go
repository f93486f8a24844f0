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

package security

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/record-deduplication-service/internal/system/authn"
	"github.com/wso2/record-deduplication-service/internal/system/config"
	"github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

const testSecret = "test-secret"

func TestMain(m *testing.M) {
	_ = log.Init("ERROR")
	os.Exit(m.Run())
}

func useAuthConfig(auth config.AuthConfig) {
	config.OverrideDDSRuntime(config.Config{Auth: auth})
}

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func requestWithToken(token string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/datasets/1/duplicates", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

func validClaims(scope string) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   "alice",
		"aud":   "dds",
		"scope": scope,
		"exp":   float64(time.Now().Add(time.Hour).Unix()),
	}
}

func TestAuthnAndAuthz_ValidToken(t *testing.T) {
	useAuthConfig(config.AuthConfig{JWTSecret: testSecret, Audience: "dds"})
	r := requestWithToken(signToken(t, validClaims("duplicates:view duplicates:merge"), testSecret))

	require.NoError(t, AuthnAndAuthz(r, "duplicates:merge"))
	assert.Equal(t, "alice", authn.GetUserIDFromRequest(r))
}

func TestAuthnAndAuthz_RequiredScopesFromConfig(t *testing.T) {
	useAuthConfig(config.AuthConfig{
		JWTSecret:      testSecret,
		RequiredScopes: map[string][]string{"duplicates:merge": {"dds_admin"}},
	})

	r := requestWithToken(signToken(t, validClaims("duplicates:merge"), testSecret))
	assert.Equal(t, http.StatusForbidden, errors.StatusOf(AuthnAndAuthz(r, "duplicates:merge")))

	r = requestWithToken(signToken(t, validClaims("dds_admin"), testSecret))
	assert.NoError(t, AuthnAndAuthz(r, "duplicates:merge"))
}

func TestAuthnAndAuthz_Rejects(t *testing.T) {
	useAuthConfig(config.AuthConfig{JWTSecret: testSecret, Audience: "dds"})

	expired := validClaims("duplicates:view")
	expired["exp"] = float64(time.Now().Add(-time.Minute).Unix())
	wrongAudience := validClaims("duplicates:view")
	wrongAudience["aud"] = "other"

	cases := map[string]struct {
		token  string
		status int
	}{
		"missing header": {"", http.StatusUnauthorized},
		"opaque token":   {"abc", http.StatusUnauthorized},
		"bad signature":  {signToken(t, validClaims("duplicates:view"), "other-secret"), http.StatusUnauthorized},
		"expired":        {signToken(t, expired, testSecret), http.StatusUnauthorized},
		"wrong audience": {signToken(t, wrongAudience, testSecret), http.StatusUnauthorized},
		"missing scope":  {signToken(t, validClaims("records:view"), testSecret), http.StatusForbidden},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := AuthnAndAuthz(requestWithToken(tc.token), "duplicates:view")
			assert.Equal(t, tc.status, errors.StatusOf(err))
		})
	}
}

func TestAuthnAndAuthz_Disabled(t *testing.T) {
	useAuthConfig(config.AuthConfig{Disabled: true})
	assert.NoError(t, AuthnAndAuthz(requestWithToken(""), "duplicates:merge"))
}

func TestAuthnAndAuthz_ScopeListClaim(t *testing.T) {
	useAuthConfig(config.AuthConfig{JWTSecret: testSecret})

	claims := validClaims("")
	delete(claims, "scope")
	claims["scp"] = []interface{}{"duplicates:view", "duplicates:merge"}
	r := requestWithToken(signToken(t, claims, testSecret))

	assert.NoError(t, AuthnAndAuthz(r, "duplicates:merge"))
	assert.Equal(t, http.StatusForbidden, errors.StatusOf(AuthnAndAuthz(r, "records:manage")))
}
