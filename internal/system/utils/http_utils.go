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

package utils

import (
	"context"
	"encoding/json"
	"errors" // Standard Go errors package
	"net/http"
	"strconv"
	"strings"

	"github.com/wso2/record-deduplication-service/internal/system/constants"
	ddscontext "github.com/wso2/record-deduplication-service/internal/system/context"
	customerrors "github.com/wso2/record-deduplication-service/internal/system/errors"
	"github.com/wso2/record-deduplication-service/internal/system/log"
)

// HandleError sends an HTTP error response based on the provided error
func HandleError(w http.ResponseWriter, err error) {

	var clientError *customerrors.ClientError
	if ok := errors.As(err, &clientError); ok {
		WriteErrorResponse(w, clientError)
		return
	}

	logger := log.GetLogger()
	logger.Error("Request failed with a server error", log.Error(err))

	body := customerrors.ErrorMessage{
		Code:        customerrors.INTERNAL_SERVER_ERROR.Code,
		Message:     customerrors.INTERNAL_SERVER_ERROR.Message,
		Description: customerrors.INTERNAL_SERVER_ERROR.Description,
	}
	var serverError *customerrors.ServerError
	if ok := errors.As(err, &serverError); ok {
		body.Code = serverError.Code
		body.Message = serverError.Message
		body.TraceID = serverError.TraceID
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(body)
}

func WriteErrorResponse(w http.ResponseWriter, err *customerrors.ClientError) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)

	_ = json.NewEncoder(w).Encode(err.ErrorMessage)
}

// RespondJSON writes payload as a JSON response with the given status.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}, resourceName string) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.GetLogger().Error("Failed to encode "+resourceName+" response", log.Error(err))
	}
}

// DecodeJSONBody decodes the request body into target, rejecting unknown fields. The
// returned error is a 400 client error carrying a readable description.
func DecodeJSONBody(r *http.Request, target interface{}, resourceName string) error {

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	decoder.UseNumber()
	if err := decoder.Decode(target); err != nil {
		return customerrors.NewValidationError(customerrors.BAD_REQUEST, HandleDecodeError(err, resourceName))
	}
	return nil
}

// PathInt64 parses a positive integer path value such as {datasetId}.
func PathInt64(r *http.Request, name string) (int64, error) {

	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, customerrors.NewValidationError(customerrors.BAD_REQUEST,
			"Path parameter '"+name+"' must be a positive integer.")
	}
	return id, nil
}

// ExtractTenantFromPath returns the tenant set by the tenant dispatcher.
func ExtractTenantFromPath(r *http.Request) string {

	tenant := ddscontext.GetTenant(r.Context())
	if tenant == "" {
		return constants.DefaultTenant
	}
	return tenant
}

// Rewrite `/api/v1/...` to `/t/carbon.super/api/v1/...`
func RewriteToDefaultTenant(apiBasePath string, mux *http.ServeMux, defaultTenant string) {
	mux.HandleFunc(apiBasePath+"/", func(w http.ResponseWriter, r *http.Request) {
		newPath := "/t/" + defaultTenant + r.URL.Path
		if r.URL.RawQuery != "" {
			newPath += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, newPath, http.StatusTemporaryRedirect)
	})
}

// MountTenantDispatcher serves /t/{tenant}/{apiBasePath}/... by stripping the prefix and
// handing the request to handler with the tenant and a trace id in its context.
func MountTenantDispatcher(mux *http.ServeMux, apiBasePath string, handler http.Handler) {
	mux.HandleFunc("/t/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		// Split: /t/{tenant}/api/v1/...
		parts := strings.SplitN(strings.TrimPrefix(path, "/t/"), "/", 2)
		if len(parts) != 2 || parts[0] == "" {
			http.Error(w, "Invalid tenant path format", http.StatusBadRequest)
			return
		}

		tenantID := parts[0]
		remainingPath := "/" + parts[1]
		if remainingPath != apiBasePath && !strings.HasPrefix(remainingPath, apiBasePath+"/") {
			http.Error(w, "Path must start with "+apiBasePath, http.StatusNotFound)
			return
		}

		traceID := r.Header.Get(constants.TraceIDHeader)
		if traceID == "" {
			traceID = ddscontext.GenerateTraceID()
		}
		w.Header().Set(constants.TraceIDHeader, traceID)

		ctx := ddscontext.WithTenant(r.Context(), tenantID)
		ctx = ddscontext.WithTraceID(ctx, traceID)
		r = r.WithContext(ctx)
		r.URL.Path = strings.TrimPrefix(remainingPath, apiBasePath)
		if r.URL.Path == "" {
			r.URL.Path = "/"
		}
		r.URL.RawPath = ""

		handler.ServeHTTP(w, r)
	})
}

// WithRequestContext derives a context for work that must outlive the request, keeping
// the tenant and trace id.
func WithRequestContext(r *http.Request) context.Context {

	ctx := ddscontext.WithTenant(context.Background(), ddscontext.GetTenant(r.Context()))
	return ddscontext.WithTraceID(ctx, ddscontext.GetTraceID(r.Context()))
}
