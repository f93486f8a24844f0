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

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorMessage struct {
	Code        string `json:"error_code"`
	Message     string `json:"error_message"`
	Description string `json:"error_description"`
	TraceID     string `json:"trace_id,omitempty"`
}

// ClientError is returned for problems the caller can fix: validation (400),
// not-found (404) and conflict (409).
type ClientError struct {
	ErrorMessage
	StatusCode int
}

// ServerError is returned for storage or infrastructure failures.
type ServerError struct {
	ErrorMessage
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func NewServerError(msg ErrorMessage, cause error) *ServerError {
	return &ServerError{
		ErrorMessage: msg,
		Err:          cause,
	}
}

func NewClientError(msg ErrorMessage, code int) *ClientError {
	return &ClientError{
		ErrorMessage: msg,
		StatusCode:   code,
	}
}

// NewValidationError builds a 400 client error with the given description.
func NewValidationError(msg ErrorMessage, description string) *ClientError {
	msg.Description = description
	return NewClientError(msg, http.StatusBadRequest)
}

// NewNotFoundError builds a 404 client error. The message's own description is kept when
// description is empty.
func NewNotFoundError(msg ErrorMessage, description string) *ClientError {
	if description != "" {
		msg.Description = description
	}
	return NewClientError(msg, http.StatusNotFound)
}

// NewConflictError builds a 409 client error with the given description.
func NewConflictError(msg ErrorMessage, description string) *ClientError {
	if description != "" {
		msg.Description = description
	}
	return NewClientError(msg, http.StatusConflict)
}

// StatusOf returns the HTTP status carried by err: the client status for a ClientError,
// 500 for anything else, 0 for nil.
func StatusOf(err error) int {
	if err == nil {
		return 0
	}
	var clientError *ClientError
	if errors.As(err, &clientError) {
		return clientError.StatusCode
	}
	return http.StatusInternalServerError
}
