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

package pagination

import (
	"fmt"
	"net/http"
	"strconv"
)

const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Normalize applies the defaults and caps the page size.
func (p PageRequest) Normalize() PageRequest {

	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// ParsePage reads `page` and `per_page` from the query string. `limit` is accepted as an
// alias of `per_page`.
func ParsePage(r *http.Request) (PageRequest, error) {

	req := PageRequest{Page: 1, PerPage: DefaultPerPage}
	query := r.URL.Query()

	if p := query.Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v <= 0 {
			return PageRequest{}, fmt.Errorf("invalid page")
		}
		req.Page = v
	}

	raw := query.Get("per_page")
	if raw == "" {
		raw = query.Get("limit")
	}
	if raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return PageRequest{}, fmt.Errorf("invalid per_page")
		}
		req.PerPage = v
	}

	return req.Normalize(), nil
}
