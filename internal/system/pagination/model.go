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

// Page is one page of a list result.
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PerPage  int   `json:"per_page"`
	LastPage int   `json:"last_page"`
}

// NewPage builds a page, computing the last page number from total. An empty result still
// reports one page.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {

	if items == nil {
		items = []T{}
	}
	lastPage := 1
	if req.PerPage > 0 && total > 0 {
		lastPage = int((total + int64(req.PerPage) - 1) / int64(req.PerPage))
	}
	return Page[T]{
		Items:    items,
		Total:    total,
		Page:     req.Page,
		PerPage:  req.PerPage,
		LastPage: lastPage,
	}
}
