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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage_Defaults(t *testing.T) {
	req, err := ParsePage(httptest.NewRequest("GET", "/candidates", nil))
	require.NoError(t, err)
	assert.Equal(t, PageRequest{Page: 1, PerPage: DefaultPerPage}, req)
	assert.Equal(t, 0, req.Offset())
}

func TestParsePage_CapsPerPage(t *testing.T) {
	req, err := ParsePage(httptest.NewRequest("GET", "/candidates?page=3&per_page=1000", nil))
	require.NoError(t, err)
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, MaxPerPage, req.PerPage)
	assert.Equal(t, 400, req.Offset())
}

func TestParsePage_LimitAlias(t *testing.T) {
	req, err := ParsePage(httptest.NewRequest("GET", "/candidates?limit=7", nil))
	require.NoError(t, err)
	assert.Equal(t, 7, req.PerPage)
}

func TestParsePage_Invalid(t *testing.T) {
	for _, q := range []string{"page=0", "page=x", "per_page=-1", "limit=abc"} {
		_, err := ParsePage(httptest.NewRequest("GET", "/candidates?"+q, nil))
		assert.Error(t, err, q)
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2}, 41, PageRequest{Page: 2, PerPage: 20})
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, int64(41), page.Total)

	empty := NewPage[int](nil, 0, PageRequest{Page: 1, PerPage: 20})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 1, empty.LastPage)
}
