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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSON(t *testing.T) {
	t.Cleanup(func() { _ = Init("ERROR") })

	out := &bytes.Buffer{}
	require.NoError(t, Configure(out, "debug", "JSON"))
	GetLogger().With(String("dataset", "contacts")).Info("Scan finished", Int("candidates", 3),
		Error(errors.New("boom")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &entry))
	assert.Equal(t, "Scan finished", entry["msg"])
	assert.Equal(t, serviceName, entry["service"])
	assert.Equal(t, "contacts", entry["dataset"])
	assert.Equal(t, float64(3), entry["candidates"])
	assert.True(t, GetLogger().DebugEnabled())
}

func TestConfigure_LevelFilters(t *testing.T) {
	t.Cleanup(func() { _ = Init("ERROR") })

	out := &bytes.Buffer{}
	require.NoError(t, Configure(out, "WARN", ""))
	GetLogger().Info("hidden")
	GetLogger().Warn("shown")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown")
	assert.False(t, GetLogger().DebugEnabled())
}

func TestConfigure_Rejections(t *testing.T) {
	assert.Error(t, Configure(&bytes.Buffer{}, "LOUD", FormatText))
	assert.Error(t, Configure(&bytes.Buffer{}, "INFO", "xml"))
}

func TestParseLogLevel_EmptyIsInfo(t *testing.T) {
	level, err := parseLogLevel(" ")
	require.NoError(t, err)
	assert.Equal(t, "INFO", level.String())
}
