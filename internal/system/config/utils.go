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

package config

import (
	"os"
	"path"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// DefaultConfigFile is the deployment file location relative to the service home.
const DefaultConfigFile = "repository/conf/deployment.yaml"

// LoadConfig reads the YAML deployment file, expands environment references and applies defaults.
func LoadConfig(ddsHome, filePath string) (*Config, error) {
	file, err := os.ReadFile(path.Join(ddsHome, filePath))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", filePath)
	}

	expanded := os.ExpandEnv(string(file))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// LoadEnvFiles loads every .env file in the config directory of the service home.
// Variables already present in the environment are not overwritten.
func LoadEnvFiles(ddsHome string) ([]string, error) {
	envFiles, err := filepath.Glob(filepath.Join(ddsHome, "config", "*.env"))
	if err != nil {
		return nil, err
	}
	if len(envFiles) == 0 {
		return nil, nil
	}
	return envFiles, godotenv.Load(envFiles...)
}

// OverrideDDSRuntime replaces the runtime configuration. Intended for tests and tools.
func OverrideDDSRuntime(conf Config) {
	conf.ApplyDefaults()
	mu.Lock()
	defer mu.Unlock()
	runtimeConfig = &DDSRuntime{
		Config: conf,
	}
}
