// Copyright 2026 The rkt Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type pathsV1 struct {
	SysvInit  string   `yaml:"sysvinit"`
	SysvRcnd  string   `yaml:"sysvrcnd"`
	UnitPaths []string `yaml:"unitPaths"`
}

type pathsV1Parser struct{}

func init() {
	addParser("paths", "v1", &pathsV1Parser{})
	registerSubDir("paths.d", []string{"paths"})
}

func (p *pathsV1Parser) parse(config *Config, raw []byte) error {
	var paths pathsV1
	if err := yaml.Unmarshal(raw, &paths); err != nil {
		return err
	}

	for _, s := range []struct {
		name string
		val  string
		dst  *string
	}{
		{"sysvinit", paths.SysvInit, &config.Paths.SysvInit},
		{"sysvrcnd", paths.SysvRcnd, &config.Paths.SysvRcnd},
	} {
		if s.val == "" {
			continue
		}
		if *s.dst != "" {
			// defined more than once in the same directory
			return fmt.Errorf("%s path is already specified", s.name)
		}
		if err := checkAbs(s.val); err != nil {
			return err
		}
		*s.dst = s.val
	}

	if len(paths.UnitPaths) > 0 {
		if len(config.Paths.UnitPaths) > 0 {
			return fmt.Errorf("unit paths are already specified")
		}
		for _, up := range paths.UnitPaths {
			if err := checkAbs(up); err != nil {
				return err
			}
		}
		config.Paths.UnitPaths = paths.UnitPaths
	}

	return nil
}
