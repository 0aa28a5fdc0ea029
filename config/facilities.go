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

	"github.com/fallinsky/systemd/facility"
	"gopkg.in/yaml.v3"
)

type facilityV1 struct {
	Name     string `yaml:"name"`
	Unit     string `yaml:"unit"`
	Relation string `yaml:"relation"`
}

type facilitiesV1 struct {
	Facilities []facilityV1 `yaml:"facilities"`
}

type facilitiesV1Parser struct{}

func init() {
	addParser("facilities", "v1", &facilitiesV1Parser{})
	registerSubDir("facilities.d", []string{"facilities"})
}

func (p *facilitiesV1Parser) parse(config *Config, raw []byte) error {
	var fs facilitiesV1
	if err := yaml.Unmarshal(raw, &fs); err != nil {
		return err
	}
	if len(fs.Facilities) == 0 {
		return fmt.Errorf("no facilities specified")
	}

	for _, f := range fs.Facilities {
		if f.Name == "" || f.Name == facility.Prefix {
			return fmt.Errorf("facility without name")
		}
		rel, err := facility.ParseRelation(f.Relation)
		if err != nil {
			return err
		}
		if rel != facility.None && f.Unit == "" {
			return fmt.Errorf("facility %q needs a unit for relation %q", f.Name, rel)
		}
		name := f.Name
		if !facility.IsFacility(name) {
			name = facility.Prefix + name
		}
		if _, ok := config.Facilities.Lookup(name); ok {
			// defined more than once in the same directory
			return fmt.Errorf("facility %q is already specified", name)
		}
		config.Facilities.Set(name, facility.Entry{Unit: f.Unit, Relation: rel})
	}
	return nil
}
