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

// Package config reads the generator configuration directories. Each
// directory holds per-kind subdirectories (paths.d, facilities.d) of YAML or
// JSON files; later directories override earlier ones.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fallinsky/systemd/facility"
	"github.com/hashicorp/errwrap"
	"gopkg.in/yaml.v3"
)

// Paths holds the configurable input locations. Empty fields are unset.
type Paths struct {
	SysvInit  string
	SysvRcnd  string
	UnitPaths []string
}

// Config is the merged content of the configuration directories.
type Config struct {
	Paths Paths
	// Facilities holds configured entries only, see FacilityTable.
	Facilities *facility.Table
}

// FacilityTable returns the built-in facility table with the configured
// entries applied on top.
func (c *Config) FacilityTable() *facility.Table {
	t := facility.Default()
	for _, name := range c.Facilities.Names() {
		e, _ := c.Facilities.Lookup(name)
		t.Set(name, e)
	}
	return t
}

type configParser interface {
	parse(config *Config, raw []byte) error
}

var (
	parsersForKind = make(map[string]map[string]configParser)
	subdirKinds    = make(map[string][]string)
)

func addParser(kind, version string, parser configParser) {
	if _, err := getParser(kind, version); err == nil {
		panic(fmt.Sprintf("A parser for kind %q and version %q already exist", kind, version))
	}
	if _, ok := parsersForKind[kind]; !ok {
		parsersForKind[kind] = make(map[string]configParser)
	}
	parsersForKind[kind][version] = parser
}

func registerSubDir(dir string, kinds []string) {
	if _, ok := subdirKinds[dir]; ok {
		panic(fmt.Sprintf("Subdirectory %q is already registered", dir))
	}
	subdirKinds[dir] = kinds
}

// GetConfigFrom reads dirs in order, each one overriding the previous ones.
// Missing directories are skipped. Empty strings are ignored.
func GetConfigFrom(dirs ...string) (*Config, error) {
	cfg := newConfig()
	for _, cd := range dirs {
		if cd == "" {
			continue
		}
		subcfg := newConfig()
		if valid, err := validDir(cd); err != nil {
			return nil, err
		} else if !valid {
			continue
		}
		if err := readConfigDir(subcfg, cd); err != nil {
			return nil, errwrap.Wrap(fmt.Errorf("invalid configuration in %q", cd), err)
		}
		mergeConfigs(cfg, subcfg)
	}
	return cfg, nil
}

func newConfig() *Config {
	return &Config{
		Facilities: &facility.Table{},
	}
}

func readConfigDir(config *Config, dir string) error {
	for csd, kinds := range subdirKinds {
		d := filepath.Join(dir, csd)
		if valid, err := validDir(d); err != nil {
			return err
		} else if !valid {
			continue
		}
		if err := filepath.Walk(d, getConfigWalker(config, kinds, d)); err != nil {
			return err
		}
	}
	return nil
}

func validDir(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if !fi.IsDir() {
		return false, fmt.Errorf("expected %q to be a directory", path)
	}
	return true, nil
}

func getConfigWalker(config *Config, kinds []string, root string) filepath.WalkFunc {
	return func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		return readFile(config, info, path, kinds)
	}
}

func readFile(config *Config, info os.FileInfo, path string, kinds []string) error {
	if valid, err := validConfigFile(info); err != nil {
		return err
	} else if !valid {
		return nil
	}
	return parseConfigFile(config, path, kinds)
}

var configExtensions = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
}

func validConfigFile(info os.FileInfo) (bool, error) {
	mode := info.Mode()
	switch {
	case mode.IsDir():
		return false, filepath.SkipDir
	case mode.IsRegular():
		return configExtensions[filepath.Ext(info.Name())], nil
	default:
		return false, nil
	}
}

type configHeader struct {
	Version string `yaml:"version"`
	Kind    string `yaml:"kind"`
}

func parseConfigFile(config *Config, path string, kinds []string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var header configHeader
	if err := yaml.Unmarshal(raw, &header); err != nil {
		return errwrap.Wrap(fmt.Errorf("unable to decode %q", path), err)
	}
	if len(header.Kind) == 0 {
		return fmt.Errorf("no kind specified in %q", path)
	}
	if len(header.Version) == 0 {
		return fmt.Errorf("no version specified in %q", path)
	}
	kindOk := false
	for _, kind := range kinds {
		if header.Kind == kind {
			kindOk = true
			break
		}
	}
	if !kindOk {
		dir := filepath.Dir(path)
		base := filepath.Base(path)
		kindsStr := strings.Join(kinds, `", "`)
		return fmt.Errorf("the configuration directory %q expects to have configuration files of kinds %q, but %q has kind of %q", dir, kindsStr, base, header.Kind)
	}
	parser, err := getParser(header.Kind, header.Version)
	if err != nil {
		return err
	}
	if err := parser.parse(config, raw); err != nil {
		return errwrap.Wrap(fmt.Errorf("unable to parse %q", path), err)
	}
	return nil
}

func getParser(kind, version string) (configParser, error) {
	parsers, ok := parsersForKind[kind]
	if !ok {
		return nil, fmt.Errorf("no parser available for configuration of kind %q", kind)
	}
	parser, ok := parsers[version]
	if !ok {
		return nil, fmt.Errorf("no parser available for configuration of kind %q and version %q", kind, version)
	}
	return parser, nil
}

func mergeConfigs(config *Config, subconfig *Config) {
	if subconfig.Paths.SysvInit != "" {
		config.Paths.SysvInit = subconfig.Paths.SysvInit
	}
	if subconfig.Paths.SysvRcnd != "" {
		config.Paths.SysvRcnd = subconfig.Paths.SysvRcnd
	}
	if len(subconfig.Paths.UnitPaths) > 0 {
		config.Paths.UnitPaths = subconfig.Paths.UnitPaths
	}
	for _, name := range subconfig.Facilities.Names() {
		e, _ := subconfig.Facilities.Lookup(name)
		config.Facilities.Set(name, e)
	}
}

var errNotAbsolute = errors.New("path is not absolute")

func checkAbs(path string) error {
	if !filepath.IsAbs(path) {
		return errwrap.Wrap(fmt.Errorf("invalid path %q", path), errNotAbsolute)
	}
	return nil
}
