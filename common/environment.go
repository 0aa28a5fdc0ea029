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

package common

import (
	"os"
	"strings"
)

// Environment variables honoured by the generator. The names match the ones
// systemd passes to its own generators.
const (
	EnvSysvInitPath = "SYSTEMD_SYSVINIT_PATH"
	EnvSysvRcndPath = "SYSTEMD_SYSVRCND_PATH"
	EnvUnitPath     = "SYSTEMD_UNIT_PATH"
	EnvLogLevel     = "SYSTEMD_LOG_LEVEL"
	EnvLogTarget    = "SYSTEMD_LOG_TARGET"
)

// Environment is the subset of the process environment the generator reads.
// Empty fields mean the variable was not set.
type Environment struct {
	SysvInitPath string
	SysvRcndPath string
	UnitPaths    []string
	LogLevel     string
	LogTarget    string
}

// ReadEnvironment collects the generator variables using lookup, which is
// normally os.LookupEnv.
func ReadEnvironment(lookup func(string) (string, bool)) Environment {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var env Environment
	if v, ok := lookup(EnvSysvInitPath); ok {
		env.SysvInitPath = v
	}
	if v, ok := lookup(EnvSysvRcndPath); ok {
		env.SysvRcndPath = v
	}
	if v, ok := lookup(EnvUnitPath); ok && v != "" {
		env.UnitPaths = SplitPathList(v)
	}
	if v, ok := lookup(EnvLogLevel); ok {
		env.LogLevel = v
	}
	if v, ok := lookup(EnvLogTarget); ok {
		env.LogTarget = v
	}
	return env
}

// SplitPathList splits a colon separated directory list, dropping empty and
// repeated entries. A trailing colon appends DefaultUnitPaths, the way
// SYSTEMD_UNIT_PATH is interpreted by systemd.
func SplitPathList(s string) []string {
	var (
		out  []string
		seen = make(map[string]bool)
	)
	add := func(p string) {
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, p := range strings.Split(s, ":") {
		add(p)
	}
	if strings.HasSuffix(s, ":") {
		for _, p := range DefaultUnitPaths {
			add(p)
		}
	}
	return out
}
