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

package sysv

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	serviceSuffix = ".service"
	scriptSuffix  = ".sh"

	// unit name prefixes longer than this are rejected by systemd
	maxUnitNameLen = 256
)

// ScriptName returns the service name for an init script file name.
func ScriptName(filename string) string {
	if n := strings.TrimSuffix(filename, scriptSuffix); n != "" {
		return n
	}
	return filename
}

// ServiceUnitName returns the systemd service unit name for name.
func ServiceUnitName(name string) string {
	return name + serviceSuffix
}

// ServiceUnitPath returns the path of the service unit for name in dir.
func ServiceUnitPath(dir, name string) string {
	return filepath.Join(dir, ServiceUnitName(name))
}

// WantsDirName returns the wants directory of the target for runlevel.
func WantsDirName(runlevel int) string {
	return fmt.Sprintf("runlevel%d.target.wants", runlevel)
}

// ServiceWantPath returns the enablement symlink path of name for runlevel.
func ServiceWantPath(dir string, runlevel int, name string) string {
	return filepath.Join(dir, WantsDirName(runlevel), ServiceUnitName(name))
}

// ValidServiceName reports whether name can be used as the prefix of a
// service unit name.
func ValidServiceName(name string) bool {
	if name == "" || len(name)+len(serviceSuffix) > maxUnitNameLen {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.ContainsRune(":-_.\\", c):
		default:
			return false
		}
	}
	return true
}
