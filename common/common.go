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

// Package common defines values shared by the generator binary, its
// configuration layer and the conversion engine.
package common

const (
	// DefaultSysvInitPath is where legacy init scripts live.
	DefaultSysvInitPath = "/etc/init.d"
	// DefaultSysvRcndPath is the root holding the rcN.d link farms.
	DefaultSysvRcndPath = "/etc/rc.d"

	DefaultSystemConfigDir = "/usr/lib/sysv-generator"
	DefaultLocalConfigDir  = "/etc/sysv-generator"

	// DocumentationURI is written as Documentation= of every generated unit.
	DocumentationURI = "man:systemd-sysv-generator(8)"
)

// DefaultUnitPaths lists the directories searched for native units that
// shadow a legacy script of the same name.
var DefaultUnitPaths = []string{
	"/etc/systemd/system",
	"/run/systemd/system",
	"/usr/local/lib/systemd/system",
	"/usr/lib/systemd/system",
	"/lib/systemd/system",
}
