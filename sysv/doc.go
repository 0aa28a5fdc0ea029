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

// Package sysv converts SysV init scripts into systemd service units.
//
// A run scans the init script directory and the rcN.d link farms, parses the
// LSB header of every script, resolves dependencies and writes one unit per
// script plus alias and enablement symlinks.
package sysv

import (
	"github.com/fallinsky/systemd/pkg/log"
)

var plog = log.NewPackageLogger("sysv")
