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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitPathList(t *testing.T) {
	for _, tt := range []struct {
		in  string
		out []string
	}{
		{
			in:  "",
			out: nil,
		},
		{
			in:  "/a",
			out: []string{"/a"},
		},
		{
			in:  "/a::/b:/a",
			out: []string{"/a", "/b"},
		},
		{
			in:  "/a:",
			out: append([]string{"/a"}, DefaultUnitPaths...),
		},
	} {
		assert.Equal(t, tt.out, SplitPathList(tt.in), "input %q", tt.in)
	}
}

func TestReadEnvironment(t *testing.T) {
	vars := map[string]string{
		EnvSysvInitPath: "/tmp/init.d",
		EnvSysvRcndPath: "/tmp",
		EnvUnitPath:     "/tmp/systemd",
		EnvLogLevel:     "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}

	env := ReadEnvironment(lookup)
	assert.Equal(t, "/tmp/init.d", env.SysvInitPath)
	assert.Equal(t, "/tmp", env.SysvRcndPath)
	assert.Equal(t, []string{"/tmp/systemd"}, env.UnitPaths)
	assert.Equal(t, "debug", env.LogLevel)
	assert.Empty(t, env.LogTarget)
}
