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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/coreos/pkg/capnslog"
	"github.com/fallinsky/systemd/pkg/lock"
	"github.com/fallinsky/systemd/pkg/log"
	"github.com/fallinsky/systemd/pkg/lsb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv is a throwaway init.d / rcN.d / output tree.
type testEnv struct {
	t       *testing.T
	initDir string
	rcndDir string
	unitDir string
	outDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	work := t.TempDir()
	e := &testEnv{
		t:       t,
		initDir: filepath.Join(work, "init.d"),
		rcndDir: work,
		unitDir: filepath.Join(work, "systemd"),
		outDir:  filepath.Join(work, "output"),
	}
	for _, d := range []string{e.initDir, e.unitDir, e.outDir} {
		require.NoError(t, os.Mkdir(d, 0755))
	}
	return e
}

// parsedUnit is a generated unit file read back.
type parsedUnit []*unit.UnitOption

func (u parsedUnit) sections() []string {
	var out []string
	for _, o := range u {
		if len(out) == 0 || out[len(out)-1] != o.Section {
			out = append(out, o.Section)
		}
	}
	return out
}

func (u parsedUnit) options(section string) []string {
	var out []string
	for _, o := range u {
		if o.Section == section {
			out = append(out, o.Name)
		}
	}
	sort.Strings(out)
	return out
}

func (u parsedUnit) get(section, name string) (string, bool) {
	for _, o := range u {
		if o.Section == section && o.Name == name {
			return o.Value, true
		}
	}
	return "", false
}

// run runs the generator and returns the diagnostics and the real (non
// alias) units written, by file name.
func (e *testEnv) run() (string, map[string]parsedUnit, *Result) {
	e.t.Helper()

	var diag bytes.Buffer
	require.NoError(e.t, log.Setup(&diag, capnslog.DEBUG, log.TargetConsole))

	g := New(Options{
		SysvInitPath: e.initDir,
		SysvRcndPath: e.rcndDir,
		UnitPaths:    []string{e.unitDir},
		OutputDir:    e.outDir,
		Jobs:         2,
	})
	res, err := g.Run(context.Background())
	require.NoError(e.t, err)
	assert.NotContains(e.t, diag.String(), "Fail", diag.String())

	units := make(map[string]parsedUnit)
	paths, err := filepath.Glob(filepath.Join(e.outDir, "*.service"))
	require.NoError(e.t, err)
	for _, p := range paths {
		fi, err := os.Lstat(p)
		require.NoError(e.t, err)
		if fi.Mode()&os.ModeSymlink != 0 {
			continue
		}
		units[filepath.Base(p)] = readUnit(e.t, p)
	}
	return diag.String(), units, res
}

var headerKeys = []string{
	"Provides",
	"Required-Start",
	"Required-Stop",
	"Should-Start",
	"Default-Start",
	"Default-Stop",
	"Short-Description",
	"Description",
}

// addSysv creates an init script with an LSB header built from keys plus
// defaults for the missing ones. With enable set, rcN.d links are created
// with priority prio. It returns the script path.
func (e *testEnv) addSysv(fname string, keys map[string]string, enable bool, prio int) string {
	e.t.Helper()

	name := strings.TrimSuffix(fname, ".sh")
	defaults := map[string]string{
		"Provides":          name,
		"Required-Start":    "$local_fs",
		"Default-Start":     "2 3 4 5",
		"Default-Stop":      "0 1 6",
		"Short-Description": fmt.Sprintf("test %s service", name),
		"Description":       fmt.Sprintf("long description for test %s service", name),
	}
	if keys == nil {
		keys = make(map[string]string)
	}
	for k, v := range defaults {
		if _, ok := keys[k]; !ok {
			keys[k] = v
		}
	}
	if _, ok := keys["Required-Stop"]; !ok {
		keys["Required-Stop"] = keys["Required-Start"]
	}

	var b strings.Builder
	b.WriteString("#!/bin/init-d-interpreter\n### BEGIN INIT INFO\n")
	for _, k := range headerKeys {
		if v, ok := keys[k]; ok {
			fmt.Fprintf(&b, "#%20s %s\n", k+":", v)
		}
	}
	b.WriteString("### END INIT INFO\ncode --goes here\n")

	script := filepath.Join(e.initDir, fname)
	require.NoError(e.t, os.WriteFile(script, []byte(b.String()), 0755))

	if enable {
		for _, rl := range strings.Fields(keys["Default-Start"]) {
			e.link(rl, fmt.Sprintf("S%02d%s", prio, fname), fname)
		}
		for _, rl := range strings.Fields(keys["Default-Stop"]) {
			e.link(rl, fmt.Sprintf("K%02d%s", 99-prio, fname), fname)
		}
	}
	return script
}

// addHeaderless creates a script without LSB header.
func (e *testEnv) addHeaderless(fname string) string {
	e.t.Helper()
	script := filepath.Join(e.initDir, fname)
	require.NoError(e.t, os.WriteFile(script, []byte("#!/bin/init-d-interpreter\ncode --goes here\n"), 0755))
	return script
}

func (e *testEnv) link(runlevel, linkName, fname string) {
	e.t.Helper()
	d := filepath.Join(e.rcndDir, "rc"+runlevel+".d")
	require.NoError(e.t, os.MkdirAll(d, 0755))
	require.NoError(e.t, os.Symlink("../init.d/"+fname, filepath.Join(d, linkName)))
}

// assertEnabled checks that unitName is enabled in exactly runlevels.
func (e *testEnv) assertEnabled(unitName string, runlevels ...int) {
	e.t.Helper()
	want := make(map[int]bool)
	for _, rl := range runlevels {
		want[rl] = true
	}

	for _, rl := range []int{2, 3, 4, 5} {
		link := filepath.Join(e.outDir, fmt.Sprintf("runlevel%d.target.wants", rl), unitName)
		if !want[rl] {
			_, err := os.Stat(link)
			assert.True(e.t, os.IsNotExist(err), "%s unexpectedly exists", link)
			continue
		}
		target, err := os.Readlink(link)
		if assert.NoError(e.t, err) {
			_, err = os.Stat(target)
			assert.NoError(e.t, err)
			assert.Equal(e.t, unitName, filepath.Base(target))
		}
	}
}

func (e *testEnv) listOutput() []string {
	e.t.Helper()
	entries, err := os.ReadDir(e.outDir)
	require.NoError(e.t, err)
	var names []string
	for _, en := range entries {
		names = append(names, en.Name())
	}
	return names
}

func unitNames(units map[string]parsedUnit) []string {
	var names []string
	for n := range units {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func TestGenerateNothing(t *testing.T) {
	e := newTestEnv(t)
	_, units, res := e.run()

	assert.Empty(t, units)
	assert.Empty(t, res.Descriptors)
	assert.Empty(t, e.listOutput())
}

func TestGenerateSimpleDisabled(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", nil, false, 1)
	_, units, _ := e.run()

	require.Len(t, units, 1)
	assert.Equal(t, []string{"foo.service"}, e.listOutput(), "no enablement links or other stuff")

	s := units["foo.service"]
	assert.Equal(t, []string{"Unit", "Service"}, s.sections())
	desc, _ := s.get("Unit", "Description")
	assert.Equal(t, "LSB: test foo service", desc)
	// $local_fs does not need translation, no dependency fields expected
	assert.Equal(t, []string{"Description", "Documentation", "SourcePath"}, s.options("Unit"))

	script := filepath.Join(e.initDir, "foo")
	for k, v := range map[string]string{
		"Type":      "forking",
		"ExecStart": script + " start",
		"ExecStop":  script + " stop",
	} {
		got, ok := s.get("Service", k)
		assert.True(t, ok, k)
		assert.Equal(t, v, got, k)
	}
	src, _ := s.get("Unit", "SourcePath")
	assert.Equal(t, script, src)
}

func TestGenerateSimpleEnabledAll(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", nil, true, 1)
	_, units, _ := e.run()

	assert.Equal(t, []string{"foo.service"}, unitNames(units))
	e.assertEnabled("foo.service", 2, 3, 4, 5)
}

func TestGenerateSimpleEnabledSome(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", map[string]string{"Default-Start": "2 4"}, true, 1)
	_, units, _ := e.run()

	assert.Equal(t, []string{"foo.service"}, unitNames(units))
	e.assertEnabled("foo.service", 2, 4)
}

func TestGenerateFacilitySingle(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", map[string]string{"Required-Start": "$network"}, false, 1)
	_, units, _ := e.run()

	s := units["foo.service"]
	assert.Equal(t, []string{"After", "Description", "Documentation", "SourcePath", "Wants"}, s.options("Unit"))
	after, _ := s.get("Unit", "After")
	wants, _ := s.get("Unit", "Wants")
	assert.Equal(t, "network-online.target", after)
	assert.Equal(t, "network-online.target", wants)
}

func TestGenerateFacilityMulti(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", map[string]string{"Required-Start": "$named $portmap"}, false, 1)
	_, units, _ := e.run()

	s := units["foo.service"]
	assert.Equal(t, []string{"After", "Description", "Documentation", "SourcePath"}, s.options("Unit"))
	after, _ := s.get("Unit", "After")
	assert.Equal(t, "nss-lookup.target rpcbind.target", after)
}

func TestGenerateLSBDeps(t *testing.T) {
	e := newTestEnv(t)
	// priorities are given too, they must be ignored
	e.addSysv("foo", map[string]string{
		"Required-Start": "must1 must2",
		"Should-Start":   "may1 ne_may2",
	}, true, 40)
	e.addSysv("must1", nil, true, 10)
	e.addSysv("must2", nil, true, 15)
	e.addSysv("may1", nil, true, 20)
	// ne_may2 is not created
	_, units, _ := e.run()

	assert.Equal(t, []string{"foo.service", "may1.service", "must1.service", "must2.service"}, unitNames(units))

	after, _ := units["foo.service"].get("Unit", "After")
	assert.Equal(t, []string{"may1.service", "must1.service", "must2.service", "ne_may2.service"}, strings.Fields(after))

	for _, n := range []string{"must1.service", "must2.service", "may1.service"} {
		_, ok := units[n].get("Unit", "After")
		assert.False(t, ok, "%s must not depend on other services", n)
	}
}

func TestGenerateSymlinkPriorityDeps(t *testing.T) {
	e := newTestEnv(t)
	for _, s := range []struct {
		prio int
		name string
	}{{10, "provider"}, {15, "consumer"}} {
		e.addHeaderless(s.name)
		e.link("2", fmt.Sprintf("S%02d%s", s.prio, s.name), s.name)
	}
	_, units, _ := e.run()

	assert.Equal(t, []string{"consumer.service", "provider.service"}, unitNames(units))
	_, ok := units["provider.service"].get("Unit", "After")
	assert.False(t, ok)
	after, _ := units["consumer.service"].get("Unit", "After")
	assert.Equal(t, "provider.service", after)

	desc, _ := units["consumer.service"].get("Unit", "Description")
	assert.Equal(t, "SYSV: consumer", desc)
}

func TestGenerateMultipleProvides(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", map[string]string{"Provides": "foo bar baz"}, false, 1)
	_, units, res := e.run()

	assert.Equal(t, []string{"foo.service"}, unitNames(units))
	assert.Equal(t, []string{"Description", "Documentation", "SourcePath"}, units["foo.service"].options("Unit"))
	for _, f := range []string{"bar.service", "baz.service"} {
		target, err := os.Readlink(filepath.Join(e.outDir, f))
		require.NoError(t, err)
		assert.Equal(t, "foo.service", target)
	}
	assert.Equal(t, map[string]string{"bar": "foo", "baz": "foo"}, res.Aliases)
}

func TestGenerateAliasCollisions(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("aaa", map[string]string{"Provides": "aaa bar shared"}, false, 1)
	e.addSysv("bar", nil, false, 1)
	e.addSysv("zzz", map[string]string{"Provides": "zzz shared"}, false, 1)
	diag, units, res := e.run()

	assert.Equal(t, []string{"aaa.service", "bar.service", "zzz.service"}, unitNames(units))

	desc, _ := units["bar.service"].get("Unit", "Description")
	assert.Equal(t, "LSB: test bar service", desc, "canonical unit must be left untouched")

	target, err := os.Readlink(filepath.Join(e.outDir, "shared.service"))
	require.NoError(t, err)
	assert.Equal(t, "aaa.service", target, "first writer wins")
	assert.Equal(t, map[string]string{"shared": "aaa"}, res.Aliases)
	assert.Contains(t, diag, "collides with an existing service")
}

func TestGenerateNonExecutable(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.Chmod(e.addSysv("foo", nil, false, 1), 0644))
	_, units, res := e.run()

	assert.Empty(t, units)
	assert.Empty(t, res.Descriptors)
	assert.Empty(t, e.listOutput())
}

func TestGenerateNativeUnitWins(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", nil, true, 1)
	e.addSysv("bar", nil, true, 1)
	require.NoError(t, os.WriteFile(filepath.Join(e.unitDir, "foo.service"), []byte("[Unit]\n"), 0644))
	_, units, res := e.run()

	assert.Equal(t, []string{"bar.service"}, unitNames(units))
	assert.Equal(t, []string{"foo"}, res.Skipped)
	e.assertEnabled("foo.service")
}

func TestGenerateIdempotent(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", map[string]string{"Provides": "foo bar", "Required-Start": "$network baz"}, true, 20)
	e.addSysv("baz", nil, true, 10)

	_, first, _ := e.run()
	before := e.listOutput()
	_, second, _ := e.run()

	assert.Equal(t, before, e.listOutput())
	assert.Equal(t, first, second)
	e.assertEnabled("foo.service", 2, 3, 4, 5)
}

func TestGenerateMissingInitDir(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, os.Remove(e.initDir))

	_, err := New(Options{SysvInitPath: e.initDir, SysvRcndPath: e.rcndDir, OutputDir: e.outDir}).Run(context.Background())
	assert.Error(t, err)
}

func TestGenerateUnwritableOutput(t *testing.T) {
	e := newTestEnv(t)
	out := filepath.Join(e.outDir, "file")
	require.NoError(t, os.WriteFile(out, nil, 0644))

	_, err := New(Options{SysvInitPath: e.initDir, SysvRcndPath: e.rcndDir, OutputDir: out}).Run(context.Background())
	assert.Error(t, err)
}

func TestGenerateOutputLocked(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", nil, false, 1)

	l, err := lock.TryExclusiveLock(e.outDir)
	require.NoError(t, err)
	defer l.Close()

	_, err = New(Options{SysvInitPath: e.initDir, SysvRcndPath: e.rcndDir, OutputDir: e.outDir}).Run(context.Background())
	assert.Error(t, err)
	assert.Empty(t, e.listOutput())
}

func TestGenerateUnreadableScriptIsDebugOnly(t *testing.T) {
	e := newTestEnv(t)
	e.addSysv("foo", nil, true, 1)
	bar := e.addSysv("bar", nil, false, 1)

	var diag bytes.Buffer
	require.NoError(t, log.Setup(&diag, capnslog.INFO, log.TargetConsole))

	g := New(Options{SysvInitPath: e.initDir, SysvRcndPath: e.rcndDir, OutputDir: e.outDir})
	g.readHeader = func(path string) (*lsb.Header, error) {
		if path == bar {
			return nil, errors.New("permission denied")
		}
		return lsb.ParseFile(path)
	}
	res, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"bar"}, res.Skipped)
	require.Len(t, res.Descriptors, 1)
	assert.Equal(t, "foo", res.Descriptors[0].Name)
	assert.NotContains(t, diag.String(), "Unable to read init script")
	assert.NoFileExists(t, filepath.Join(e.outDir, "bar.service"))
}
