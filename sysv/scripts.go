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
	"errors"
	"os"
	"path/filepath"

	"github.com/fallinsky/systemd/pkg/fileutil"
	"github.com/hashicorp/errwrap"
)

// Script is an executable legacy init script.
type Script struct {
	// Name is the service name, the file name without ".sh".
	Name string
	// Path is the absolute path of the script.
	Path string
}

// ScanScripts lists the executable init scripts in dir, sorted by name.
// Entries that cannot be used are skipped with a debug note; only failing to
// read dir itself is an error.
func ScanScripts(dir string) ([]Script, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errwrap.Wrap(errors.New("unable to resolve init script directory"), err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, errwrap.Wrap(errors.New("unable to read init script directory"), err)
	}

	var (
		scripts []Script
		seen    = make(map[string]string)
	)
	for _, e := range entries {
		fname := e.Name()
		if fileutil.IsHiddenOrBackup(fname) {
			plog.Debugf("Ignoring %s", fname)
			continue
		}

		path := filepath.Join(abs, fname)
		fi, err := os.Stat(path)
		if err != nil {
			plog.Debugf("Unable to stat %s, skipping: %v", path, err)
			continue
		}
		if !fi.Mode().IsRegular() {
			plog.Debugf("%s is not a regular file, skipping", path)
			continue
		}
		if !fileutil.IsExecutable(fi) {
			plog.Debugf("Init script %s not executable, skipping", path)
			continue
		}

		name := ScriptName(fname)
		if !ValidServiceName(name) {
			plog.Warningf("Init script %s does not have a valid service name, skipping", path)
			continue
		}
		if other, ok := seen[name]; ok {
			plog.Warningf("Init script %s clashes with %s, skipping", path, other)
			continue
		}
		seen[name] = path

		scripts = append(scripts, Script{Name: name, Path: path})
	}

	return scripts, nil
}
