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
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/unit"
	"github.com/fallinsky/systemd/common"
	"github.com/fallinsky/systemd/pkg/fileutil"
	"github.com/hashicorp/errwrap"
)

// lowest and highest runlevel that get a runlevelN.target; 0 and 6 are
// halt and reboot
const (
	minEnableRunlevel = 1
	maxEnableRunlevel = 5
)

// UnitWriter is the type that writes generated units preserving the first
// previously occurred error.
// Any method of this type can be invoked multiple times without error checking.
// If a previous invocation generated an error, any invoked method will be skipped.
// If an error occurred during method invocations, it can be retrieved using Error().
type UnitWriter struct {
	err error
	dir string
}

// NewUnitWriter returns a new UnitWriter writing into dir, which should be
// absolute so enablement links resolve from anywhere.
func NewUnitWriter(dir string) *UnitWriter {
	return &UnitWriter{dir: dir}
}

// WriteUnit writes a unit in the given path with the given unit options
// if no previous error occurred. A symlink already at path is replaced by
// the real file.
func (uw *UnitWriter) WriteUnit(path string, errmsg string, opts ...*unit.UnitOption) {
	if uw.err != nil {
		return
	}

	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(path); err != nil {
			uw.err = errwrap.Wrap(errors.New(errmsg), err)
			return
		}
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		uw.err = errwrap.Wrap(errors.New(errmsg), err)
		return
	}
	defer file.Close()

	if _, err = io.Copy(file, unit.Serialize(opts)); err != nil {
		uw.err = errwrap.Wrap(errors.New(errmsg), err)
	}
}

// ServiceUnitOptions returns the options of the unit generated for d.
func ServiceUnitOptions(d *Descriptor) []*unit.UnitOption {
	opts := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Documentation", common.DocumentationURI),
		unit.NewUnitOption("Unit", "SourcePath", d.ScriptPath),
		unit.NewUnitOption("Unit", "Description", d.UnitDescription()),
	}
	if len(d.After) > 0 {
		opts = append(opts, unit.NewUnitOption("Unit", "After", strings.Join(d.After, " ")))
	}
	if len(d.Wants) > 0 {
		opts = append(opts, unit.NewUnitOption("Unit", "Wants", strings.Join(d.Wants, " ")))
	}

	return append(opts,
		unit.NewUnitOption("Service", "Type", "forking"),
		unit.NewUnitOption("Service", "ExecStart", d.ScriptPath+" start"),
		unit.NewUnitOption("Service", "ExecStop", d.ScriptPath+" stop"),
	)
}

// ServiceUnit writes the canonical unit of d.
func (uw *UnitWriter) ServiceUnit(d *Descriptor) {
	uw.WriteUnit(
		ServiceUnitPath(uw.dir, d.Name),
		fmt.Sprintf("failed to write unit for %q", d.Name),
		ServiceUnitOptions(d)...,
	)
}

// Alias links alias.service to the canonical unit of name. It never
// replaces a regular file.
func (uw *UnitWriter) Alias(name, alias string) {
	if uw.err != nil {
		return
	}

	if err := fileutil.Symlink(ServiceUnitName(name), ServiceUnitPath(uw.dir, alias)); err != nil {
		uw.err = errwrap.Wrap(fmt.Errorf("failed to link alias %q", alias), err)
	}
}

// Activate links unit, a unit file name in the output directory, into
// wantPath.
func (uw *UnitWriter) Activate(unit, wantPath string) {
	if uw.err != nil {
		return
	}

	if err := os.MkdirAll(filepath.Dir(wantPath), 0755); err != nil {
		uw.err = errwrap.Wrap(errors.New("failed to create wants directory"), err)
		return
	}
	if err := fileutil.Symlink(filepath.Join(uw.dir, unit), wantPath); err != nil {
		uw.err = errwrap.Wrap(errors.New("failed to link service want"), err)
	}
}

// Enable activates the unit of d in every runlevel where an rcN.d start link
// installs it. Default-Start is informational only and not consulted here.
func (uw *UnitWriter) Enable(d *Descriptor) {
	for _, rl := range d.StartRunlevels {
		if rl < minEnableRunlevel || rl > maxEnableRunlevel {
			continue
		}
		uw.Activate(d.UnitName(), ServiceWantPath(uw.dir, rl, d.Name))
	}
}

// Error returns the first error that occurred during write* invocations.
func (uw *UnitWriter) Error() error {
	return uw.err
}
