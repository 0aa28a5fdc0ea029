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

// Package log configures capnslog for the generator and renders errwrap
// chains the way the rest of rkt does.
package log

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/coreos/pkg/capnslog"
	"github.com/hashicorp/errwrap"
)

// Repo is the capnslog repository all package loggers register under.
const Repo = "github.com/fallinsky/systemd"

// Log targets.
const (
	TargetConsole = "console"
	TargetJournal = "journal"
	TargetAuto    = "auto"
)

// systemd log level names and their capnslog counterparts. capnslog has no
// emerg/alert, both collapse onto CRITICAL.
var levels = map[string]capnslog.LogLevel{
	"emerg":   capnslog.CRITICAL,
	"alert":   capnslog.CRITICAL,
	"crit":    capnslog.CRITICAL,
	"err":     capnslog.ERROR,
	"error":   capnslog.ERROR,
	"warning": capnslog.WARNING,
	"warn":    capnslog.WARNING,
	"notice":  capnslog.NOTICE,
	"info":    capnslog.INFO,
	"debug":   capnslog.DEBUG,
	"trace":   capnslog.TRACE,
}

var numericLevels = []capnslog.LogLevel{
	capnslog.CRITICAL, // emerg
	capnslog.CRITICAL, // alert
	capnslog.CRITICAL, // crit
	capnslog.ERROR,
	capnslog.WARNING,
	capnslog.NOTICE,
	capnslog.INFO,
	capnslog.DEBUG,
}

// ParseLevel accepts systemd level names ("debug", "warning", ...) and the
// numeric syslog priorities 0-7. An empty string means INFO.
func ParseLevel(s string) (capnslog.LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return capnslog.INFO, nil
	}
	if l, ok := levels[s]; ok {
		return l, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(numericLevels) {
		return numericLevels[n], nil
	}
	return capnslog.INFO, fmt.Errorf("unknown log level %q", s)
}

// Setup installs the formatter for target and sets the global level. Console
// output goes to w.
func Setup(w io.Writer, level capnslog.LogLevel, target string) error {
	switch strings.ToLower(target) {
	case "", TargetConsole:
		capnslog.SetFormatter(capnslog.NewPrettyFormatter(w, level >= capnslog.DEBUG))
	case TargetJournal:
		f, err := capnslog.NewJournaldFormatter()
		if err != nil {
			return errwrap.Wrap(errors.New("unable to log to the journal"), err)
		}
		capnslog.SetFormatter(f)
	case TargetAuto:
		if journal.Enabled() {
			return Setup(w, level, TargetJournal)
		}
		return Setup(w, level, TargetConsole)
	default:
		return fmt.Errorf("unknown log target %q", target)
	}
	capnslog.SetGlobalLogLevel(level)
	return nil
}

// NewPackageLogger returns the logger for a generator package.
func NewPackageLogger(pkg string) *capnslog.PackageLogger {
	return capnslog.NewPackageLogger(Repo, pkg)
}

// FormatE renders msg followed by the errwrap chain of e, one error per
// line, indented like a tree.
func FormatE(msg string, e error) string {
	var b strings.Builder
	b.WriteString(msg)
	if e == nil {
		return b.String()
	}

	indent := ""
	errwrap.Walk(e, func(err error) {
		if _, ok := err.(errwrap.Wrapper); ok {
			return
		}
		fmt.Fprintf(&b, "\n%s└─%s", indent, err)
		indent += "  "
	})
	return b.String()
}
