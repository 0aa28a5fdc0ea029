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

// Package lsb extracts the LSB "INIT INFO" comment block from SysV init
// scripts.
//
// The block is a run of shell comments between the BEGIN and END markers:
//
//	### BEGIN INIT INFO
//	# Provides:          foo bar
//	# Required-Start:    $network $remote_fs
//	# Default-Start:     2 3 4 5
//	# Short-Description: foo daemon
//	# Description:       a longer description which may
//	#                    continue on following lines
//	### END INIT INFO
//
// Only the keys listed as Key constants are kept. Everything else in the
// block, including malformed lines, is ignored.
package lsb

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/errwrap"
)

const (
	BeginMarker = "### BEGIN INIT INFO"
	EndMarker   = "### END INIT INFO"
)

// Key is a recognized header field.
type Key int

const (
	Provides Key = iota
	RequiredStart
	RequiredStop
	ShouldStart
	ShouldStop
	DefaultStart
	DefaultStop
	ShortDescription
	Description
)

var keyNames = [...]string{
	Provides:         "Provides",
	RequiredStart:    "Required-Start",
	RequiredStop:     "Required-Stop",
	ShouldStart:      "Should-Start",
	ShouldStop:       "Should-Stop",
	DefaultStart:     "Default-Start",
	DefaultStop:      "Default-Stop",
	ShortDescription: "Short-Description",
	Description:      "Description",
}

var keysByName = func() map[string]Key {
	m := make(map[string]Key, len(keyNames))
	for k, name := range keyNames {
		m[strings.ToLower(name)] = Key(k)
	}
	return m
}()

func (k Key) String() string {
	if k < 0 || int(k) >= len(keyNames) {
		return "Unknown"
	}
	return keyNames[k]
}

// LookupKey maps a field name to its Key, ignoring case.
func LookupKey(name string) (Key, bool) {
	k, ok := keysByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// Header is the decoded INIT INFO block of one script.
type Header struct {
	present bool
	fields  map[Key]string
}

// Present reports whether a complete BEGIN/END block was found.
func (h *Header) Present() bool {
	return h != nil && h.present
}

// Has reports whether key appeared in the block.
func (h *Header) Has(key Key) bool {
	if h == nil {
		return false
	}
	_, ok := h.fields[key]
	return ok
}

// Get returns the raw value of key, or "" if it is absent.
func (h *Header) Get(key Key) string {
	if h == nil {
		return ""
	}
	return h.fields[key]
}

// Words splits the value of key on white space.
func (h *Header) Words(key Key) []string {
	return strings.Fields(h.Get(key))
}

func (h *Header) set(key Key, value string) {
	if old, ok := h.fields[key]; ok && old != "" {
		if value == "" {
			return
		}
		value = old + " " + value
	}
	h.fields[key] = value
}

// ParseFile parses the header of the script at path.
func ParseFile(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads r up to the end of the first INIT INFO block. Only read errors
// are returned; a script without a block yields a Header that is not
// Present.
func Parse(r io.Reader) (*Header, error) {
	var (
		br      = bufio.NewReader(r)
		inBlock bool
		last    = Key(-1)
		h       = &Header{fields: make(map[Key]string)}
	)

	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, errwrap.Wrap(errors.New("error reading init script"), err)
		}
		eof := err == io.EOF
		line = strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(line)

		switch {
		case !inBlock:
			if strings.HasPrefix(trimmed, BeginMarker) {
				inBlock = true
			}
		case strings.HasPrefix(trimmed, EndMarker):
			h.present = true
			return h, nil
		case !strings.HasPrefix(line, "#"):
			// not a comment; malformed but harmless
			last = Key(-1)
		default:
			last = parseLine(h, line, last)
		}

		if eof {
			break
		}
	}

	// no block, or a block that was never closed
	return &Header{fields: make(map[Key]string)}, nil
}

// parseLine handles one comment line inside the block and returns the key
// that a continuation line would extend.
func parseLine(h *Header, line string, last Key) Key {
	body := strings.TrimSpace(line[1:])
	if i := strings.IndexByte(body, ':'); i > 0 && !strings.ContainsAny(body[:i], " \t") {
		if key, ok := LookupKey(body[:i]); ok {
			h.set(key, strings.TrimSpace(body[i+1:]))
			return key
		}
	}

	// an unknown "word:" prefix, such as a URL, may still continue Description
	if last == Description && isContinuation(line) && body != "" {
		h.fields[Description] = strings.TrimSpace(h.fields[Description] + " " + body)
		return Description
	}

	return Key(-1)
}

func isContinuation(line string) bool {
	return strings.HasPrefix(line, "#\t") || strings.HasPrefix(line, "#  ")
}
