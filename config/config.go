/*
 * rover distance-vector routing node.
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

// Package config loads the optional rover config file. Every field
// except output can also be set on the command line; a flag always
// overrides the value loaded from file.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a rover config file.
type File struct {
	ID          uint8  `yaml:"id"`
	Group       string `yaml:"group"`
	Port        int    `yaml:"port"`
	Interface   string `yaml:"interface"`
	Source      string `yaml:"source"`
	Destination string `yaml:"destination"`
	// Output is parsed but not used by cmd/rover: the receiver always
	// writes to supervisor.OutputFile.
	Output string `yaml:"output"`
}

// Load parses path as YAML into a File. A missing path is not an error:
// the zero File is returned so callers can fall through to flags/
// defaults, matching the "config file is pure convenience" stance in
// SPEC_FULL.md.
func Load(path string) (File, error) {
	if path == "" {
		return File{}, nil
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return File{}, nil
	}
	if err != nil {
		return File{}, err
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return File{}, err
	}
	return f, nil
}

// Merge returns f with every zero-valued field replaced by the matching
// field from base. Flags parsed into f therefore win over the file
// unconditionally; only fields the user never set on the command line
// fall back to the file.
func (f File) Merge(base File) File {
	if f.ID == 0 {
		f.ID = base.ID
	}
	if f.Group == "" {
		f.Group = base.Group
	}
	if f.Port == 0 {
		f.Port = base.Port
	}
	if f.Interface == "" {
		f.Interface = base.Interface
	}
	if f.Source == "" {
		f.Source = base.Source
	}
	if f.Destination == "" {
		f.Destination = base.Destination
	}
	if f.Output == "" {
		f.Output = base.Output
	}
	return f
}
