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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestLoadEmptyPathIsNotAnError(t *testing.T) {
	f, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rover.yaml")
	contents := "id: 2\ngroup: 239.0.0.5\nport: 5050\nsource: /tmp/in.bin\ndestination: \"3\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, File{ID: 2, Group: "239.0.0.5", Port: 5050, Source: "/tmp/in.bin", Destination: "3"}, f)
}

func TestMergePrefersFlagOverFile(t *testing.T) {
	fromFile := File{ID: 2, Group: "239.0.0.5", Port: 5050}
	fromFlags := File{ID: 9} // only --id was actually set

	got := fromFlags.Merge(fromFile)

	assert.Equal(t, uint8(9), got.ID, "a flag value must win over the file")
	assert.Equal(t, "239.0.0.5", got.Group, "an unset flag falls back to the file")
	assert.Equal(t, 5050, got.Port)
}
