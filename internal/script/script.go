// Package script runs the optional user-supplied settings script against
// the scene session. The script is arbitrary trusted code by design,
// mirroring how host-tool configuration hooks work; it is not a security
// boundary and must never be pointed at untrusted input.
package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Settings are the session knobs a settings script may read and write.
type Settings struct {
	// Collection is the grouping imported objects are moved into.
	Collection string
	// AxisCorrection toggles the 90 degree X-axis compensation applied
	// after every import.
	AxisCorrection bool
	// Background is the placeholder image background as a #rrggbb hex
	// string.
	Background string
}

// DefaultSettings returns the settings used when no script is configured.
func DefaultSettings() Settings {
	return Settings{
		Collection:     "RecordedObjects",
		AxisCorrection: true,
		Background:     "#000000",
	}
}

// Apply executes the Lua file at path with a global `scene` table exposing
// the settings, then reads the table back. Any script error propagates to
// the caller unchanged in kind: a broken settings script fails the request.
func Apply(path string, s *Settings) error {
	L := lua.NewState()
	defer L.Close()

	tbl := L.NewTable()
	tbl.RawSetString("collection", lua.LString(s.Collection))
	tbl.RawSetString("axis_correction", lua.LBool(s.AxisCorrection))
	tbl.RawSetString("background", lua.LString(s.Background))
	L.SetGlobal("scene", tbl)

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("settings script %s failed: %w", path, err)
	}

	if v := tbl.RawGetString("collection"); v != lua.LNil {
		s.Collection = lua.LVAsString(v)
	}
	if v := tbl.RawGetString("axis_correction"); v != lua.LNil {
		s.AxisCorrection = lua.LVAsBool(v)
	}
	if v := tbl.RawGetString("background"); v != lua.LNil {
		s.Background = lua.LVAsString(v)
	}
	return nil
}
