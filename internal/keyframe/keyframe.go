// Package keyframe holds the recorded per-frame object poses and their
// on-disk representation. The recording server is the only writer; the
// importer only ever reads.
package keyframe

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Pose is one object's pose snapshot within a frame. Name is the join key
// the importer matches against project objects, so names must be unique
// within a frame.
type Pose struct {
	Name string
	// Location is the world-space position (x, y, z).
	Location [3]float64
	// Rotation is a unit quaternion in glTF component order (x, y, z, w,
	// scalar last), matching the keyframe format the importer writes.
	Rotation [4]float64
}

// Frame is the set of object poses captured for one simulation time step.
type Frame []Pose

// Load reads a frame list previously written by a Store.
func Load(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame list: %w", err)
	}
	defer f.Close()

	var frames []Frame
	if err := gob.NewDecoder(f).Decode(&frames); err != nil {
		return nil, fmt.Errorf("failed to decode frame list %s: %w", path, err)
	}
	return frames, nil
}
