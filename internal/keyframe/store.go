package keyframe

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Store accumulates frames in memory and rewrites the whole dump file after
// every append. The full rewrite makes persistence cost linear in the total
// frames seen so far; recordings are short enough that this is accepted.
type Store struct {
	path   string
	frames []Frame
}

// NewStore creates a store backed by the given dump path. The path must not
// already exist so a prior recording is never silently clobbered.
func NewStore(path string) (*Store, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("keyframe dump path %s already exists", path)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat keyframe dump path: %w", err)
	}
	return &Store{path: path}, nil
}

// Append adds one frame and persists the accumulated list. The in-memory
// list is only extended once the dump has been written, so a failed append
// leaves the store unchanged.
func (s *Store) Append(frame Frame) error {
	frames := append(s.frames, frame)
	if err := dump(s.path, frames); err != nil {
		return err
	}
	s.frames = frames
	return nil
}

// Len returns the number of recorded frames.
func (s *Store) Len() int {
	return len(s.frames)
}

// Frames returns the recorded frames. The caller must not mutate them.
func (s *Store) Frames() []Frame {
	return s.frames
}

// Path returns the dump file path.
func (s *Store) Path() string {
	return s.path
}

func dump(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame list: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(frames); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame list: %w", err)
	}
	return f.Close()
}
