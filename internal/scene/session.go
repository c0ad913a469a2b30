// Package scene models the current import session's object set. The host
// 3D tool the recording was designed around keeps this state in a
// process-wide singleton; here it is an explicit Session value owned by
// the recorder and rebuilt for every request.
package scene

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/nepfaff/drake-blender-recorder/internal/keyframe"
	"github.com/nepfaff/drake-blender-recorder/internal/script"
)

// Object is one named object in the session with its world-space pose.
type Object struct {
	Name       string
	Location   mgl64.Vec3
	Rotation   mgl64.Quat
	Collection string
}

// Session is the recorder's scene state: the objects currently loaded plus
// the effective settings. Not safe for concurrent use; the request handler
// serializes access.
type Session struct {
	baseFile       string
	settingsScript string
	logger         *slog.Logger

	settings script.Settings
	objects  []Object
}

// Options configures a Session.
type Options struct {
	// BaseFile is an optional project (*.glb / *.gltf) reloaded before
	// every import, the equivalent of starting from a saved project
	// instead of a blank scene.
	BaseFile string
	// SettingsScript is an optional trusted Lua file applied after the
	// base load so that it has priority.
	SettingsScript string
	Logger         *slog.Logger
}

func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		baseFile:       opts.BaseFile,
		settingsScript: opts.SettingsScript,
		logger:         logger,
		settings:       script.DefaultSettings(),
	}
}

// Reset returns the session to a blank scene: no objects, default settings.
func (s *Session) Reset() {
	s.objects = nil
	s.settings = script.DefaultSettings()
}

// Objects returns the session's current object set.
func (s *Session) Objects() []Object {
	return s.objects
}

// Background returns the placeholder background color from the effective
// settings. A malformed value falls back to black.
func (s *Session) Background() color.RGBA {
	c, err := parseHexColor(s.settings.Background)
	if err != nil {
		s.logger.Warn("ignoring malformed background color", "value", s.settings.Background)
		return color.RGBA{A: 255}
	}
	return c
}

// Capture loads the scene file at scenePath into the session and returns
// the newly imported objects' poses as a frame snapshot. Before importing,
// the session reloads its base file (or resets to blank) and re-applies
// the settings script, so each capture starts from the same state. Any
// failure leaves no partial frame behind.
func (s *Session) Capture(scenePath string) (keyframe.Frame, error) {
	if s.baseFile != "" {
		if err := s.loadBase(); err != nil {
			return nil, err
		}
	} else {
		s.Reset()
	}

	if s.settingsScript != "" {
		if err := script.Apply(s.settingsScript, &s.settings); err != nil {
			return nil, err
		}
	}

	imported, err := decodeObjects(scenePath)
	if err != nil {
		return nil, fmt.Errorf("failed to import scene: %w", err)
	}

	if s.settings.AxisCorrection {
		// The glTF import convention rotates the scene 90 degrees about
		// the X axis relative to the simulation frame; compensate about
		// the world origin so poses stay axis-consistent across imports.
		// TODO: verify against glTF files whose root nodes pre-bake the
		// rotation; the correction is empirical, not derived.
		correction := mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{1, 0, 0})
		for i := range imported {
			imported[i].Location = correction.Rotate(imported[i].Location)
			imported[i].Rotation = correction.Mul(imported[i].Rotation).Normalize()
		}
	}

	taken := make(map[string]bool, len(s.objects)+len(imported))
	for _, o := range s.objects {
		taken[o.Name] = true
	}

	frame := make(keyframe.Frame, 0, len(imported))
	for i := range imported {
		imported[i].Name = uniqueName(imported[i].Name, taken)
		taken[imported[i].Name] = true
		// Group imports in a dedicated collection so repeated imports
		// don't collide with base objects.
		imported[i].Collection = s.settings.Collection

		q := imported[i].Rotation
		frame = append(frame, keyframe.Pose{
			Name:     imported[i].Name,
			Location: [3]float64{imported[i].Location[0], imported[i].Location[1], imported[i].Location[2]},
			Rotation: [4]float64{q.V[0], q.V[1], q.V[2], q.W},
		})
	}
	s.objects = append(s.objects, imported...)

	s.logger.Debug("captured frame", "objects", len(frame), "collection", s.settings.Collection)
	return frame, nil
}

// ExportProject writes the session's full object set as a binary glTF
// project snapshot.
func (s *Session) ExportProject(path string) error {
	return exportProject(s.objects, path)
}

func (s *Session) loadBase() error {
	s.Reset()
	objects, err := decodeObjects(s.baseFile)
	if err != nil {
		return fmt.Errorf("failed to load base file: %w", err)
	}
	taken := make(map[string]bool, len(objects))
	for i := range objects {
		objects[i].Name = uniqueName(objects[i].Name, taken)
		taken[objects[i].Name] = true
	}
	s.objects = objects
	return nil
}

// uniqueName disambiguates duplicate object names with ".001"-style
// suffixes so names stay unique within a frame snapshot.
func uniqueName(name string, taken map[string]bool) string {
	if name == "" {
		name = "Object"
	}
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}

func parseHexColor(s string) (color.RGBA, error) {
	var r, g, b uint8
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
