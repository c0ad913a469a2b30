// Package importer replays a recorded frame list into a project's
// animation timeline. Each pose becomes one translation and one rotation
// key on the node whose name matches the pose's name; names with no match
// are skipped with a warning. This is the read-only counterpart of the
// recording server: it never touches the frame list or the catalog.
package importer

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"

	"github.com/qmuntal/gltf"

	"github.com/nepfaff/drake-blender-recorder/internal/keyframe"
)

// DefaultFPS is the playback rate keyframe times are derived from when
// none is given. Frame index i lands at time i/fps seconds.
const DefaultFPS = 24.0

// AnimationName is the name of the generated animation.
const AnimationName = "RecordedPoses"

// Options configures one import run.
type Options struct {
	// FramesPath is the frame-list dump written by the recording server.
	FramesPath string
	// ProjectPath is the project snapshot the server exported after the
	// first frame. Its node names are the join keys.
	ProjectPath string
	// OutputPath is where the animated project is written (*.glb). The
	// output is only written after the whole import succeeds; a failed
	// import leaves no partial file behind.
	OutputPath string
	FPS        float64
	Logger     *slog.Logger
}

// Result summarizes a completed import.
type Result struct {
	// Frames is the number of frames replayed.
	Frames int
	// Matched is the number of objects that received keyframes.
	Matched int
	// Skipped lists pose names with no matching project node.
	Skipped []string
}

// track collects one object's keys across all frames. Objects may be
// absent from individual frames; they simply get no key there.
type track struct {
	node  uint32
	times []float32
	locs  []float32
	rots  []float32
}

// Run replays the frame list into the project and writes the result.
func Run(opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	fps := opts.FPS
	if fps == 0 {
		fps = DefaultFPS
	}
	if fps < 0 {
		return nil, fmt.Errorf("fps must be positive, got %v", fps)
	}

	frames, err := keyframe.Load(opts.FramesPath)
	if err != nil {
		return nil, err
	}

	doc, err := gltf.Open(opts.ProjectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open project: %w", err)
	}

	nodeByName := make(map[string]uint32, len(doc.Nodes))
	for i, n := range doc.Nodes {
		if n.Name == "" {
			continue
		}
		if _, exists := nodeByName[n.Name]; !exists {
			nodeByName[n.Name] = uint32(i)
		}
	}

	tracks := make(map[string]*track)
	var order []string
	skipped := make(map[string]bool)

	for frameIdx, frame := range frames {
		t := float32(float64(frameIdx) / fps)
		for _, pose := range frame {
			nodeIdx, ok := nodeByName[pose.Name]
			if !ok {
				if !skipped[pose.Name] {
					skipped[pose.Name] = true
					logger.Warn("object not found in project, skipping", "name", pose.Name)
				}
				continue
			}

			tr, ok := tracks[pose.Name]
			if !ok {
				tr = &track{node: nodeIdx}
				tracks[pose.Name] = tr
				order = append(order, pose.Name)
			}
			tr.times = append(tr.times, t)
			tr.locs = append(tr.locs,
				float32(pose.Location[0]), float32(pose.Location[1]), float32(pose.Location[2]))
			tr.rots = append(tr.rots,
				float32(pose.Rotation[0]), float32(pose.Rotation[1]),
				float32(pose.Rotation[2]), float32(pose.Rotation[3]))
		}
	}

	anim := &gltf.Animation{Name: AnimationName}
	// The timeline's active range spans exactly the recorded frames.
	frameEnd := len(frames) - 1
	if frameEnd < 0 {
		frameEnd = 0
	}
	anim.Extras = map[string]any{
		"frame_start": 0,
		"frame_end":   frameEnd,
	}

	for _, name := range order {
		tr := tracks[name]

		input := writeAccessor(doc, gltf.AccessorScalar, len(tr.times), tr.times, true)
		locOut := writeAccessor(doc, gltf.AccessorVec3, len(tr.times), tr.locs, false)
		rotOut := writeAccessor(doc, gltf.AccessorVec4, len(tr.times), tr.rots, false)

		for _, ch := range []struct {
			output uint32
			path   gltf.TRSProperty
		}{
			{locOut, gltf.TRSTranslation},
			{rotOut, gltf.TRSRotation},
		} {
			anim.Samplers = append(anim.Samplers, &gltf.AnimationSampler{
				Input:         input,
				Output:        ch.output,
				Interpolation: gltf.InterpolationLinear,
			})
			anim.Channels = append(anim.Channels, &gltf.AnimationChannel{
				Sampler: uint32(len(anim.Samplers) - 1),
				Target: gltf.AnimationChannelTarget{
					Node: gltf.Index(tr.node),
					Path: ch.path,
				},
			})
		}
	}

	// An animation without channels is not representable, so a recording
	// that matched nothing (or an empty frame list) leaves the project's
	// animations untouched.
	if len(anim.Channels) > 0 {
		doc.Animations = append(doc.Animations, anim)
	}

	if err := gltf.SaveBinary(doc, opts.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to write animated project: %w", err)
	}

	result := &Result{Frames: len(frames), Matched: len(order)}
	for name := range skipped {
		result.Skipped = append(result.Skipped, name)
	}
	logger.Info("imported keyframes",
		"frames", result.Frames,
		"objects", result.Matched,
		"skipped", len(result.Skipped),
	)
	return result, nil
}

// writeAccessor appends float32 data to the document's buffer and returns
// the new accessor's index. Min/max bounds are recorded for sampler
// inputs, as the format requires.
func writeAccessor(doc *gltf.Document, accType gltf.AccessorType, count int, data []float32, withBounds bool) uint32 {
	if len(doc.Buffers) == 0 {
		doc.Buffers = append(doc.Buffers, &gltf.Buffer{})
	}
	buf := doc.Buffers[0]

	raw := make([]byte, 4*len(data))
	for i, v := range data {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}

	offset := uint32(len(buf.Data))
	buf.Data = append(buf.Data, raw...)
	buf.ByteLength = uint32(len(buf.Data))

	doc.BufferViews = append(doc.BufferViews, &gltf.BufferView{
		Buffer:     0,
		ByteOffset: offset,
		ByteLength: uint32(len(raw)),
	})

	acc := &gltf.Accessor{
		BufferView:    gltf.Index(uint32(len(doc.BufferViews) - 1)),
		ComponentType: gltf.ComponentFloat,
		Count:         uint32(count),
		Type:          accType,
	}
	if withBounds && len(data) > 0 {
		min, max := data[0], data[0]
		for _, v := range data[1:] {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
		acc.Min = []float64{float64(min)}
		acc.Max = []float64{float64(max)}
	}
	doc.Accessors = append(doc.Accessors, acc)
	return uint32(len(doc.Accessors) - 1)
}
