package importer

import (
	"encoding/binary"
	"encoding/gob"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/nepfaff/drake-blender-recorder/internal/keyframe"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFrames(t *testing.T, dir string, frames []keyframe.Frame) string {
	t.Helper()
	path := filepath.Join(dir, "frames.gob")
	if len(frames) == 0 {
		// The store only writes on append, so an empty dump is encoded
		// directly.
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		defer f.Close()
		if err := gob.NewEncoder(f).Encode(frames); err != nil {
			t.Fatalf("encoding empty frame list: %v", err)
		}
		return path
	}

	store, err := keyframe.NewStore(path)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	for _, f := range frames {
		if err := store.Append(f); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	return path
}

func writeProject(t *testing.T, dir string, names ...string) string {
	t.Helper()
	doc := gltf.NewDocument()
	for _, name := range names {
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: name})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}
	path := filepath.Join(dir, "project.glb")
	if err := gltf.SaveBinary(doc, path); err != nil {
		t.Fatalf("SaveBinary() error = %v", err)
	}
	return path
}

// readFloats decodes an accessor's float32 payload from the document buffer.
func readFloats(t *testing.T, doc *gltf.Document, accessor uint32) []float32 {
	t.Helper()
	acc := doc.Accessors[accessor]
	if acc.BufferView == nil {
		t.Fatalf("accessor %d has no buffer view", accessor)
	}
	view := doc.BufferViews[*acc.BufferView]
	data := doc.Buffers[view.Buffer].Data[view.ByteOffset : view.ByteOffset+view.ByteLength]

	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return out
}

func TestRun_WritesAnimation(t *testing.T) {
	dir := t.TempDir()

	frames := []keyframe.Frame{
		{
			{Name: "box", Location: [3]float64{0, 0, 1}, Rotation: [4]float64{0, 0, 0, 1}},
		},
		{
			{Name: "box", Location: [3]float64{0, 2, 1}, Rotation: [4]float64{0, 0, 1, 0}},
		},
	}
	framesPath := writeFrames(t, dir, frames)
	projectPath := writeProject(t, dir, "box", "floor")
	outPath := filepath.Join(dir, "animated.glb")

	result, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Frames != 2 {
		t.Errorf("Frames = %d, want 2", result.Frames)
	}
	if result.Matched != 1 {
		t.Errorf("Matched = %d, want 1", result.Matched)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Skipped = %v, want none", result.Skipped)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	if len(doc.Animations) != 1 {
		t.Fatalf("len(Animations) = %d, want 1", len(doc.Animations))
	}
	anim := doc.Animations[0]
	if anim.Name != AnimationName {
		t.Errorf("animation name = %q, want %q", anim.Name, AnimationName)
	}
	if len(anim.Channels) != 2 {
		t.Fatalf("len(Channels) = %d, want 2 (translation + rotation)", len(anim.Channels))
	}
	if len(anim.Samplers) != 2 {
		t.Fatalf("len(Samplers) = %d, want 2", len(anim.Samplers))
	}

	paths := []string{anim.Channels[0].Target.Path.String(), anim.Channels[1].Target.Path.String()}
	sort.Strings(paths)
	if paths[0] != "rotation" || paths[1] != "translation" {
		t.Errorf("channel paths = %v, want rotation and translation", paths)
	}
	for _, ch := range anim.Channels {
		if ch.Target.Node == nil || *ch.Target.Node != 0 {
			t.Errorf("channel targets node %v, want 0 (box)", ch.Target.Node)
		}
	}

	// Both samplers share the same input timeline: frames 0 and 1 at 24 fps.
	input := anim.Samplers[0].Input
	times := readFloats(t, doc, input)
	if len(times) != 2 {
		t.Fatalf("len(times) = %d, want 2", len(times))
	}
	wantT1 := float32(1.0 / DefaultFPS)
	if times[0] != 0 || times[1] != wantT1 {
		t.Errorf("times = %v, want [0 %v]", times, wantT1)
	}
	acc := doc.Accessors[input]
	if len(acc.Min) != 1 || acc.Min[0] != 0 {
		t.Errorf("input Min = %v, want [0]", acc.Min)
	}
	if len(acc.Max) != 1 || acc.Max[0] != float64(wantT1) {
		t.Errorf("input Max = %v, want [%v]", acc.Max, wantT1)
	}

	for _, ch := range anim.Channels {
		sampler := anim.Samplers[ch.Sampler]
		values := readFloats(t, doc, sampler.Output)
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			want := []float32{0, 0, 1, 0, 2, 1}
			for i := range want {
				if values[i] != want[i] {
					t.Errorf("translation values = %v, want %v", values, want)
					break
				}
			}
		case gltf.TRSRotation:
			want := []float32{0, 0, 0, 1, 0, 0, 1, 0}
			for i := range want {
				if values[i] != want[i] {
					t.Errorf("rotation values = %v, want %v", values, want)
					break
				}
			}
		}
	}

	extras, ok := anim.Extras.(map[string]any)
	if !ok {
		t.Fatalf("extras type = %T, want map", anim.Extras)
	}
	if start, end := extras["frame_start"], extras["frame_end"]; start == nil || end == nil {
		t.Errorf("extras = %v, want frame_start and frame_end", extras)
	}
}

func TestRun_SkipsUnknownObjects(t *testing.T) {
	dir := t.TempDir()

	frames := []keyframe.Frame{
		{
			{Name: "box", Location: [3]float64{1, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}},
			{Name: "ghost", Location: [3]float64{0, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}},
		},
		{
			{Name: "ghost", Location: [3]float64{0, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}},
		},
	}
	framesPath := writeFrames(t, dir, frames)
	projectPath := writeProject(t, dir, "box")
	outPath := filepath.Join(dir, "animated.glb")

	result, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Matched != 1 {
		t.Errorf("Matched = %d, want 1", result.Matched)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "ghost" {
		t.Errorf("Skipped = %v, want [ghost]", result.Skipped)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	if len(doc.Animations[0].Channels) != 2 {
		t.Errorf("len(Channels) = %d, want 2 (box only)", len(doc.Animations[0].Channels))
	}
}

func TestRun_ObjectAbsentFromSomeFrames(t *testing.T) {
	dir := t.TempDir()

	frames := []keyframe.Frame{
		{
			{Name: "box", Location: [3]float64{0, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}},
			{Name: "ball", Location: [3]float64{1, 1, 1}, Rotation: [4]float64{0, 0, 0, 1}},
		},
		{
			{Name: "box", Location: [3]float64{0, 0, 2}, Rotation: [4]float64{0, 0, 0, 1}},
		},
	}
	framesPath := writeFrames(t, dir, frames)
	projectPath := writeProject(t, dir, "box", "ball")
	outPath := filepath.Join(dir, "animated.glb")

	if _, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		Logger:      discardLogger(),
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	anim := doc.Animations[0]

	// ball appears only in frame 0, so its timeline has a single key.
	var ballInput, boxInput uint32
	for _, ch := range anim.Channels {
		switch *ch.Target.Node {
		case 0:
			boxInput = anim.Samplers[ch.Sampler].Input
		case 1:
			ballInput = anim.Samplers[ch.Sampler].Input
		}
	}
	if n := doc.Accessors[boxInput].Count; n != 2 {
		t.Errorf("box key count = %d, want 2", n)
	}
	if n := doc.Accessors[ballInput].Count; n != 1 {
		t.Errorf("ball key count = %d, want 1", n)
	}
}

func TestRun_CustomFPS(t *testing.T) {
	dir := t.TempDir()

	frames := []keyframe.Frame{
		{{Name: "box", Location: [3]float64{0, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}}},
		{{Name: "box", Location: [3]float64{0, 0, 1}, Rotation: [4]float64{0, 0, 0, 1}}},
	}
	framesPath := writeFrames(t, dir, frames)
	projectPath := writeProject(t, dir, "box")
	outPath := filepath.Join(dir, "animated.glb")

	if _, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		FPS:         10,
		Logger:      discardLogger(),
	}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	times := readFloats(t, doc, doc.Animations[0].Samplers[0].Input)
	if times[1] != 0.1 {
		t.Errorf("times[1] = %v, want 0.1", times[1])
	}
}

func TestRun_EmptyFrameList(t *testing.T) {
	dir := t.TempDir()

	framesPath := writeFrames(t, dir, nil)
	projectPath := writeProject(t, dir, "box")
	outPath := filepath.Join(dir, "animated.glb")

	result, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Frames != 0 || result.Matched != 0 {
		t.Errorf("result = %+v, want zero frames and matches", result)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	if len(doc.Animations) != 0 {
		t.Errorf("len(Animations) = %d, want 0 for an empty frame list", len(doc.Animations))
	}
}

func TestRun_NothingMatchedWritesNoAnimation(t *testing.T) {
	dir := t.TempDir()

	frames := []keyframe.Frame{
		{{Name: "ghost", Location: [3]float64{0, 0, 0}, Rotation: [4]float64{0, 0, 0, 1}}},
	}
	framesPath := writeFrames(t, dir, frames)
	projectPath := writeProject(t, dir, "box")
	outPath := filepath.Join(dir, "animated.glb")

	result, err := Run(Options{
		FramesPath:  framesPath,
		ProjectPath: projectPath,
		OutputPath:  outPath,
		Logger:      discardLogger(),
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Matched != 0 || len(result.Skipped) != 1 {
		t.Errorf("result = %+v, want no matches and one skipped name", result)
	}

	doc, err := gltf.Open(outPath)
	if err != nil {
		t.Fatalf("reopening output: %v", err)
	}
	if len(doc.Animations) != 0 {
		t.Errorf("len(Animations) = %d, want 0 when nothing matched", len(doc.Animations))
	}
}

func TestRun_MissingFrameList(t *testing.T) {
	dir := t.TempDir()
	projectPath := writeProject(t, dir, "box")

	_, err := Run(Options{
		FramesPath:  filepath.Join(dir, "nope.gob"),
		ProjectPath: projectPath,
		OutputPath:  filepath.Join(dir, "animated.glb"),
		Logger:      discardLogger(),
	})
	if err == nil {
		t.Fatal("Run() error = nil, want error for missing frame list")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "animated.glb")); !os.IsNotExist(statErr) {
		t.Error("output file exists after failed import")
	}
}
