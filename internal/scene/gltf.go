package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/qmuntal/gltf"
)

var identityMatrix = [16]float64{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// decodeObjects reads a glTF file (text or binary) and returns its root
// nodes as objects. Root nodes are the session's unit of pose tracking;
// child nodes travel with their root.
func decodeObjects(path string) ([]Object, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}

	roots := rootNodes(doc)
	objects := make([]Object, 0, len(roots))
	for _, idx := range roots {
		if int(idx) >= len(doc.Nodes) {
			return nil, fmt.Errorf("scene references node %d out of range", idx)
		}
		node := doc.Nodes[idx]
		loc, rot := nodeTRS(node)
		objects = append(objects, Object{
			Name:     node.Name,
			Location: loc,
			Rotation: rot,
		})
	}
	return objects, nil
}

// rootNodes returns the default scene's node indices, falling back to the
// first scene, then to all unparented nodes for documents with no scene.
func rootNodes(doc *gltf.Document) []uint32 {
	if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	isChild := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			isChild[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !isChild[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots
}

// nodeTRS extracts a node's translation and rotation, handling both TRS
// and matrix-form nodes. A zero-value rotation means "unset" in the wire
// format and decodes as identity.
func nodeTRS(n *gltf.Node) (mgl64.Vec3, mgl64.Quat) {
	if n.Matrix != ([16]float64{}) && n.Matrix != identityMatrix {
		m := mgl64.Mat4(n.Matrix)
		loc := mgl64.Vec3{m[12], m[13], m[14]}
		rot := mgl64.Mat4ToQuat(m).Normalize()
		return loc, rot
	}

	r := n.Rotation
	if r == ([4]float64{}) {
		r = [4]float64{0, 0, 0, 1}
	}
	loc := mgl64.Vec3{n.Translation[0], n.Translation[1], n.Translation[2]}
	rot := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}.Normalize()
	return loc, rot
}

// exportProject writes the object set as a binary glTF document with one
// TRS node per object. Object names carry through unchanged; they are the
// join key the keyframe importer matches on.
func exportProject(objects []Object, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	doc := gltf.NewDocument()
	for _, o := range objects {
		node := &gltf.Node{
			Name:        o.Name,
			Translation: [3]float64{o.Location[0], o.Location[1], o.Location[2]},
			Rotation:    [4]float64{o.Rotation.V[0], o.Rotation.V[1], o.Rotation.V[2], o.Rotation.W},
		}
		if o.Collection != "" {
			node.Extras = map[string]any{"collection": o.Collection}
		}
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)-1))
	}

	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("failed to export project: %w", err)
	}
	return nil
}
