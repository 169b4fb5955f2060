// Package formats imports scene files into a flat, index-based scene graph.
//
// Supported inputs are glTF 2.0 (.gltf, .glb) and Wavefront OBJ (.obj with an
// optional .mtl library). Every importer produces the same Scene shape: nodes
// live in an arena and refer to children and meshes by index.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Import errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported scene format")
	ErrIncompleteScene   = errors.New("incomplete scene")
	ErrNotTriangulated   = errors.New("non-triangle primitives without Triangulate")
)

// NoMaterial marks a mesh without a material.
const NoMaterial = -1

// ImportFlags select post-processing applied during import.
type ImportFlags uint8

const (
	// Triangulate splits strips, fans and polygons into triangles.
	Triangulate ImportFlags = 1 << iota
	// FlipUVs replaces every texture coordinate v with 1-v.
	FlipUVs
)

// Has reports whether all bits of f are set.
func (i ImportFlags) Has(f ImportFlags) bool { return i&f == f }

// Scene is an imported scene graph.
type Scene struct {
	Nodes     []Node
	Root      int
	Meshes    []RawMesh
	Materials []Material
	Warnings  []string

	// Images holds encoded image files stored inside the scene file, keyed
	// by the texture path materials use for them.
	Images map[string][]byte
}

// Node is one element of the node arena.
type Node struct {
	Name     string
	Meshes   []int // indices into Scene.Meshes
	Children []int // indices into Scene.Nodes
}

// RawMesh is triangulated geometry as read from the file. Normals and UVs are
// nil when the source has none; otherwise they match Positions in length.
type RawMesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	UVs       [][2]float32
	Faces     [][3]uint32
	Material  int // index into Scene.Materials or NoMaterial
}

// Material lists texture paths as written in the source file, or keys of
// Scene.Images for embedded images.
type Material struct {
	Name     string
	Diffuse  []string
	Specular []string
}

// Importer reads a scene file.
type Importer interface {
	Import(path string, flags ImportFlags) (*Scene, error)
}

// FileImporter chooses a decoder by file extension.
type FileImporter struct{}

// Import reads path and validates the resulting graph.
func (FileImporter) Import(path string, flags ImportFlags) (*Scene, error) {
	var (
		scene *Scene
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
		scene, err = ImportGLTF(path, flags)
	case ".obj":
		scene, err = ImportOBJ(path, flags)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := scene.Validate(); err != nil {
		return nil, err
	}
	return scene, nil
}

// Validate checks that every index is in range and that the nodes reachable
// from Root form a tree.
func (s *Scene) Validate() error {
	if s.Root < 0 || s.Root >= len(s.Nodes) {
		return fmt.Errorf("%w: root %d of %d nodes", ErrIncompleteScene, s.Root, len(s.Nodes))
	}

	for i, m := range s.Meshes {
		if err := m.validate(len(s.Materials)); err != nil {
			return fmt.Errorf("%w: mesh %d: %v", ErrIncompleteScene, i, err)
		}
	}

	seen := make([]bool, len(s.Nodes))
	stack := []int{s.Root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[n] {
			return fmt.Errorf("%w: node %d reached twice", ErrIncompleteScene, n)
		}
		seen[n] = true

		node := s.Nodes[n]
		for _, m := range node.Meshes {
			if m < 0 || m >= len(s.Meshes) {
				return fmt.Errorf("%w: node %d references mesh %d", ErrIncompleteScene, n, m)
			}
		}
		for _, c := range node.Children {
			if c < 0 || c >= len(s.Nodes) {
				return fmt.Errorf("%w: node %d references child %d", ErrIncompleteScene, n, c)
			}
			stack = append(stack, c)
		}
	}
	return nil
}

func (m *RawMesh) validate(materials int) error {
	n := len(m.Positions)
	if m.Normals != nil && len(m.Normals) != n {
		return fmt.Errorf("%d normals for %d positions", len(m.Normals), n)
	}
	if m.UVs != nil && len(m.UVs) != n {
		return fmt.Errorf("%d uvs for %d positions", len(m.UVs), n)
	}
	if m.Material != NoMaterial && (m.Material < 0 || m.Material >= materials) {
		return fmt.Errorf("material %d of %d", m.Material, materials)
	}
	for _, f := range m.Faces {
		for _, i := range f {
			if int(i) >= n {
				return fmt.Errorf("face index %d of %d positions", i, n)
			}
		}
	}
	return nil
}

// triangulateStrip turns a triangle strip into a list, keeping winding.
func triangulateStrip(idx []uint32) [][3]uint32 {
	var out [][3]uint32
	for i := 0; i+2 < len(idx); i++ {
		if i%2 == 0 {
			out = append(out, [3]uint32{idx[i], idx[i+1], idx[i+2]})
		} else {
			out = append(out, [3]uint32{idx[i+1], idx[i], idx[i+2]})
		}
	}
	return out
}

// triangulateFan turns a fan or convex polygon into a list.
func triangulateFan(idx []uint32) [][3]uint32 {
	var out [][3]uint32
	for i := 1; i+1 < len(idx); i++ {
		out = append(out, [3]uint32{idx[0], idx[i], idx[i+1]})
	}
	return out
}

// triangleList groups a flat index list into triangles, dropping a short tail.
func triangleList(idx []uint32) [][3]uint32 {
	out := make([][3]uint32, 0, len(idx)/3)
	for i := 0; i+2 < len(idx); i += 3 {
		out = append(out, [3]uint32{idx[i], idx[i+1], idx[i+2]})
	}
	return out
}

func flipV(uvs [][2]float32) {
	for i := range uvs {
		uvs[i][1] = 1 - uvs[i][1]
	}
}
