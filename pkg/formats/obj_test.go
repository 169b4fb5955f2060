package formats

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/g3n/engine/loader/obj"
)

func quadDecoder() *obj.Decoder {
	return &obj.Decoder{
		Vertices: []float32{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
			0, 0, 1,
		},
		Uvs:     []float32{0, 0, 1, 0, 1, 1, 0, 0.25},
		Normals: []float32{0, 0, 1},
		Objects: []obj.Object{
			{
				Name: "trunk",
				Faces: []obj.Face{
					{Vertices: []int{0, 1, 2, 3}, Uvs: []int{0, 1, 2, 3}, Normals: []int{0, 0, 0, 0}, Material: "bark"},
					{Vertices: []int{0, 2, 4}, Uvs: []int{0, 2, -1}, Normals: []int{0, 0, 0}, Material: "bark"},
					{Vertices: []int{1, 2, 4}, Uvs: []int{-1, -1, -1}, Normals: []int{-1, -1, -1}, Material: "leaf"},
				},
			},
			{
				Name: "stone",
				Faces: []obj.Face{
					{Vertices: []int{0, 1, 4}, Material: "bark"},
				},
			},
		},
		Materials: map[string]*obj.Material{
			"bark": {Name: "bark", MapKd: "textures/bark.png"},
			"leaf": {Name: "leaf"},
		},
	}
}

func TestConvertOBJ(t *testing.T) {
	s, err := convertOBJ(quadDecoder(), "tree", Triangulate, map[string]string{"bark": "textures/bark_spec.png"})
	if err != nil {
		t.Fatalf("convertOBJ: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if len(s.Nodes) != 3 {
		t.Fatalf("expected root plus 2 objects, got %d nodes", len(s.Nodes))
	}
	if got := s.Nodes[0].Children; len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("unexpected root children %v", got)
	}
	if s.Nodes[1].Name != "trunk" || len(s.Nodes[1].Meshes) != 2 {
		t.Errorf("unexpected trunk node %+v", s.Nodes[1])
	}

	if len(s.Meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(s.Meshes))
	}

	bark := s.Meshes[0]
	// Quad fans into 2 triangles, plus the extra triangle: 3 faces.
	if len(bark.Faces) != 3 {
		t.Errorf("expected 3 faces, got %d", len(bark.Faces))
	}
	// Corners (0,0,0) and (2,2,0) are shared; (4,-1,0) is new: 5 vertices.
	if len(bark.Positions) != 5 {
		t.Errorf("expected 5 unique corners, got %d", len(bark.Positions))
	}
	if bark.Faces[0] != [3]uint32{0, 1, 2} || bark.Faces[1] != [3]uint32{0, 2, 3} {
		t.Errorf("unexpected fan %v", bark.Faces[:2])
	}
	if len(bark.UVs) != 5 || len(bark.Normals) != 5 {
		t.Errorf("expected uvs and normals per vertex, got %d and %d", len(bark.UVs), len(bark.Normals))
	}
	if bark.UVs[4] != ([2]float32{}) {
		t.Errorf("corner without uv should be zero, got %v", bark.UVs[4])
	}

	leaf := s.Meshes[1]
	if leaf.UVs != nil || leaf.Normals != nil {
		t.Error("expected nil uvs and normals for leaf mesh")
	}

	if len(s.Materials) != 2 {
		t.Fatalf("expected 2 materials, got %d", len(s.Materials))
	}
	if m := s.Materials[bark.Material]; m.Name != "bark" || len(m.Diffuse) != 1 || m.Diffuse[0] != "textures/bark.png" {
		t.Errorf("unexpected bark material %+v", m)
	}
	if m := s.Materials[bark.Material]; len(m.Specular) != 1 || m.Specular[0] != "textures/bark_spec.png" {
		t.Errorf("unexpected bark specular maps %v", m.Specular)
	}
	if m := s.Materials[leaf.Material]; len(m.Diffuse) != 0 || len(m.Specular) != 0 {
		t.Errorf("expected untextured leaf, got %+v", m)
	}

	// The second object reuses the first material entry.
	if s.Meshes[2].Material != bark.Material {
		t.Errorf("expected shared material index, got %d", s.Meshes[2].Material)
	}
}

func TestConvertOBJFlipUVs(t *testing.T) {
	s, err := convertOBJ(quadDecoder(), "tree", Triangulate|FlipUVs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.Meshes[0].UVs[3]; got != [2]float32{0, 0.75} {
		t.Errorf("expected flipped uv (0,0.75), got %v", got)
	}
}

func TestConvertOBJErrors(t *testing.T) {
	if _, err := convertOBJ(quadDecoder(), "tree", 0, nil); !errors.Is(err, ErrNotTriangulated) {
		t.Errorf("expected ErrNotTriangulated, got %v", err)
	}

	dec := quadDecoder()
	dec.Objects[1].Faces[0].Vertices[2] = 42
	if _, err := convertOBJ(dec, "tree", Triangulate, nil); !errors.Is(err, ErrIncompleteScene) {
		t.Errorf("expected ErrIncompleteScene, got %v", err)
	}
}

func TestImportOBJFile(t *testing.T) {
	dir := t.TempDir()
	objSrc := `mtllib cube.mtl
o face
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl wood
f 1/1/1 2/2/1 3/3/1 4/4/1
`
	mtlSrc := `newmtl wood
Kd 1 1 1
map_Kd wood.png
map_Ks -bm 0.5 wood_spec.png

newmtl plain
Kd 0.5 0.5 0.5
`
	if err := os.WriteFile(filepath.Join(dir, "cube.obj"), []byte(objSrc), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "cube.mtl"), []byte(mtlSrc), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := FileImporter{}.Import(filepath.Join(dir, "cube.obj"), Triangulate)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if len(s.Meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(s.Meshes))
	}
	m := s.Meshes[0]
	if len(m.Positions) != 4 || len(m.Faces) != 2 {
		t.Errorf("expected 4 vertices and 2 faces, got %d and %d", len(m.Positions), len(m.Faces))
	}
	if m.Material == NoMaterial || len(s.Materials[m.Material].Diffuse) != 1 {
		t.Fatalf("expected wood material with a diffuse map, got %+v", s.Materials)
	}
	if got := s.Materials[m.Material].Diffuse[0]; got != "wood.png" {
		t.Errorf("expected wood.png, got %q", got)
	}
	if got := s.Materials[m.Material].Specular; len(got) != 1 || got[0] != "wood_spec.png" {
		t.Errorf("expected wood_spec.png specular map, got %v", got)
	}
}

func TestSpecularMaps(t *testing.T) {
	src := `# library
map_Ks orphan.png
newmtl a
map_Kd a.png
map_Ks a_spec.png
newmtl b
newmtl c
map_Ks -s 1 1 1 spec.png
`
	got, err := specularMaps(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"a": "a_spec.png", "c": "spec.png"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: got %q, want %q", k, got[k], v)
		}
	}
}

func TestReadSpecularMapsWithoutLibrary(t *testing.T) {
	got, err := readSpecularMaps(filepath.Join(t.TempDir(), "lonely.obj"), "")
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}
