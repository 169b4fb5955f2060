package model

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/gfx/gfxtest"
	"github.com/Faultbox/sceneview/internal/engine/mesh"
	"github.com/Faultbox/sceneview/internal/engine/texture"
	"github.com/Faultbox/sceneview/pkg/formats"
)

type stubImporter struct {
	scene *formats.Scene
	err   error
	flags formats.ImportFlags
}

func (s *stubImporter) Import(path string, flags formats.ImportFlags) (*formats.Scene, error) {
	s.flags = flags
	return s.scene, s.err
}

// stubTextures hands out sequential handles and fails for "broken" files.
type stubTextures struct {
	next     gfx.Texture
	calls    []string
	embedded map[string][]byte
}

func (s *stubTextures) LoadEncoded(key string, data []byte, flip bool) (gfx.Texture, int) {
	if s.embedded == nil {
		s.embedded = make(map[string][]byte)
	}
	s.embedded[key] = data
	s.next++
	return 100 + s.next, 4
}

func (s *stubTextures) Load(path string, flip bool) (gfx.Texture, int) {
	s.calls = append(s.calls, path)
	if filepath.Base(path) == "broken.png" {
		return gfx.NoTexture, 0
	}
	s.next++
	return 100 + s.next, 4
}

func tri(name string, material int, withNormals bool) formats.RawMesh {
	m := formats.RawMesh{
		Name:      name,
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		UVs:       [][2]float32{{0, 0}, {1, 0}, {0, 1}},
		Faces:     [][3]uint32{{0, 1, 2}},
		Material:  material,
	}
	if withNormals {
		m.Normals = [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}}
	}
	return m
}

// treeScene: root -> [A -> [C], B]; meshes are named after their node.
func treeScene() *formats.Scene {
	return &formats.Scene{
		Root: 0,
		Nodes: []formats.Node{
			{Name: "root", Children: []int{1, 2}},
			{Name: "A", Meshes: []int{0}, Children: []int{3}},
			{Name: "B", Meshes: []int{1}},
			{Name: "C", Meshes: []int{2}},
		},
		Meshes: []formats.RawMesh{
			tri("A", 0, true),
			tri("B", 1, false),
			tri("C", 0, true),
		},
		Materials: []formats.Material{
			{Name: "bark", Diffuse: []string{"bark.png"}, Specular: []string{"bark_spec.png"}},
			{Name: "leaf", Diffuse: []string{"leaf.png", "broken.png"}},
		},
	}
}

func newLoader(scene *formats.Scene, err error) (Loader, *gfxtest.Backend, *stubTextures, *stubImporter) {
	b := gfxtest.New(16)
	tex := &stubTextures{}
	imp := &stubImporter{scene: scene, err: err}
	return Loader{Backend: b, Textures: tex, Importer: imp}, b, tex, imp
}

func TestLoadTraversalOrder(t *testing.T) {
	l, b, _, _ := newLoader(treeScene(), nil)

	m, err := l.Load("assets/tree/tree.obj", Options{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Pre-order: A, C, B. Geometry handles are issued in that order.
	meshes := m.Meshes()
	if len(meshes) != 3 {
		t.Fatalf("expected 3 meshes, got %d", len(meshes))
	}
	for i := 1; i < len(meshes); i++ {
		if meshes[i-1].Geometry() >= meshes[i].Geometry() {
			t.Errorf("meshes out of upload order at %d", i)
		}
	}
	// A and C carry bark (2 textures); B carries leaf (1 valid texture).
	want := []int{2, 2, 1}
	for i, mm := range meshes {
		if got := len(mm.Textures()); got != want[i] {
			t.Errorf("mesh %d: expected %d textures, got %d", i, want[i], got)
		}
	}
	if b.Count("upload-geometry") != 3 {
		t.Errorf("expected 3 geometry uploads, got %d", b.Count("upload-geometry"))
	}
}

func TestLoadDeduplicatesTextures(t *testing.T) {
	l, _, tex, _ := newLoader(treeScene(), nil)

	m, err := l.Load("assets/tree/tree.obj", Options{FlipTextures: true})
	if err != nil {
		t.Fatal(err)
	}

	// bark.png and bark_spec.png are shared by A and C.
	wantCalls := []string{
		filepath.Join("assets/tree", "bark.png"),
		filepath.Join("assets/tree", "bark_spec.png"),
		filepath.Join("assets/tree", "leaf.png"),
		filepath.Join("assets/tree", "broken.png"),
	}
	if len(tex.calls) != len(wantCalls) {
		t.Fatalf("expected %d loads, got %v", len(wantCalls), tex.calls)
	}
	for i := range wantCalls {
		if tex.calls[i] != wantCalls[i] {
			t.Errorf("load %d = %s, want %s", i, tex.calls[i], wantCalls[i])
		}
	}

	meshes := m.Meshes()
	if meshes[0].Textures()[0] != meshes[1].Textures()[0] {
		t.Error("meshes A and C do not share the diffuse texture")
	}
	if r := meshes[0].Textures()[1].Role; r != texture.Specular {
		t.Errorf("expected specular role, got %s", r)
	}

	broken, ok := m.Texture("broken.png")
	if !ok {
		t.Fatal("broken texture not registered")
	}
	if broken.Handle.Valid() {
		t.Error("broken texture has a valid handle")
	}
}

func TestLoadMissingNormalsAreZero(t *testing.T) {
	l, _, _, _ := newLoader(treeScene(), nil)
	m, err := l.Load("tree.obj", Options{})
	if err != nil {
		t.Fatal(err)
	}

	b := m.Meshes()[2] // node B
	for i, v := range b.Vertices() {
		if v.Normal != ([3]float32{}) {
			t.Errorf("vertex %d: expected zero normal, got %v", i, v.Normal)
		}
	}
	if got := m.Meshes()[0].Vertices()[0].Normal; got != [3]float32{0, 0, 1} {
		t.Errorf("expected imported normal, got %v", got)
	}
}

func TestLoadFlags(t *testing.T) {
	l, _, _, imp := newLoader(treeScene(), nil)

	if _, err := l.Load("tree.obj", Options{FlipUVs: true}); err != nil {
		t.Fatal(err)
	}
	if !imp.flags.Has(formats.Triangulate | formats.FlipUVs) {
		t.Errorf("expected Triangulate|FlipUVs, got %b", imp.flags)
	}

	if _, err := l.Load("tree.obj", Options{}); err != nil {
		t.Fatal(err)
	}
	if imp.flags.Has(formats.FlipUVs) {
		t.Error("FlipUVs set without option")
	}
}

func TestLoadImportFailure(t *testing.T) {
	l, b, _, _ := newLoader(nil, formats.ErrUnsupportedFormat)

	m, err := l.Load("tree.fbx", Options{})
	if !errors.Is(err, formats.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if m == nil || len(m.Meshes()) != 0 {
		t.Fatal("expected an empty model")
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	if err := m.Draw(b, 16, nil); err != nil {
		t.Errorf("drawing empty model: %v", err)
	}
	if len(b.Draws) != 0 {
		t.Errorf("expected no draws, got %d", len(b.Draws))
	}
}

func TestLoadRejectsInvalidScene(t *testing.T) {
	s := treeScene()
	s.Nodes[2].Children = []int{0}
	l, _, _, _ := newLoader(s, nil)

	if _, err := l.Load("tree.obj", Options{}); !errors.Is(err, formats.ErrIncompleteScene) {
		t.Errorf("expected ErrIncompleteScene, got %v", err)
	}
}

func TestLoadSkipsEmptyMesh(t *testing.T) {
	s := treeScene()
	s.Meshes[1].Faces = nil
	l, _, _, _ := newLoader(s, nil)

	m, err := l.Load("tree.obj", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Meshes()) != 2 {
		t.Errorf("expected empty mesh skipped, got %d meshes", len(m.Meshes()))
	}
}

func TestBounds(t *testing.T) {
	s := treeScene()
	s.Meshes[2].Positions = [][3]float32{{-2, 0, 0}, {1, 5, 0}, {0, 1, -3}}
	l, _, _, _ := newLoader(s, nil)

	m, err := l.Load("tree.obj", Options{})
	if err != nil {
		t.Fatal(err)
	}
	got := m.Bounds()
	if got.Min != [3]float32{-2, 0, -3} || got.Max != [3]float32{1, 5, 0} {
		t.Errorf("unexpected bounds %+v", got)
	}
}

func TestDrawReportsRefusedMeshes(t *testing.T) {
	l, b, _, _ := newLoader(treeScene(), nil)
	m, err := l.Load("tree.obj", Options{})
	if err != nil {
		t.Fatal(err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)

	// One unit: bark meshes need two, leaf needs one.
	if err := m.Draw(b, 1, nil); !errors.Is(err, mesh.ErrTextureUnits) {
		t.Fatalf("expected ErrTextureUnits, got %v", err)
	}
	if len(b.Draws) != 1 {
		t.Errorf("expected only the leaf mesh drawn, got %d draws", len(b.Draws))
	}
}

func TestLoadEmbeddedTextures(t *testing.T) {
	s := treeScene()
	s.Materials[0].Diffuse = []string{"tree.glb#image0"}
	s.Images = map[string][]byte{"tree.glb#image0": {1, 2, 3}}
	l, _, tex, _ := newLoader(s, nil)

	m, err := l.Load("assets/tree/tree.glb", Options{})
	if err != nil {
		t.Fatal(err)
	}

	key := filepath.Join("assets/tree", "tree.glb#image0")
	if got := tex.embedded[key]; len(got) != 3 {
		t.Errorf("embedded image not passed on: %v", tex.embedded)
	}
	if len(tex.embedded) != 1 {
		t.Errorf("embedded image decoded %d times", len(tex.embedded))
	}
	for _, c := range tex.calls {
		if c == key {
			t.Error("embedded image read as a file")
		}
	}
	if tx, ok := m.Texture("tree.glb#image0"); !ok || !tx.Handle.Valid() || tx.Role != texture.Diffuse {
		t.Errorf("registry entry %+v %v", tx, ok)
	}
}

func TestDestroy(t *testing.T) {
	l, b, _, _ := newLoader(treeScene(), nil)
	m, err := l.Load("tree.obj", Options{})
	if err != nil {
		t.Fatal(err)
	}

	m.Destroy(b)
	if len(b.Geometries) != 0 {
		t.Errorf("expected geometry released, %d left", len(b.Geometries))
	}
	if b.Count("delete-texture") != 0 {
		t.Error("model destroyed cache-owned textures")
	}
}
