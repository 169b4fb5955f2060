package mesh

import (
	"errors"
	"testing"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/engine/gfx/gfxtest"
	"github.com/Faultbox/sceneview/internal/engine/texture"
)

func triangle() ([]gfx.Vertex, []uint32) {
	return []gfx.Vertex{
		{Position: [3]float32{0, 0, 0}},
		{Position: [3]float32{1, 0, 0}},
		{Position: [3]float32{0, 1, 0}},
	}, []uint32{0, 1, 2}
}

func TestNewRejectsBadIndices(t *testing.T) {
	b := gfxtest.New(16)
	verts, _ := triangle()

	if _, err := New(b, verts, nil, nil); err == nil {
		t.Error("expected error for empty index list")
	}
	if _, err := New(b, verts, []uint32{0, 1, 3}, nil); err == nil {
		t.Error("expected error for out-of-range index")
	}
	if n := b.Count("upload-geometry"); n != 0 {
		t.Errorf("expected no uploads, got %d", n)
	}
}

func TestDrawAssignsUnitsPerRole(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	texs := []texture.Texture{
		{Handle: 101, Role: texture.Diffuse},
		{Handle: 102, Role: texture.Specular},
		{Handle: 103, Role: texture.Diffuse},
	}

	m, err := New(b, verts, idx, texs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	if err := m.Draw(b, 15, nil); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if len(b.Draws) != 1 {
		t.Fatalf("expected one draw, got %d", len(b.Draws))
	}
	d := b.Draws[0]
	if !d.Indexed || d.Count != 3 {
		t.Errorf("expected indexed draw of 3, got %+v", d)
	}

	want := map[string]int32{
		"texture_diffuse1":  0,
		"texture_specular1": 1,
		"texture_diffuse2":  2,
	}
	for name, unit := range want {
		if got := d.Uniforms[name]; got != unit {
			t.Errorf("%s = %v, want %d", name, got, unit)
		}
	}
	for unit, h := range []gfx.Texture{101, 102, 103} {
		if d.Textures[unit] != h {
			t.Errorf("unit %d bound %d, want %d", unit, d.Textures[unit], h)
		}
	}
}

func TestDrawWithoutTextures(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	m, err := New(b, verts, idx, nil)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	if err := m.Draw(b, 0, nil); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(b.Draws) != 1 {
		t.Errorf("expected one draw, got %d", len(b.Draws))
	}
}

func TestDrawBindsFallbackForMissingRoles(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	m, err := New(b, verts, idx, []texture.Texture{{Handle: 101, Role: texture.Diffuse}})
	if err != nil {
		t.Fatal(err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	b.BindTexture(1, 900) // left over from an earlier pass

	fallback := Fallback{texture.Diffuse: 201, texture.Specular: 202}
	if err := m.Draw(b, 4, fallback); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	d := b.Draws[0]
	if d.Textures[0] != 101 || d.Uniforms["texture_diffuse1"] != int32(0) {
		t.Errorf("own diffuse not on unit 0: %v %v", d.Textures, d.Uniforms["texture_diffuse1"])
	}
	if d.Textures[1] != 202 || d.Uniforms["texture_specular1"] != int32(1) {
		t.Errorf("specular fallback not on unit 1: %v %v", d.Textures, d.Uniforms["texture_specular1"])
	}
}

func TestDrawUntexturedUsesFallbacks(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	m, err := New(b, verts, idx, nil)
	if err != nil {
		t.Fatal(err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	b.BindTexture(0, 900)

	if err := m.Draw(b, 4, Fallback{texture.Diffuse: 201, texture.Specular: 202}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	d := b.Draws[0]
	if d.Textures[0] != 201 || d.Textures[1] != 202 {
		t.Errorf("fallbacks not bound: %v", d.Textures)
	}
	if d.Uniforms["texture_diffuse1"] != int32(0) || d.Uniforms["texture_specular1"] != int32(1) {
		t.Errorf("samplers = %v %v", d.Uniforms["texture_diffuse1"], d.Uniforms["texture_specular1"])
	}
}

func TestDrawWithoutFreeUnitPointsSamplerAtOwnTexture(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	m, err := New(b, verts, idx, []texture.Texture{{Handle: 101, Role: texture.Diffuse}})
	if err != nil {
		t.Fatal(err)
	}

	p, _ := b.CompileProgram("v", "f")
	b.UseProgram(p)
	b.SetUniformInt("texture_specular1", 5)

	if err := m.Draw(b, 1, Fallback{texture.Specular: 202}); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	d := b.Draws[0]
	if d.Uniforms["texture_specular1"] != int32(0) {
		t.Errorf("texture_specular1 = %v, want 0", d.Uniforms["texture_specular1"])
	}
	if n := b.Count("bind-texture 0 202"); n != 0 {
		t.Error("fallback bound over the mesh's own texture")
	}
}

func TestDrawRefusesTooManyTextures(t *testing.T) {
	b := gfxtest.New(2)
	verts, idx := triangle()
	texs := []texture.Texture{
		{Handle: 1, Role: texture.Diffuse},
		{Handle: 2, Role: texture.Diffuse},
		{Handle: 3, Role: texture.Specular},
	}
	m, err := New(b, verts, idx, texs)
	if err != nil {
		t.Fatal(err)
	}

	err = m.Draw(b, 2, nil)
	if !errors.Is(err, ErrTextureUnits) {
		t.Fatalf("expected ErrTextureUnits, got %v", err)
	}
	if n := b.Count("bind-texture"); n != 0 {
		t.Errorf("expected no bindings, got %d", n)
	}
	if len(b.Draws) != 0 {
		t.Errorf("expected no draws, got %d", len(b.Draws))
	}
}

func TestMeshCopiesTextureList(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	texs := []texture.Texture{{Handle: 7, Role: texture.Diffuse}}

	m, err := New(b, verts, idx, texs)
	if err != nil {
		t.Fatal(err)
	}
	texs[0].Handle = 99
	if m.Textures()[0].Handle != 7 {
		t.Error("mesh shares the caller's texture slice")
	}
}

func TestDestroy(t *testing.T) {
	b := gfxtest.New(16)
	verts, idx := triangle()
	m, err := New(b, verts, idx, nil)
	if err != nil {
		t.Fatal(err)
	}

	m.Destroy(b)
	m.Destroy(b)
	if n := b.Count("delete-geometry"); n != 1 {
		t.Errorf("expected one deletion, got %d", n)
	}
	if m.Geometry().Valid() {
		t.Error("geometry still valid after Destroy")
	}
}
