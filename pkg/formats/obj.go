package formats

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/g3n/engine/loader/obj"
)

// ImportOBJ reads a Wavefront OBJ file. Its material library is the one named
// by mtllib, or the .mtl file with the same base name; without one every face
// is untextured.
func ImportOBJ(path string, flags ImportFlags) (*Scene, error) {
	dec, err := obj.Decode(path, "")
	if err != nil {
		return nil, fmt.Errorf("decoding OBJ %s: %w", path, err)
	}
	spec, err := readSpecularMaps(path, dec.Matlib)
	if err != nil {
		dec.Warnings = append(dec.Warnings, fmt.Sprintf("reading specular maps: %v", err))
	}
	return convertOBJ(dec, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)), flags, spec)
}

// readSpecularMaps opens the material library the decoder would have used
// and collects map_Ks per material. A missing library is not an error.
func readSpecularMaps(objPath, matlib string) (map[string]string, error) {
	var candidates []string
	if matlib != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(objPath), matlib))
	}
	candidates = append(candidates, strings.TrimSuffix(objPath, ".obj")+".mtl")

	for _, p := range candidates {
		f, err := os.Open(p)
		if err != nil {
			continue
		}
		defer f.Close()
		return specularMaps(f)
	}
	return nil, nil
}

// specularMaps scans an MTL library for map_Ks statements. The file name is
// the last field; options such as -bm come before it.
func specularMaps(r io.Reader) (map[string]string, error) {
	maps := make(map[string]string)
	current := ""
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "newmtl":
			current = fields[1]
		case "map_Ks":
			if current != "" {
				maps[current] = fields[len(fields)-1]
			}
		}
	}
	return maps, sc.Err()
}

// cornerKey identifies a face corner by its position, uv and normal indices.
// Absent attributes are -1.
type cornerKey struct {
	v, uv, n int
}

// objBuilder accumulates one mesh, sharing corners with identical keys.
type objBuilder struct {
	mesh    RawMesh
	corners map[cornerKey]uint32
	hasUV   bool
	hasNorm bool
}

// convertOBJ maps every object to a child of a synthetic root. An object
// gets one mesh per material, in order of first use. specular maps material
// names to their map_Ks file.
func convertOBJ(dec *obj.Decoder, name string, flags ImportFlags, specular map[string]string) (*Scene, error) {
	s := &Scene{Root: 0, Warnings: append([]string(nil), dec.Warnings...)}
	s.Nodes = append(s.Nodes, Node{Name: name})

	matIndex := make(map[string]int)
	material := func(name string) int {
		if name == "" {
			return NoMaterial
		}
		if i, ok := matIndex[name]; ok {
			return i
		}
		m := Material{Name: name}
		if src, ok := dec.Materials[name]; ok && src.MapKd != "" {
			m.Diffuse = append(m.Diffuse, src.MapKd)
		}
		if ks := specular[name]; ks != "" {
			m.Specular = append(m.Specular, ks)
		}
		matIndex[name] = len(s.Materials)
		s.Materials = append(s.Materials, m)
		return matIndex[name]
	}

	for oi := range dec.Objects {
		o := &dec.Objects[oi]
		node := Node{Name: o.Name}

		var order []string
		builders := make(map[string]*objBuilder)
		for fi := range o.Faces {
			f := &o.Faces[fi]
			if len(f.Vertices) < 3 {
				continue
			}
			if len(f.Vertices) > 3 && !flags.Has(Triangulate) {
				return nil, fmt.Errorf("object %q: %w", o.Name, ErrNotTriangulated)
			}

			b, ok := builders[f.Material]
			if !ok {
				b = &objBuilder{
					mesh:    RawMesh{Name: o.Name, Material: material(f.Material)},
					corners: make(map[cornerKey]uint32),
				}
				builders[f.Material] = b
				order = append(order, f.Material)
			}

			poly := make([]uint32, len(f.Vertices))
			for c := range f.Vertices {
				idx, err := b.corner(dec, f, c)
				if err != nil {
					return nil, fmt.Errorf("object %q face %d: %w", o.Name, fi, err)
				}
				poly[c] = idx
			}
			b.mesh.Faces = append(b.mesh.Faces, triangulateFan(poly)...)
		}

		for _, mat := range order {
			b := builders[mat]
			if !b.hasUV {
				b.mesh.UVs = nil
			} else if flags.Has(FlipUVs) {
				flipV(b.mesh.UVs)
			}
			if !b.hasNorm {
				b.mesh.Normals = nil
			}
			node.Meshes = append(node.Meshes, len(s.Meshes))
			s.Meshes = append(s.Meshes, b.mesh)
		}

		s.Nodes[0].Children = append(s.Nodes[0].Children, len(s.Nodes))
		s.Nodes = append(s.Nodes, node)
	}

	return s, nil
}

// corner returns the mesh-local index of corner c of face f, appending a new
// vertex the first time a key is seen.
func (b *objBuilder) corner(dec *obj.Decoder, f *obj.Face, c int) (uint32, error) {
	key := cornerKey{
		v:  f.Vertices[c],
		uv: attrIndex(f.Uvs, c, len(dec.Uvs)/2),
		n:  attrIndex(f.Normals, c, len(dec.Normals)/3),
	}
	if key.v < 0 || key.v >= len(dec.Vertices)/3 {
		return 0, fmt.Errorf("%w: vertex %d of %d", ErrIncompleteScene, key.v, len(dec.Vertices)/3)
	}
	if idx, ok := b.corners[key]; ok {
		return idx, nil
	}

	idx := uint32(len(b.mesh.Positions))
	b.corners[key] = idx

	v := dec.Vertices[key.v*3:]
	b.mesh.Positions = append(b.mesh.Positions, [3]float32{v[0], v[1], v[2]})

	var uv [2]float32
	if key.uv >= 0 {
		t := dec.Uvs[key.uv*2:]
		uv = [2]float32{t[0], t[1]}
		b.hasUV = true
	}
	b.mesh.UVs = append(b.mesh.UVs, uv)

	var n [3]float32
	if key.n >= 0 {
		t := dec.Normals[key.n*3:]
		n = [3]float32{t[0], t[1], t[2]}
		b.hasNorm = true
	}
	b.mesh.Normals = append(b.mesh.Normals, n)

	return idx, nil
}

// attrIndex returns the attribute index of corner c, or -1 when the face
// has none or it is out of range.
func attrIndex(list []int, c, count int) int {
	if c >= len(list) {
		return -1
	}
	i := list[c]
	if i < 0 || i >= count {
		return -1
	}
	return i
}
