package formats

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
	"github.com/qmuntal/gltf/modeler"
)

// ImportGLTF reads a .gltf or .glb file.
func ImportGLTF(path string, flags ImportFlags) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening glTF %s: %w", path, err)
	}
	return convertGLTF(doc, filepath.Base(path), flags)
}

// convertGLTF maps a document onto the arena. Arena node 0 is a synthetic
// root, named after the file, over the scene's root nodes; glTF node i
// becomes arena node i+1.
func convertGLTF(doc *gltf.Document, base string, flags ImportFlags) (*Scene, error) {
	s := &Scene{Root: 0}
	name := strings.TrimSuffix(base, filepath.Ext(base))

	for i, m := range doc.Materials {
		s.Materials = append(s.Materials, gltfMaterial(doc, m, i, base, s))
	}

	meshMap := make([][]int, len(doc.Meshes))
	for mi, m := range doc.Meshes {
		for pi, p := range m.Primitives {
			raw, err := gltfPrimitive(doc, p, flags)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d: %w", mi, pi, err)
			}
			if raw == nil {
				continue
			}
			raw.Name = m.Name
			meshMap[mi] = append(meshMap[mi], len(s.Meshes))
			s.Meshes = append(s.Meshes, *raw)
		}
	}

	s.Nodes = make([]Node, len(doc.Nodes)+1)
	s.Nodes[0] = Node{Name: name}
	for i, n := range doc.Nodes {
		node := Node{Name: n.Name}
		if n.Mesh != nil {
			if *n.Mesh < 0 || *n.Mesh >= len(meshMap) {
				return nil, fmt.Errorf("%w: node %d references mesh %d", ErrIncompleteScene, i, *n.Mesh)
			}
			node.Meshes = append(node.Meshes, meshMap[*n.Mesh]...)
		}
		for _, c := range n.Children {
			node.Children = append(node.Children, c+1)
		}
		s.Nodes[i+1] = node
	}

	for _, r := range gltfRoots(doc) {
		s.Nodes[0].Children = append(s.Nodes[0].Children, r+1)
	}
	return s, nil
}

// gltfRoots returns the root nodes of the default scene, or every node that
// is nobody's child when the file declares no scene.
func gltfRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
			idx = *doc.Scene
		}
		return doc.Scenes[idx].Nodes
	}

	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

// gltfPrimitive converts one primitive. Point and line primitives carry no
// surface and yield nil.
func gltfPrimitive(doc *gltf.Document, p *gltf.Primitive, flags ImportFlags) (*RawMesh, error) {
	switch p.Mode {
	case gltf.PrimitiveTriangles, gltf.PrimitiveTriangleStrip, gltf.PrimitiveTriangleFan:
	default:
		return nil, nil
	}
	if p.Mode != gltf.PrimitiveTriangles && !flags.Has(Triangulate) {
		return nil, ErrNotTriangulated
	}

	posIdx, ok := p.Attributes[gltf.POSITION]
	if !ok {
		return nil, fmt.Errorf("%w: primitive without positions", ErrIncompleteScene)
	}
	acr, err := accessor(doc, posIdx)
	if err != nil {
		return nil, err
	}
	raw := &RawMesh{Material: NoMaterial}
	if raw.Positions, err = modeler.ReadPosition(doc, acr, nil); err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	if i, ok := p.Attributes[gltf.NORMAL]; ok {
		if acr, err = accessor(doc, i); err != nil {
			return nil, err
		}
		if raw.Normals, err = modeler.ReadNormal(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}

	if i, ok := p.Attributes[gltf.TEXCOORD_0]; ok {
		if acr, err = accessor(doc, i); err != nil {
			return nil, err
		}
		if raw.UVs, err = modeler.ReadTextureCoord(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading texture coordinates: %w", err)
		}
		if flags.Has(FlipUVs) {
			flipV(raw.UVs)
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if acr, err = accessor(doc, *p.Indices); err != nil {
			return nil, err
		}
		if indices, err = modeler.ReadIndices(doc, acr, nil); err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(raw.Positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	switch p.Mode {
	case gltf.PrimitiveTriangleStrip:
		raw.Faces = triangulateStrip(indices)
	case gltf.PrimitiveTriangleFan:
		raw.Faces = triangulateFan(indices)
	default:
		raw.Faces = triangleList(indices)
	}

	if p.Material != nil {
		raw.Material = *p.Material
	}
	return raw, nil
}

func accessor(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("%w: accessor %d of %d", ErrIncompleteScene, i, len(doc.Accessors))
	}
	return doc.Accessors[i], nil
}

// gltfMaterial maps the base colour texture to the diffuse slot and the
// specular texture of KHR_materials_specular or the specular-glossiness
// extension to the specular slot. Textures that cannot be resolved are
// recorded as warnings.
func gltfMaterial(doc *gltf.Document, m *gltf.Material, i int, base string, s *Scene) Material {
	mat := Material{Name: m.Name}
	if mat.Name == "" {
		mat.Name = fmt.Sprintf("material%d", i)
	}

	add := func(list *[]string, info *gltf.TextureInfo) {
		if info == nil {
			return
		}
		p, err := gltfTexturePath(doc, info.Index, base, s)
		if err != nil {
			s.Warnings = append(s.Warnings, fmt.Sprintf("material %q: %v", mat.Name, err))
			return
		}
		*list = append(*list, p)
	}

	sg := specularGlossiness(m.Extensions)
	if pbr := m.PBRMetallicRoughness; pbr != nil && pbr.BaseColorTexture != nil {
		add(&mat.Diffuse, pbr.BaseColorTexture)
	} else if sg != nil {
		add(&mat.Diffuse, sg.DiffuseTexture)
	}

	if info := specularTexture(m.Extensions); info != nil {
		add(&mat.Specular, info)
	} else if sg != nil {
		add(&mat.Specular, sg.SpecularGlossinessTexture)
	}
	return mat
}

// KHRMaterialsSpecular is the extension carrying a dedicated specular map.
const KHRMaterialsSpecular = "KHR_materials_specular"

// specularTexture returns the KHR_materials_specular texture, if any. The
// library has no decoder for this extension so it arrives as raw JSON.
func specularTexture(ext gltf.Extensions) *gltf.TextureInfo {
	raw, ok := ext[KHRMaterialsSpecular].(json.RawMessage)
	if !ok {
		return nil
	}
	var v struct {
		SpecularTexture *gltf.TextureInfo `json:"specularTexture"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v.SpecularTexture
}

func specularGlossiness(ext gltf.Extensions) *specular.PBRSpecularGlossiness {
	switch v := ext[specular.ExtensionName].(type) {
	case *specular.PBRSpecularGlossiness:
		return v
	case json.RawMessage:
		if sg, err := specular.Unmarshal(v); err == nil {
			return sg.(*specular.PBRSpecularGlossiness)
		}
	}
	return nil
}

// gltfTexturePath resolves a texture to a path relative to the scene file.
// Images held in a buffer view or a data URI are copied into s.Images under
// "<file>#image<N>" so every material sharing one resolves to the same key.
func gltfTexturePath(doc *gltf.Document, tex int, base string, s *Scene) (string, error) {
	if tex < 0 || tex >= len(doc.Textures) || doc.Textures[tex].Source == nil {
		return "", fmt.Errorf("texture %d has no image", tex)
	}
	src := *doc.Textures[tex].Source
	if src < 0 || src >= len(doc.Images) {
		return "", fmt.Errorf("texture %d references image %d of %d", tex, src, len(doc.Images))
	}
	img := doc.Images[src]

	if img.BufferView == nil && !strings.HasPrefix(img.URI, "data:") {
		if img.URI == "" {
			return "", fmt.Errorf("image %d has no source", src)
		}
		if u, err := url.PathUnescape(img.URI); err == nil {
			return u, nil
		}
		return img.URI, nil
	}

	key := fmt.Sprintf("%s#image%d", base, src)
	if _, ok := s.Images[key]; ok {
		return key, nil
	}
	data, err := gltfImageData(doc, img)
	if err != nil {
		return "", fmt.Errorf("image %d: %w", src, err)
	}
	if s.Images == nil {
		s.Images = make(map[string][]byte)
	}
	s.Images[key] = data
	return key, nil
}

func gltfImageData(doc *gltf.Document, img *gltf.Image) ([]byte, error) {
	if img.BufferView != nil {
		bv := *img.BufferView
		if bv < 0 || bv >= len(doc.BufferViews) {
			return nil, fmt.Errorf("%w: buffer view %d of %d", ErrIncompleteScene, bv, len(doc.BufferViews))
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[bv])
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}

	// Other media types: data:<mime>[;base64],<payload>
	header, payload, ok := strings.Cut(strings.TrimPrefix(img.URI, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if strings.HasSuffix(header, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	text, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(text), nil
}
