// Package texture decodes image files and keeps their GPU uploads deduplicated.
package texture

import "github.com/Faultbox/sceneview/internal/engine/gfx"

// Role is the material slot a texture fills. Its string value prefixes the
// sampler uniform names the shading stage declares.
type Role string

const (
	Diffuse  Role = "texture_diffuse"
	Specular Role = "texture_specular"
)

// Roles lists material slots in resolution order.
var Roles = []Role{Diffuse, Specular}

// Texture is an uploaded image bound to a material role.
type Texture struct {
	Handle gfx.Texture
	Role   Role
	Path   string // as written in the asset
}

// Flat returns a 1x1 RGBA raster of one colour.
func Flat(r, g, b, a byte) gfx.Image {
	return gfx.Image{Width: 1, Height: 1, Channels: 4, Pix: []byte{r, g, b, a}}
}
