package renderer

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

var errEmptyImage = errors.New("empty image")

// pixelFormat maps a channel count to the GL format.
func pixelFormat(channels int) (uint32, error) {
	switch channels {
	case 1:
		return gl.RED, nil
	case 3:
		return gl.RGB, nil
	case 4:
		return gl.RGBA, nil
	}
	return 0, fmt.Errorf("unsupported channel count %d", channels)
}

func wrapMode(w gfx.Wrap) int32 {
	if w == gfx.WrapClampToEdge {
		return gl.CLAMP_TO_EDGE
	}
	return gl.REPEAT
}

// setFilters sets linear filtering on the bound texture, generating mipmaps
// first when asked.
func setFilters(target uint32, mipmaps bool) {
	if mipmaps {
		gl.GenerateMipmap(target)
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(target, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	gl.TexParameteri(target, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
}

func checkImage(img gfx.Image) (uint32, error) {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) == 0 {
		return 0, errEmptyImage
	}
	format, err := pixelFormat(img.Channels)
	if err != nil {
		return 0, err
	}
	if len(img.Pix) < img.Width*img.Height*img.Channels {
		return 0, fmt.Errorf("image data too short: %d bytes for %dx%dx%d",
			len(img.Pix), img.Width, img.Height, img.Channels)
	}
	return format, nil
}

// UploadTexture creates a 2D texture from img.
func (r *Renderer) UploadTexture(img gfx.Image, s gfx.Sampling) (gfx.Texture, error) {
	format, err := checkImage(img)
	if err != nil {
		return gfx.NoTexture, err
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_2D, texID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, int32(format), int32(img.Width), int32(img.Height), 0,
		format, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))

	wrap := wrapMode(s.Wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	setFilters(gl.TEXTURE_2D, s.Mipmaps)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return gfx.Texture(texID), nil
}

// UploadCubemap creates a cube texture from faces in +X, -X, +Y, -Y, +Z, -Z order.
func (r *Renderer) UploadCubemap(faces [6]gfx.Image, s gfx.Sampling) (gfx.Texture, error) {
	formats := make([]uint32, len(faces))
	for i, img := range faces {
		format, err := checkImage(img)
		if err != nil {
			return gfx.NoTexture, fmt.Errorf("face %d: %w", i, err)
		}
		formats[i] = format
	}

	var texID uint32
	gl.GenTextures(1, &texID)
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, texID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for i, img := range faces {
		gl.TexImage2D(gl.TEXTURE_CUBE_MAP_POSITIVE_X+uint32(i), 0, int32(formats[i]),
			int32(img.Width), int32(img.Height), 0, formats[i], gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	}
	wrap := wrapMode(s.Wrap)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_CUBE_MAP, gl.TEXTURE_WRAP_R, wrap)
	setFilters(gl.TEXTURE_CUBE_MAP, s.Mipmaps)

	gl.BindTexture(gl.TEXTURE_CUBE_MAP, 0)
	return gfx.Texture(texID), nil
}

func (r *Renderer) DeleteTexture(t gfx.Texture) {
	if !t.Valid() {
		return
	}
	id := uint32(t)
	gl.DeleteTextures(1, &id)
}

func (r *Renderer) BindTexture(unit int, t gfx.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
}

func (r *Renderer) BindCubemap(unit int, t gfx.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_CUBE_MAP, uint32(t))
}
