package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
)

// ErrNotImage is returned for files whose content is not a known image type.
var ErrNotImage = errors.New("not an image")

// Decoder turns an image file into an uploadable raster.
type Decoder interface {
	Decode(path string, flip bool) (gfx.Image, error)
}

// FileDecoder reads images from disk. PNG, JPEG, GIF, BMP, TIFF and WebP are
// recognised by content; TGA has no magic number and is chosen by extension.
type FileDecoder struct{}

// Decode reads and decodes path. When flip is set the rows are stored
// bottom to top.
func (FileDecoder) Decode(path string, flip bool) (gfx.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gfx.Image{}, err
	}

	img, err := decodeBytes(data, filepath.Ext(path))
	if err != nil {
		return gfx.Image{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return Raster(img, flip), nil
}

// DecodeEncoded decodes an image file already in memory, such as one
// embedded in a scene file. The format is recognised by content.
func DecodeEncoded(data []byte, flip bool) (gfx.Image, error) {
	img, err := decodeBytes(data, "")
	if err != nil {
		return gfx.Image{}, err
	}
	return Raster(img, flip), nil
}

// decoders is keyed by the extension filetype reports for the content.
// The registry in package image is avoided: tga registers an empty magic
// that would shadow every format registered after it.
var decoders = map[string]func(io.Reader) (image.Image, error){
	"png":  png.Decode,
	"jpg":  jpeg.Decode,
	"gif":  gif.Decode,
	"bmp":  bmp.Decode,
	"tif":  tiff.Decode,
	"webp": webp.Decode,
}

func decodeBytes(data []byte, ext string) (image.Image, error) {
	if strings.EqualFold(ext, ".tga") {
		return tga.Decode(bytes.NewReader(data))
	}

	kind, err := filetype.Match(data)
	if err != nil {
		return nil, err
	}
	decode, ok := decoders[kind.Extension]
	if !ok {
		if kind == filetype.Unknown {
			return nil, ErrNotImage
		}
		return nil, fmt.Errorf("%w: %s", ErrNotImage, kind.MIME.Value)
	}
	return decode(bytes.NewReader(data))
}

// Channels reports how many channels a raster of img needs: 1 for grey,
// 3 for opaque colour and 4 otherwise.
func Channels(img image.Image) int {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return 1
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return 3
	}
	return 4
}

// Raster converts img to tightly packed 8-bit rows.
func Raster(img image.Image, flip bool) gfx.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	ch := Channels(img)
	pix := make([]byte, w*h*ch)

	for y := 0; y < h; y++ {
		row := y
		if flip {
			row = h - 1 - y
		}
		off := row * w * ch
		for x := 0; x < w; x++ {
			c := img.At(b.Min.X+x, b.Min.Y+y)
			i := off + x*ch
			switch ch {
			case 1:
				pix[i] = color.GrayModel.Convert(c).(color.Gray).Y
			case 3:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				pix[i], pix[i+1], pix[i+2] = n.R, n.G, n.B
			default:
				n := color.NRGBAModel.Convert(c).(color.NRGBA)
				pix[i], pix[i+1], pix[i+2], pix[i+3] = n.R, n.G, n.B, n.A
			}
		}
	}

	return gfx.Image{Width: w, Height: h, Channels: ch, Pix: pix}
}
