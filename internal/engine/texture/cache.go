package texture

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/sceneview/internal/engine/gfx"
	"github.com/Faultbox/sceneview/internal/logger"
)

// Stats counts cache activity.
type Stats struct {
	Decodes  int // decode attempts, successful or not
	Hits     int // requests served from the cache
	Failures int // paths that could not be decoded or uploaded
	Live     int // handles currently owned by the cache
}

type cacheKey struct {
	path string
	flip bool
}

type cacheEntry struct {
	handle   gfx.Texture
	channels int
}

// Cache uploads each image file once and hands out the same handle for
// every later request. Entries live until Destroy.
type Cache struct {
	backend gfx.Backend
	decoder Decoder
	log     *zap.Logger

	items map[cacheKey]cacheEntry
	stats Stats
}

// NewCache creates a cache uploading through b. A nil decoder reads files
// from disk.
func NewCache(b gfx.Backend, d Decoder) *Cache {
	if d == nil {
		d = FileDecoder{}
	}
	return &Cache{
		backend: b,
		decoder: d,
		log:     logger.Named("texture"),
		items:   make(map[cacheKey]cacheEntry),
	}
}

// Load returns the texture for path and its channel count. The flip flag is
// part of the key since it changes the uploaded pixels. On failure it logs a
// warning and returns gfx.NoTexture and 0; the failure is remembered.
func (c *Cache) Load(path string, flip bool) (gfx.Texture, int) {
	return c.load(path, flip, func() (gfx.Image, error) {
		return c.decoder.Decode(path, flip)
	})
}

// LoadEncoded is Load for an image file held in memory. key names the image
// for deduplication and logging.
func (c *Cache) LoadEncoded(key string, data []byte, flip bool) (gfx.Texture, int) {
	return c.load(key, flip, func() (gfx.Image, error) {
		img, err := DecodeEncoded(data, flip)
		if err != nil {
			return gfx.Image{}, fmt.Errorf("decoding %s: %w", key, err)
		}
		return img, nil
	})
}

func (c *Cache) load(path string, flip bool, decode func() (gfx.Image, error)) (gfx.Texture, int) {
	key := cacheKey{path: path, flip: flip}
	if e, ok := c.items[key]; ok {
		c.stats.Hits++
		return e.handle, e.channels
	}

	e, err := c.upload(path, decode)
	if err != nil {
		c.stats.Failures++
		c.log.Warn("texture failed to load", zap.String("path", path), zap.Error(err))
	} else {
		c.stats.Live++
		c.log.Debug("texture loaded",
			zap.String("path", path),
			zap.Int("channels", e.channels),
			zap.Uint32("handle", uint32(e.handle)))
	}
	c.items[key] = e
	return e.handle, e.channels
}

func (c *Cache) upload(path string, decode func() (gfx.Image, error)) (cacheEntry, error) {
	c.stats.Decodes++
	img, err := decode()
	if err != nil {
		return cacheEntry{}, err
	}

	h, err := c.backend.UploadTexture(img, gfx.MaterialSampling)
	if err != nil {
		return cacheEntry{}, fmt.Errorf("uploading %s: %w", path, err)
	}
	return cacheEntry{handle: h, channels: img.Channels}, nil
}

// LoadCubemap uploads six faces in +X, -X, +Y, -Y, +Z, -Z order as one
// cubemap. Cubemaps are not shared; the caller owns the handle.
func (c *Cache) LoadCubemap(faces [6]string, flip bool) (gfx.Texture, error) {
	var imgs [6]gfx.Image
	for i, path := range faces {
		c.stats.Decodes++
		img, err := c.decoder.Decode(path, flip)
		if err != nil {
			c.stats.Failures++
			return gfx.NoTexture, fmt.Errorf("cubemap face %d: %w", i, err)
		}
		imgs[i] = img
	}

	h, err := c.backend.UploadCubemap(imgs, gfx.CubemapSampling)
	if err != nil {
		return gfx.NoTexture, fmt.Errorf("uploading cubemap: %w", err)
	}
	return h, nil
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Destroy frees every handle the cache owns.
func (c *Cache) Destroy() {
	for key, e := range c.items {
		if e.handle.Valid() {
			c.backend.DeleteTexture(e.handle)
		}
		delete(c.items, key)
	}
	c.stats.Live = 0
}
