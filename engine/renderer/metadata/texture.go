package metadata

import (
	"image"
	"image/color"
	"sync"
)

const InvalidID uint32 = 4294967295

const (
	DEFAULT_NORMAL_TEXTURE_NAME string = "default_NORM"
	DEFAULT_HEIGHT_TEXTURE_NAME string = "default_HEIGHT"

	// Placeholder textures are tiny, they are stretched over the item.
	placeholderDimension = 16
)

/**
 * @brief A cache entry: the shared handle and how many holders it has.
 */
type TextureReference struct {
	ReferenceCount uint64
	Handle         *Texture
}

/**
 * @brief Represents a decoded, device-ready bitmap. The handle is shared by
 * every holder and its bitmap can be swapped by a reload while frames read
 * it, so readers on other goroutines go through Bounds, Snapshot or Released.
 */
type Texture struct {
	/** @brief The unique texture identifier. */
	ID uint32
	/** @brief The file path the texture was decoded from, or a placeholder name. */
	Name   string
	Width  uint32
	Height uint32
	/** @brief The texture Generation. Incremented every time the data is reloaded. */
	Generation uint32
	/** @brief Premultiplied RGBA pixels. Nil once released. */
	Pixels *image.RGBA

	// Guards Width, Height, Generation and Pixels after construction.
	mutex sync.RWMutex
}

// TextureSnapshot is a consistent copy of the mutable state of a Texture.
type TextureSnapshot struct {
	Width      uint32
	Height     uint32
	Generation uint32
	Pixels     *image.RGBA
}

// Bounds returns the local bounds of the bitmap.
func (t *Texture) Bounds() image.Rectangle {
	if t == nil {
		return image.Rectangle{}
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	if t.Pixels == nil {
		return image.Rectangle{}
	}
	return t.Pixels.Bounds()
}

func (t *Texture) Snapshot() TextureSnapshot {
	if t == nil {
		return TextureSnapshot{}
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return TextureSnapshot{
		Width:      t.Width,
		Height:     t.Height,
		Generation: t.Generation,
		Pixels:     t.Pixels,
	}
}

// Released reports whether the bitmap memory has been handed back.
func (t *Texture) Released() bool {
	if t == nil {
		return true
	}
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return t.Pixels == nil
}

// Replace swaps in a newly decoded bitmap and returns the new generation.
func (t *Texture) Replace(pixels *image.RGBA, width, height uint32) uint32 {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.Pixels = pixels
	t.Width = width
	t.Height = height
	t.Generation++
	return t.Generation
}

// Release drops the pixel data and invalidates the handle.
func (t *Texture) Release() {
	if t == nil {
		return
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.Pixels = nil
	t.Generation = InvalidID
}

type DefaultTexture struct {
	DefaultNormalTexture *Texture
	DefaultHeightTexture *Texture
}

// NewDefaultTexture builds the flat placeholders substituted when no map
// image is configured or the configured one failed to load: a flat normal
// map pointing straight out of the surface, and a black (flat) height map.
func NewDefaultTexture() *DefaultTexture {
	return &DefaultTexture{
		DefaultNormalTexture: newSolidTexture(DEFAULT_NORMAL_TEXTURE_NAME, color.RGBA{R: 128, G: 128, B: 255, A: 255}),
		DefaultHeightTexture: newSolidTexture(DEFAULT_HEIGHT_TEXTURE_NAME, color.RGBA{R: 0, G: 0, B: 0, A: 255}),
	}
}

func newSolidTexture(name string, c color.RGBA) *Texture {
	pixels := image.NewRGBA(image.Rect(0, 0, placeholderDimension, placeholderDimension))
	for i := 0; i < len(pixels.Pix); i += 4 {
		pixels.Pix[i+0] = c.R
		pixels.Pix[i+1] = c.G
		pixels.Pix[i+2] = c.B
		pixels.Pix[i+3] = c.A
	}
	return &Texture{
		ID:     InvalidID,
		Name:   name,
		Width:  placeholderDimension,
		Height: placeholderDimension,
		// Placeholders are never reloaded.
		Generation: InvalidID,
		Pixels:     pixels,
	}
}
