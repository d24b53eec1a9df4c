// Package effects holds the per-item video effects that relight surfaces:
// light sources, normal/height map lighting and the normal map generator.
package effects

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/timeline"
)

// DrawDescription is how the host places an item in the scene.
type DrawDescription struct {
	Position math.Vec3
	// Euler angles in degrees.
	Rotation math.Vec3
	// Negative factors mirror the item.
	Zoom math.Vec2
}

func NewDrawDescription() DrawDescription {
	return DrawDescription{Zoom: math.NewVec2(1, 1)}
}

// EffectDescription is what a processor receives every frame.
type EffectDescription struct {
	// Frame is relative to the start of the item.
	Frame  int64
	Length int64
	FPS    animation.Rational
	Draw   DrawDescription
}

// Processor is one instance of an effect bound to one timeline item.
type Processor interface {
	ID() uuid.UUID
	SetInput(input renderer.Image)
	ClearInput()
	// Update evaluates the effect for a frame and returns the placement the
	// host should use for the output.
	Update(desc EffectDescription) DrawDescription
	// Output is the processed image, or the input when nothing was applied.
	Output() renderer.Image
	// Close unregisters from the light directory and drops texture references.
	Close() error
}

// Effect is the configuration of an effect attached to an item.
type Effect interface {
	timeline.EffectModel
	CreateProcessor(deps Dependencies) (Processor, error)
}

// LightDirectory is implemented by systems.LightSystem.
type LightDirectory interface {
	Register(id int, provider metadata.LightProvider, data metadata.LightDescriptor)
	UpdateData(id int, data metadata.LightDescriptor)
	Unregister(id int, provider metadata.LightProvider)
	LightData(id int) metadata.LightDescriptor
}

// TextureStore is implemented by systems.TextureSystem.
type TextureStore interface {
	Acquire(path string) *metadata.Texture
	Release(path string)
	DefaultNormalTexture() *metadata.Texture
	DefaultHeightTexture() *metadata.Texture
}

// Dependencies are handed to every processor at creation.
type Dependencies struct {
	Lights   LightDirectory
	Textures TextureStore
	Graph    renderer.GraphBuilder
}

func (d Dependencies) validate() error {
	switch {
	case d.Lights == nil:
		return fmt.Errorf("%w: light directory is nil", core.ErrNotInitialized)
	case d.Textures == nil:
		return fmt.Errorf("%w: texture store is nil", core.ErrNotInitialized)
	case d.Graph == nil:
		return fmt.Errorf("%w: graph builder is nil", core.ErrNotInitialized)
	}
	return nil
}

// sampleLightID truncates the sampled value and clamps it to the valid range.
func sampleLightID(track *animation.Track, desc EffectDescription) int {
	return clampLightID(track.GetValue(desc.Frame, desc.Length, desc.FPS))
}

func clampLightID(v float64) int {
	return math.Clamp(int(v), 0, metadata.MaxLightID)
}

func sample(track *animation.Track, desc EffectDescription) float32 {
	return float32(track.GetValue(desc.Frame, desc.Length, desc.FPS))
}

func rectOf(texture *metadata.Texture) math.Rect {
	b := texture.Bounds()
	return math.Rect{
		Left:   float32(b.Min.X),
		Top:    float32(b.Min.Y),
		Right:  float32(b.Max.X),
		Bottom: float32(b.Max.Y),
	}
}
