package effects

import (
	"image"
	"testing"

	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/systems"
	"github.com/stretchr/testify/require"
)

// fakeTextures is a TextureStore that serves fixed size bitmaps for known
// paths and records every call.
type fakeTextures struct {
	defaults *metadata.DefaultTexture
	sizes    map[string]image.Point
	refs     map[string]int
	acquired []string
	released []string
}

func newFakeTextures() *fakeTextures {
	return &fakeTextures{
		defaults: metadata.NewDefaultTexture(),
		sizes:    make(map[string]image.Point),
		refs:     make(map[string]int),
	}
}

func (f *fakeTextures) Acquire(path string) *metadata.Texture {
	f.acquired = append(f.acquired, path)
	size, ok := f.sizes[path]
	if !ok {
		return nil
	}
	f.refs[path]++
	return &metadata.Texture{
		Name:   path,
		Width:  uint32(size.X),
		Height: uint32(size.Y),
		Pixels: image.NewRGBA(image.Rectangle{Max: size}),
	}
}

func (f *fakeTextures) Release(path string) {
	f.released = append(f.released, path)
	f.refs[path]--
}

func (f *fakeTextures) DefaultNormalTexture() *metadata.Texture {
	return f.defaults.DefaultNormalTexture
}

func (f *fakeTextures) DefaultHeightTexture() *metadata.Texture {
	return f.defaults.DefaultHeightTexture
}

type fixture struct {
	lights   *systems.LightSystem
	textures *fakeTextures
	graph    *renderer.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ls, err := systems.NewLightSystem(&systems.LightSystemConfig{})
	require.NoError(t, err)
	return &fixture{lights: ls, textures: newFakeTextures(), graph: renderer.NewRecorder()}
}

func (f *fixture) deps() Dependencies {
	return Dependencies{Lights: f.lights, Textures: f.textures, Graph: f.graph}
}

func frameDesc(frame int64) EffectDescription {
	return EffectDescription{Frame: frame, Length: 100, FPS: animation.FPS(30), Draw: NewDrawDescription()}
}

func itemBounds(w, h float32) math.Rect {
	return math.Rect{Left: -w / 2, Top: -h / 2, Right: w / 2, Bottom: h / 2}
}

func asNode(t *testing.T, img renderer.Image) *renderer.Node {
	t.Helper()
	node, ok := img.(*renderer.Node)
	require.True(t, ok, "expected a recorded node, got %T", img)
	return node
}
