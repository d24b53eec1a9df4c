package engine

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/project"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lampAndWall = `
fps = 30
length = 20

[[items]]
name = "lamp"
length = 10

  [[items.effects]]
  type = "light_source"
  light_id = { value = 3.0 }
  x = { value = 100.0 }

[[items]]
name = "wall"
length = 20
size = [ 64.0, 32.0 ]

  [[items.effects]]
  type = "normal_map"
  light_id = { value = 3.0 }
`

func newTestEngine(t *testing.T, doc string) *Engine {
	t.Helper()
	p, err := project.Parse([]byte(doc), t.TempDir())
	require.NoError(t, err)

	config := DefaultApplicationConfig()
	config.Workers = 2
	config.LogLevel = "error"

	e, err := New(&Game{ApplicationConfig: config, Project: p})
	require.NoError(t, err)
	return e
}

func opOf(t *testing.T, img renderer.Image) renderer.OpType {
	t.Helper()
	n, ok := img.(*renderer.Node)
	require.True(t, ok, "unexpected image type %T", img)
	return n.Op
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	config := DefaultApplicationConfig()
	config.Workers = 0
	_, err = New(&Game{ApplicationConfig: config})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestEngine_RenderFrame(t *testing.T) {
	e := newTestEngine(t, lampAndWall)

	_, err := e.RenderFrame(0)
	assert.ErrorIs(t, err, core.ErrNotInitialized)

	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })
	assert.Equal(t, EngineStageInitialized, e.Stage())

	result, err := e.RenderFrame(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, result.Keys())
	assert.Equal(t, 2, e.ActiveChains())

	// The lamp has no size and does not relight itself.
	assert.Equal(t, renderer.OpSource, opOf(t, result.Outputs["0"]))
	assert.Equal(t, renderer.OpNormalMapLighting, opOf(t, result.Outputs["1"]))
	assert.InDelta(t, 1, result.Draws["1"].Zoom.X, 1e-6)

	lights := e.Systems().Lights()
	light, tier := lights.Resolve(3)
	assert.Equal(t, systems.LightTierProvider, tier)
	assert.InDelta(t, 100, light.Position.X, 1e-6)

	// The lamp leaves at frame 10; its last value stays as the backup.
	result, err = e.RenderFrame(12)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, result.Keys())
	assert.Equal(t, 1, e.ActiveChains())
	assert.Equal(t, 0, lights.ProviderCount(3))

	light, tier = lights.Resolve(3)
	assert.Equal(t, systems.LightTierBackup, tier)
	assert.InDelta(t, 100, light.Position.X, 1e-6)

	assert.Equal(t, uint64(2), e.Metrics().Frames())
}

func TestEngine_Run(t *testing.T) {
	e := newTestEngine(t, lampAndWall)

	var frames []int64
	e.gameInstance.FnRender = func(result *FrameResult, deltaTime float64) error {
		frames = append(frames, result.Frame)
		return nil
	}
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })

	require.NoError(t, e.Run())
	require.Len(t, frames, 20)
	assert.Equal(t, int64(0), frames[0])
	assert.Equal(t, int64(19), frames[19])
	assert.Equal(t, EngineStageInitialized, e.Stage())
	assert.Equal(t, uint64(20), e.Metrics().Frames())
}

func TestEngine_RunStopsOnRequest(t *testing.T) {
	e := newTestEngine(t, lampAndWall)

	rendered := 0
	e.gameInstance.FnRender = func(result *FrameResult, deltaTime float64) error {
		rendered++
		if result.Frame == 4 {
			e.Stop()
		}
		return nil
	}
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })

	require.NoError(t, e.Run())
	assert.Equal(t, 5, rendered)
}

func TestEngine_RunStopsOnUpdateError(t *testing.T) {
	e := newTestEngine(t, lampAndWall)

	boom := errors.New("boom")
	e.gameInstance.FnUpdate = func(frame int64, deltaTime float64) error {
		if frame == 2 {
			return boom
		}
		return nil
	}
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })

	assert.ErrorIs(t, e.Run(), boom)
	assert.Equal(t, uint64(2), e.Metrics().Frames())
}

func TestEngine_ShutdownIsIdempotent(t *testing.T) {
	e := newTestEngine(t, lampAndWall)
	require.NoError(t, e.Initialize())

	_, err := e.RenderFrame(0)
	require.NoError(t, err)

	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
	assert.Equal(t, 0, e.ActiveChains())
	require.NoError(t, e.Shutdown())
}

func TestEngine_LoadsProjectAndMaps(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maps"), 0o755))

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 128, 128, 255, 255
	}
	img.Set(0, 0, color.NRGBA{R: 255, G: 128, B: 128, A: 255})
	f, err := os.Create(filepath.Join(dir, "maps", "wall.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	projectPath := filepath.Join(dir, "scene.toml")
	require.NoError(t, os.WriteFile(projectPath, []byte(`
fps = 30
length = 10

[[items]]
name = "wall"
length = 5
size = [ 16.0, 16.0 ]

  [[items.effects]]
  type = "normal_map"
  map_path = "maps/wall.png"

[[items]]
name = "floor"
length = 10
size = [ 16.0, 16.0 ]

  [[items.effects]]
  type = "normal_map"
  map_path = "maps/wall.png"
`), 0o644))

	config := DefaultApplicationConfig()
	config.Workers = 2
	config.ProjectPath = projectPath
	e, err := New(&Game{ApplicationConfig: config})
	require.NoError(t, err)
	require.NoError(t, e.Initialize())
	t.Cleanup(func() { _ = e.Shutdown() })

	mapPath := filepath.Join(dir, "maps", "wall.png")
	textures := e.Systems().Textures()

	_, err = e.RenderFrame(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), textures.ReferenceCount(mapPath))

	_, err = e.RenderFrame(6)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), textures.ReferenceCount(mapPath))

	_, err = e.RenderFrame(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), textures.ReferenceCount(mapPath))
}

func TestEngine_MissingProject(t *testing.T) {
	config := DefaultApplicationConfig()
	config.Workers = 1
	config.ProjectPath = filepath.Join(t.TempDir(), "nope.toml")
	e, err := New(&Game{ApplicationConfig: config})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Shutdown() })

	assert.ErrorIs(t, e.Initialize(), core.ErrAssetNotFound)
}
