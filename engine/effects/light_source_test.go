package effects

import (
	"image/color"
	"testing"

	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/systems"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLightSourceDefaults(t *testing.T) {
	e := NewLightSourceEffect()
	assert.Equal(t, LightSourceLabel, e.Label())
	assert.Equal(t, 0, e.ConfiguredLightID())
	assert.Equal(t, metadata.DefaultLight(), e.SampleLight(0, 10, animation.FPS(60)))
}

func TestLightSourceSampleLight(t *testing.T) {
	e := NewLightSourceEffect()
	e.X = animation.NewTrack(animation.Keyframe{Time: 0, Value: 0}, animation.Keyframe{Time: 1, Value: 60})
	e.Color = color.RGBA{R: 255, G: 0, B: 51, A: 255}
	e.Kind = metadata.LightKindDirectional

	light := e.SampleLight(30, 100, animation.FPS(60))
	assert.InDelta(t, 30, light.Position.X, 1e-4)
	assert.InDelta(t, 0.2, light.Color.Z, 1e-6)
	assert.Equal(t, metadata.LightKindDirectional, light.Kind)

	// Same frame at another rate is another time.
	assert.InDelta(t, 60, e.SampleLight(30, 100, animation.FPS(30)).Position.X, 1e-4)
}

func TestLightSourceConfiguredIDUsesFirstKey(t *testing.T) {
	e := NewLightSourceEffect()
	e.LightID = animation.NewTrack(animation.Keyframe{Time: 0, Value: 3.7}, animation.Keyframe{Time: 1, Value: 9}).WithRange(0, 99)
	assert.Equal(t, 3, e.ConfiguredLightID())

	e.LightID = animation.NewConstantTrack(250)
	assert.Equal(t, metadata.MaxLightID, e.ConfiguredLightID())
}

func TestLightSourceRequiresDependencies(t *testing.T) {
	_, err := NewLightSourceEffect().CreateProcessor(Dependencies{})
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestLightSourceRegistersWithoutInput(t *testing.T) {
	f := newFixture(t)
	e := NewLightSourceEffect()
	e.LightID = animation.NewConstantTrack(4)
	e.X = animation.NewConstantTrack(12)

	proc, err := e.CreateProcessor(f.deps())
	require.NoError(t, err)
	p := proc.(*LightSourceProcessor)

	draw := p.Update(frameDesc(0))
	assert.Equal(t, NewDrawDescription(), draw)
	assert.Nil(t, p.Output())

	id, ok := p.RegisteredID()
	assert.True(t, ok)
	assert.Equal(t, 4, id)
	assert.Equal(t, 1, f.lights.ProviderCount(4))

	light, tier := f.lights.Resolve(4)
	assert.Equal(t, systems.LightTierProvider, tier)
	assert.Equal(t, float32(12), light.Position.X)
}

func TestLightSourceMovesRegistrationWhenIDChanges(t *testing.T) {
	f := newFixture(t)
	e := NewLightSourceEffect()
	e.LightID = animation.NewTrack(animation.Keyframe{Time: 0, Value: 1}, animation.Keyframe{Time: 1, Value: 2})

	proc, err := e.CreateProcessor(f.deps())
	require.NoError(t, err)

	proc.Update(frameDesc(0))
	proc.Update(frameDesc(1))
	assert.Equal(t, 1, f.lights.ProviderCount(1))

	proc.Update(frameDesc(30))
	assert.Zero(t, f.lights.ProviderCount(1))
	assert.Equal(t, 1, f.lights.ProviderCount(2))

	// Light 1 still answers from its snapshot.
	_, tier := f.lights.Resolve(1)
	assert.Equal(t, systems.LightTierBackup, tier)

	require.NoError(t, proc.Close())
	require.NoError(t, proc.Close())
	assert.Zero(t, f.lights.ProviderCount(2))
	light, tier := f.lights.Resolve(2)
	assert.Equal(t, systems.LightTierBackup, tier)
	assert.Equal(t, metadata.DefaultLight(), light)
}

func TestLightSourceSnapshotFollowsUpdates(t *testing.T) {
	f := newFixture(t)
	e := NewLightSourceEffect()
	e.Z = animation.NewTrack(animation.Keyframe{Time: 0, Value: 100}, animation.Keyframe{Time: 1, Value: 400})

	proc, err := e.CreateProcessor(f.deps())
	require.NoError(t, err)
	proc.Update(frameDesc(0))
	proc.Update(frameDesc(30))
	require.NoError(t, proc.Close())

	light, tier := f.lights.Resolve(0)
	assert.Equal(t, systems.LightTierBackup, tier)
	assert.InDelta(t, 400, light.Position.Z, 1e-4)
}

func TestLightSourceApplyToItem(t *testing.T) {
	f := newFixture(t)
	e := NewLightSourceEffect()
	e.ApplyToItem = true
	e.Ambient = animation.NewConstantTrack(0.5)

	proc, err := e.CreateProcessor(f.deps())
	require.NoError(t, err)

	input := f.graph.Source(itemBounds(200, 100))
	proc.SetInput(input)
	proc.Update(frameDesc(0))

	out := asNode(t, proc.Output())
	require.Equal(t, renderer.OpNormalMapLighting, out.Op)
	constants := out.Params.(metadata.NormalMapConstants)
	assert.Equal(t, float32(1), constants.Depth)
	assert.Equal(t, float32(0.5), constants.Ambient)
	assert.Equal(t, math.NewVec3(0, 0, 200), constants.LightPos)

	transform := out.Input(1)
	require.Equal(t, renderer.OpTransform, transform.Op)
	assert.Equal(t, renderer.InterpolationNearestNeighbor, transform.Params.(renderer.TransformParams).Interpolation)
	assert.Equal(t, input.Bounds(), transform.Bounds())

	// Zero area input passes through.
	empty := f.graph.Source(math.Rect{})
	proc.SetInput(empty)
	proc.Update(frameDesc(1))
	assert.Equal(t, empty, proc.Output())

	proc.ClearInput()
	proc.Update(frameDesc(2))
	assert.Nil(t, proc.Output())
}

func TestLightSourceWithoutApplyPassesThrough(t *testing.T) {
	f := newFixture(t)
	proc, err := NewLightSourceEffect().CreateProcessor(f.deps())
	require.NoError(t, err)
	input := f.graph.Source(itemBounds(10, 10))
	proc.SetInput(input)
	proc.Update(frameDesc(0))
	assert.Equal(t, input, proc.Output())
	assert.Zero(t, f.graph.Count(renderer.OpNormalMapLighting))
}
