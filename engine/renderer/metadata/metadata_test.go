package metadata

import (
	"testing"

	"github.com/spaghettifunk/relight/engine/math"
	"github.com/stretchr/testify/assert"
)

func TestDefaultLight(t *testing.T) {
	l := DefaultLight()
	assert.Equal(t, math.NewVec3(0, 0, 200), l.Position)
	assert.Equal(t, float32(1.0), l.Intensity)
	assert.Equal(t, math.NewVec3(1, 1, 1), l.Color)
	assert.Equal(t, LightKindPoint, l.Kind)
}

func TestLightKindShaderFlag(t *testing.T) {
	assert.Equal(t, float32(0), LightKindPoint.ShaderFlag())
	assert.Equal(t, float32(1), LightKindDirectional.ShaderFlag())
	assert.Equal(t, "directional", LightKindDirectional.String())
}

func TestColorFromRGB8(t *testing.T) {
	c := ColorFromRGB8(255, 0, 51)
	assert.InDelta(t, 1.0, c.X, 1e-6)
	assert.InDelta(t, 0.0, c.Y, 1e-6)
	assert.InDelta(t, 0.2, c.Z, 1e-6)
}

func TestDistantDiffuseAngles(t *testing.T) {
	p := NewDistantDiffuseParams(math.NewVec3(0, 1, 1), math.NewVec3One(), 2)
	assert.InDelta(t, 90.0, p.Azimuth, 1e-4)
	assert.InDelta(t, 45.0, p.Elevation, 1e-4)
	assert.Equal(t, math.NewVec2(1, 1), p.KernelUnitLength)
}

func TestGeneratorInputMargin(t *testing.T) {
	assert.Equal(t, 2, GeneratorConstants{Radius: 1}.InputMargin())
	assert.Equal(t, 4, GeneratorConstants{Radius: 2.5}.InputMargin())
}

func TestPlaceholders(t *testing.T) {
	d := NewDefaultTexture()
	n := d.DefaultNormalTexture
	assert.Equal(t, uint32(16), n.Width)
	assert.Equal(t, []uint8{128, 128, 255, 255}, n.Pixels.Pix[0:4])
	assert.Equal(t, []uint8{0, 0, 0, 255}, d.DefaultHeightTexture.Pixels.Pix[4:8])
	assert.False(t, n.Released())

	n.Release()
	assert.True(t, n.Released())
	assert.Equal(t, InvalidID, n.Generation)
}
