package metadata

import (
	m "math"

	"github.com/spaghettifunk/relight/engine/math"
)

/**
 * @brief Constants consumed by the normal-map lighting shader. The layout
 * mirrors the pixel shader constant buffer, 16 byte aligned:
 * LightPos(12) Intensity(4) | LightColor(12) Ambient(4) | Depth(4) LightType(4) pad(8)
 */
type NormalMapConstants struct {
	/** @brief Light position (point) or direction (directional) in the surface frame. */
	LightPos  math.Vec3
	Intensity float32
	/** @brief Linear light color. */
	LightColor math.Vec3
	Ambient    float32
	/** @brief Surface depth scale. */
	Depth float32
	/** @brief 0 = point, 1 = directional. */
	LightType float32
}

/**
 * @brief Point diffuse lighting over a height map (alpha channel).
 */
type PointDiffuseParams struct {
	LightPosition    math.Vec3
	Color            math.Vec3
	SurfaceScale     float32
	KernelUnitLength math.Vec2
}

/**
 * @brief Distant (directional) diffuse lighting over a height map.
 * Azimuth and elevation are in degrees.
 */
type DistantDiffuseParams struct {
	Azimuth          float32
	Elevation        float32
	Color            math.Vec3
	SurfaceScale     float32
	KernelUnitLength math.Vec2
}

// NewDistantDiffuseParams converts a light direction into the azimuth and
// elevation angles the distant diffuse kernel expects.
func NewDistantDiffuseParams(direction math.Vec3, color math.Vec3, surfaceScale float32) DistantDiffuseParams {
	x, y, z := float64(direction.X), float64(direction.Y), float64(direction.Z)
	azimuth := m.Atan2(y, x)
	xyLen := m.Sqrt(x*x + y*y)
	elevation := m.Atan2(z, xyLen)
	return DistantDiffuseParams{
		Azimuth:          float32(azimuth * 180.0 / m.Pi),
		Elevation:        float32(elevation * 180.0 / m.Pi),
		Color:            color,
		SurfaceScale:     surfaceScale,
		KernelUnitLength: math.NewVec2(1, 1),
	}
}

/**
 * @brief Arithmetic composite coefficients: result = C1*A*B + C2*A + C3*B + C4.
 */
type CompositeCoefficients = math.Vec4

/**
 * @brief Constants for the normal map generator shader.
 */
type GeneratorConstants struct {
	Strength float32
	/** @brief Sampling radius in pixels. */
	Radius float32
	/** @brief Texel size, 1/width and 1/height of the source. */
	Size math.Vec2
}

// InputMargin is how many pixels outside an output tile the generator reads,
// so tiles can be requested with enough border to hide seams.
func (g GeneratorConstants) InputMargin() int {
	return int(m.Ceil(float64(g.Radius) + 1.0))
}
