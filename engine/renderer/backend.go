package renderer

import (
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

// Image is an opaque handle to a node of the effect graph.
type Image interface {
	Bounds() math.Rect
}

type Interpolation uint8

const (
	InterpolationNearestNeighbor Interpolation = iota
	InterpolationLinear
)

// GraphBuilder wires shader nodes together. The lighting kernels themselves
// live behind this interface; callers only hand over images and constants.
type GraphBuilder interface {
	// Source is the image produced by the item below the effect.
	Source(bounds math.Rect) Image
	// Bitmap wraps a decoded texture as a graph input.
	Bitmap(texture *metadata.Texture) Image
	Transform(src Image, m math.Affine2D, interpolation Interpolation) Image
	// Blur is a gaussian blur with hard borders.
	Blur(src Image, standardDeviation float32) Image
	NormalMapLighting(input, normal Image, constants metadata.NormalMapConstants) Image
	LuminanceToAlpha(src Image) Image
	PointDiffuse(height Image, params metadata.PointDiffuseParams) Image
	DistantDiffuse(height Image, params metadata.DistantDiffuseParams) Image
	// Mask keeps dst only where mask is opaque (destination-in).
	Mask(dst, mask Image) Image
	ArithmeticComposite(a, b Image, coefficients metadata.CompositeCoefficients) Image
	GenerateNormalMap(src Image, constants metadata.GeneratorConstants) Image
	Grayscale(src Image) Image
}
