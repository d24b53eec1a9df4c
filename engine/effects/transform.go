package effects

import (
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

// CoordinateMode tells how light coordinates relate to the relit item.
type CoordinateMode uint8

const (
	// CoordinateAbsolute lights live in scene space and are moved into the
	// item's local frame.
	CoordinateAbsolute CoordinateMode = iota
	// CoordinateRelative lights are already in the frame the shader expects.
	CoordinateRelative
)

func (m CoordinateMode) String() string {
	if m == CoordinateRelative {
		return "relative"
	}
	return "absolute"
}

type MapType uint8

const (
	MapTypeNormal MapType = iota
	MapTypeHeight
)

func (t MapType) String() string {
	if t == MapTypeHeight {
		return "height"
	}
	return "normal"
}

// Normal map depth is expressed in the same units as height map surface
// scale, divided by this factor.
const normalMapDepthDivisor = 20.0

// TransformLight expresses light in the unscaled, unrotated local frame of an
// item placed with draw. Point lights are made relative to the item position
// first; directional lights are only rotated. Mirrored axes flip the
// matching component.
func TransformLight(light metadata.LightDescriptor, draw DrawDescription) math.Vec3 {
	rotation := math.NewMat4InverseEulerZYX(draw.Rotation)

	var local math.Vec3
	if light.Kind == metadata.LightKindPoint {
		local = light.Position.Sub(draw.Position).TransformDirection(rotation)
	} else {
		local = light.Position.TransformDirection(rotation)
	}

	if draw.Zoom.X < 0 {
		local.X = -local.X
	}
	if draw.Zoom.Y < 0 {
		local.Y = -local.Y
	}
	return local
}

// BuildLightingParameters produces the shader constants for one frame.
func BuildLightingParameters(light metadata.LightDescriptor, mode CoordinateMode, draw DrawDescription, ambient, surfaceScale float32, mapType MapType) metadata.NormalMapConstants {
	position := light.Position
	if mode == CoordinateAbsolute {
		position = TransformLight(light, draw)
	}

	depth := surfaceScale
	if mapType == MapTypeNormal {
		depth /= normalMapDepthDivisor
	}

	return metadata.NormalMapConstants{
		LightPos:   position,
		Intensity:  light.Intensity,
		LightColor: light.Color,
		Ambient:    ambient,
		Depth:      depth,
		LightType:  light.Kind.ShaderFlag(),
	}
}

// AutoFitMatrix stretches a map over the input bounds.
func AutoFitMatrix(input, mapBounds math.Rect) math.Affine2D {
	sx := input.Width() / mapBounds.Width()
	sy := input.Height() / mapBounds.Height()
	return math.NewAffine2DScale(sx, sy).Mul(math.NewAffine2DTranslation(input.Left, input.Top))
}

// PlacementMatrix centers a map on the input, then scales it (1 = 100%),
// rotates it by rotationDegrees and moves it by offset.
func PlacementMatrix(input, mapBounds math.Rect, offset math.Vec2, scale, rotationDegrees float32) math.Affine2D {
	centerX := input.Left + input.Width()/2
	centerY := input.Top + input.Height()/2
	return math.NewAffine2DTranslation(-mapBounds.Width()/2, -mapBounds.Height()/2).
		Mul(math.NewAffine2DScale(scale, scale)).
		Mul(math.NewAffine2DRotation(math.DegToRad(rotationDegrees))).
		Mul(math.NewAffine2DTranslation(centerX+offset.X, centerY+offset.Y))
}
