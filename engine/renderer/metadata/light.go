package metadata

import "github.com/spaghettifunk/relight/engine/math"

// LightKind selects how a LightDescriptor position is interpreted. The
// numeric values are the shader's light-type flag.
type LightKind uint32

const (
	LightKindPoint       LightKind = 0
	LightKindDirectional LightKind = 1
)

func (k LightKind) String() string {
	switch k {
	case LightKindDirectional:
		return "directional"
	default:
		return "point"
	}
}

// ShaderFlag is the constant written into the lighting shader: 0 for point
// lights, 1 for directional ones.
func (k LightKind) ShaderFlag() float32 {
	if k == LightKindDirectional {
		return 1.0
	}
	return 0.0
}

// MaxLightID is the highest light identifier a surface can bind to.
const MaxLightID = 99

// LightDescriptor is the state of one light at one frame. For directional
// lights Position is the direction the light comes from.
type LightDescriptor struct {
	Position  math.Vec3
	Intensity float32
	// Linear color, each channel in [0, 1].
	Color math.Vec3
	Kind  LightKind
}

// DefaultLight is returned when nothing is known about a light ID.
func DefaultLight() LightDescriptor {
	return LightDescriptor{
		Position:  math.NewVec3(0, 0, 200),
		Intensity: 1.0,
		Color:     math.NewVec3One(),
		Kind:      LightKindPoint,
	}
}

// ColorFromRGB8 converts an 8-bit color into linear [0, 1] channels.
func ColorFromRGB8(r, g, b uint8) math.Vec3 {
	return math.NewVec3(float32(r)/255.0, float32(g)/255.0, float32(b)/255.0)
}

// LightProvider is anything able to report the current state of a light.
type LightProvider interface {
	LightData() LightDescriptor
}
