package effects

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

const NormalMapLabel = "Normal Map"

// Below this the map blur is skipped.
const minBlur = 0.01

// NormalMapEffect relights an item with a light read from the directory.
type NormalMapEffect struct {
	LightID *animation.Track
	Mode    CoordinateMode
	MapType MapType
	// MapPath is an absolute image path; empty uses a flat placeholder.
	MapPath string
	// AutoFit stretches the map over the item and ignores the placement tracks.
	AutoFit     bool
	MapX, MapY  *animation.Track
	MapScale    *animation.Track // percent
	MapRotation *animation.Track // degrees
	MapBlur     *animation.Track
	// SurfaceScale is the height map surface scale, or 20x the normal map depth.
	SurfaceScale *animation.Track
	Ambient      *animation.Track
}

func NewNormalMapEffect() *NormalMapEffect {
	return &NormalMapEffect{
		LightID:      animation.NewConstantTrack(0).WithRange(0, metadata.MaxLightID),
		Mode:         CoordinateAbsolute,
		MapType:      MapTypeNormal,
		AutoFit:      true,
		MapX:         animation.NewConstantTrack(0).WithRange(-10000, 10000),
		MapY:         animation.NewConstantTrack(0).WithRange(-10000, 10000),
		MapScale:     animation.NewConstantTrack(100).WithRange(0, 5000),
		MapRotation:  animation.NewConstantTrack(0).WithRange(-36000, 36000),
		MapBlur:      animation.NewConstantTrack(0).WithRange(0, 100),
		SurfaceScale: animation.NewConstantTrack(30).WithRange(0, 500),
		Ambient:      animation.NewConstantTrack(0.3).WithRange(0, 1),
	}
}

func (e *NormalMapEffect) Label() string { return NormalMapLabel }

func (e *NormalMapEffect) CreateProcessor(deps Dependencies) (Processor, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &NormalMapProcessor{id: uuid.New(), effect: e, deps: deps}, nil
}

type NormalMapProcessor struct {
	id     uuid.UUID
	effect *NormalMapEffect
	deps   Dependencies

	input  renderer.Image
	output renderer.Image

	// The path this instance holds a texture reference on, if texture != nil.
	loadedPath string
	texture    *metadata.Texture

	// Parameters of the last relit frame.
	lastParams metadata.NormalMapConstants
}

func (p *NormalMapProcessor) ID() uuid.UUID { return p.id }

func (p *NormalMapProcessor) SetInput(input renderer.Image) { p.input = input }
func (p *NormalMapProcessor) ClearInput()                   { p.input = nil }

// Parameters returns the shader constants of the last relit frame.
func (p *NormalMapProcessor) Parameters() metadata.NormalMapConstants {
	return p.lastParams
}

func (p *NormalMapProcessor) Update(desc EffectDescription) DrawDescription {
	p.output = nil
	if p.input == nil {
		return desc.Draw
	}

	light := p.deps.Lights.LightData(sampleLightID(p.effect.LightID, desc))
	ambient := sample(p.effect.Ambient, desc)
	params := BuildLightingParameters(light, p.effect.Mode, desc.Draw, ambient, sample(p.effect.SurfaceScale, desc), p.effect.MapType)

	p.updateMapTexture()
	mapTexture := p.texture
	if mapTexture == nil {
		mapTexture = p.placeholder()
	}

	bounds := p.input.Bounds()
	mapBounds := rectOf(mapTexture)
	if bounds.Empty() || mapBounds.Empty() {
		return desc.Draw
	}

	graph := p.deps.Graph
	var mapImage renderer.Image = graph.Bitmap(mapTexture)
	var placement math.Affine2D
	if p.effect.AutoFit {
		placement = AutoFitMatrix(bounds, mapBounds)
	} else {
		offset := math.NewVec2(sample(p.effect.MapX, desc), sample(p.effect.MapY, desc))
		scale := sample(p.effect.MapScale, desc) / 100.0
		placement = PlacementMatrix(bounds, mapBounds, offset, scale, sample(p.effect.MapRotation, desc))
		if blur := sample(p.effect.MapBlur, desc); blur > minBlur {
			mapImage = graph.Blur(mapImage, blur)
		}
	}
	placed := graph.Transform(mapImage, placement, renderer.InterpolationLinear)

	p.lastParams = params
	if p.effect.MapType == MapTypeNormal {
		p.output = graph.NormalMapLighting(p.input, placed, params)
		return desc.Draw
	}
	p.output = p.relightHeight(placed, light.Kind, params)
	return desc.Draw
}

// relightHeight lights a height map with the diffuse kernels, clips the
// light to the item and composites it over the input with coefficients
// (intensity, 0, ambient, 0).
func (p *NormalMapProcessor) relightHeight(placed renderer.Image, kind metadata.LightKind, params metadata.NormalMapConstants) renderer.Image {
	graph := p.deps.Graph
	heights := graph.LuminanceToAlpha(placed)

	var lightMap renderer.Image
	if kind == metadata.LightKindDirectional {
		lightMap = graph.DistantDiffuse(heights, metadata.NewDistantDiffuseParams(params.LightPos, params.LightColor, params.Depth))
	} else {
		lightMap = graph.PointDiffuse(heights, metadata.PointDiffuseParams{
			LightPosition:    params.LightPos,
			Color:            params.LightColor,
			SurfaceScale:     params.Depth,
			KernelUnitLength: math.NewVec2(1, 1),
		})
	}

	clipped := graph.Mask(lightMap, p.input)
	return graph.ArithmeticComposite(p.input, clipped, metadata.CompositeCoefficients{
		X: params.Intensity,
		Y: 0,
		Z: params.Ambient,
		W: 0,
	})
}

// updateMapTexture keeps exactly one texture reference for the configured
// path. A failed load is retried on the next frame.
func (p *NormalMapProcessor) updateMapTexture() {
	path := p.effect.MapPath
	if path == p.loadedPath && p.texture != nil {
		return
	}
	p.releaseTexture()

	p.loadedPath = path
	if path == "" {
		return
	}
	p.texture = p.deps.Textures.Acquire(path)
	if p.texture == nil {
		core.LogDebug("normal map %s: using placeholder for '%s'", p.id, path)
	}
}

func (p *NormalMapProcessor) releaseTexture() {
	if p.texture != nil {
		p.deps.Textures.Release(p.loadedPath)
		p.texture = nil
	}
	p.loadedPath = ""
}

func (p *NormalMapProcessor) placeholder() *metadata.Texture {
	if p.effect.MapType == MapTypeHeight {
		return p.deps.Textures.DefaultHeightTexture()
	}
	return p.deps.Textures.DefaultNormalTexture()
}

func (p *NormalMapProcessor) Output() renderer.Image {
	if p.output != nil {
		return p.output
	}
	return p.input
}

func (p *NormalMapProcessor) Close() error {
	p.releaseTexture()
	p.input, p.output = nil, nil
	return nil
}
