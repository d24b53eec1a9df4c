package effects

import (
	"image/color"
	"sync"

	"github.com/google/uuid"
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

const LightSourceLabel = "Light Source"

// LightSourceEffect publishes a light under an ID for other items to use.
type LightSourceEffect struct {
	LightID   *animation.Track
	Kind      metadata.LightKind
	X, Y, Z   *animation.Track
	Intensity *animation.Track
	Color     color.RGBA
	// ApplyToItem relights the item carrying the light with a flat surface.
	ApplyToItem bool
	Ambient     *animation.Track
}

func NewLightSourceEffect() *LightSourceEffect {
	return &LightSourceEffect{
		LightID:   animation.NewConstantTrack(0).WithRange(0, metadata.MaxLightID),
		Kind:      metadata.LightKindPoint,
		X:         animation.NewConstantTrack(0).WithRange(-5000, 5000),
		Y:         animation.NewConstantTrack(0).WithRange(-5000, 5000),
		Z:         animation.NewConstantTrack(200).WithRange(-5000, 5000),
		Intensity: animation.NewConstantTrack(1).WithRange(0, 10),
		Color:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Ambient:   animation.NewConstantTrack(0.3).WithRange(0, 1),
	}
}

func (e *LightSourceEffect) Label() string { return LightSourceLabel }

// ConfiguredLightID is the ID at the first key, without sampling.
func (e *LightSourceEffect) ConfiguredLightID() int {
	return clampLightID(e.LightID.InitialValue())
}

// SampleLight evaluates the light at an item-relative frame.
func (e *LightSourceEffect) SampleLight(frame, length int64, fps animation.Rational) metadata.LightDescriptor {
	return metadata.LightDescriptor{
		Position: math.NewVec3(
			float32(e.X.GetValue(frame, length, fps)),
			float32(e.Y.GetValue(frame, length, fps)),
			float32(e.Z.GetValue(frame, length, fps)),
		),
		Intensity: float32(e.Intensity.GetValue(frame, length, fps)),
		Color:     metadata.ColorFromRGB8(e.Color.R, e.Color.G, e.Color.B),
		Kind:      e.Kind,
	}
}

func (e *LightSourceEffect) CreateProcessor(deps Dependencies) (Processor, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &LightSourceProcessor{
		id:      uuid.New(),
		effect:  e,
		deps:    deps,
		current: metadata.DefaultLight(),
	}, nil
}

// LightSourceProcessor is a live provider for the light it publishes.
type LightSourceProcessor struct {
	id     uuid.UUID
	effect *LightSourceEffect
	deps   Dependencies

	input  renderer.Image
	output renderer.Image

	mu      sync.RWMutex
	current metadata.LightDescriptor

	registeredID int
	registered   bool
}

func (p *LightSourceProcessor) ID() uuid.UUID { return p.id }

// LightData returns the light computed by the last Update.
func (p *LightSourceProcessor) LightData() metadata.LightDescriptor {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// RegisteredID reports the light ID this instance is registered under.
func (p *LightSourceProcessor) RegisteredID() (int, bool) {
	return p.registeredID, p.registered
}

func (p *LightSourceProcessor) SetInput(input renderer.Image) { p.input = input }
func (p *LightSourceProcessor) ClearInput()                   { p.input = nil }

func (p *LightSourceProcessor) Update(desc EffectDescription) DrawDescription {
	light := p.effect.SampleLight(desc.Frame, desc.Length, desc.FPS)
	p.mu.Lock()
	p.current = light
	p.mu.Unlock()

	// Publish even when nothing is drawn; other items may read this light.
	p.publish(sampleLightID(p.effect.LightID, desc), light)

	p.output = nil
	if !p.effect.ApplyToItem || p.input == nil {
		return desc.Draw
	}
	bounds := p.input.Bounds()
	if bounds.Empty() {
		return desc.Draw
	}

	graph := p.deps.Graph
	flat := p.deps.Textures.DefaultNormalTexture()
	normal := graph.Transform(graph.Bitmap(flat), AutoFitMatrix(bounds, rectOf(flat)), renderer.InterpolationNearestNeighbor)

	p.output = graph.NormalMapLighting(p.input, normal, metadata.NormalMapConstants{
		LightPos:   light.Position,
		Intensity:  light.Intensity,
		LightColor: light.Color,
		Ambient:    sample(p.effect.Ambient, desc),
		Depth:      1.0,
		LightType:  light.Kind.ShaderFlag(),
	})
	return desc.Draw
}

// publish registers under id, moving the registration if the ID changed.
func (p *LightSourceProcessor) publish(id int, light metadata.LightDescriptor) {
	lights := p.deps.Lights
	if p.registered && p.registeredID == id {
		lights.UpdateData(id, light)
		return
	}
	if p.registered {
		lights.Unregister(p.registeredID, p)
		core.LogDebug("light source %s moved from light %d to %d", p.id, p.registeredID, id)
	}
	lights.Register(id, p, light)
	p.registeredID = id
	p.registered = true
}

func (p *LightSourceProcessor) Output() renderer.Image {
	if p.output != nil {
		return p.output
	}
	return p.input
}

func (p *LightSourceProcessor) Close() error {
	if p.registered {
		p.deps.Lights.Unregister(p.registeredID, p)
		p.registered = false
	}
	p.input, p.output = nil, nil
	return nil
}
