package effects

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

const NormalMapGeneratorLabel = "Normal Map Generator"

type GeneratorMode uint8

const (
	// GeneratorNormal derives a normal map from the item's luminance.
	GeneratorNormal GeneratorMode = iota
	// GeneratorHeight outputs the grayscale height map.
	GeneratorHeight
)

func (m GeneratorMode) String() string {
	if m == GeneratorHeight {
		return "height"
	}
	return "normal"
}

// NormalMapGeneratorEffect turns an item into a normal or height map.
type NormalMapGeneratorEffect struct {
	Mode     GeneratorMode
	Strength *animation.Track
	Radius   *animation.Track // pixels
	Blur     *animation.Track
}

func NewNormalMapGeneratorEffect() *NormalMapGeneratorEffect {
	return &NormalMapGeneratorEffect{
		Mode:     GeneratorNormal,
		Strength: animation.NewConstantTrack(5).WithRange(0, 100),
		Radius:   animation.NewConstantTrack(1).WithRange(1, 50),
		Blur:     animation.NewConstantTrack(0).WithRange(0, 50),
	}
}

func (e *NormalMapGeneratorEffect) Label() string { return NormalMapGeneratorLabel }

func (e *NormalMapGeneratorEffect) CreateProcessor(deps Dependencies) (Processor, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	return &GeneratorProcessor{id: uuid.New(), effect: e, graph: deps.Graph}, nil
}

type GeneratorProcessor struct {
	id     uuid.UUID
	effect *NormalMapGeneratorEffect
	graph  renderer.GraphBuilder

	input  renderer.Image
	output renderer.Image
}

func (p *GeneratorProcessor) ID() uuid.UUID { return p.id }

func (p *GeneratorProcessor) SetInput(input renderer.Image) { p.input = input }
func (p *GeneratorProcessor) ClearInput()                   { p.input = nil }

func (p *GeneratorProcessor) Update(desc EffectDescription) DrawDescription {
	p.output = nil
	if p.input == nil {
		return desc.Draw
	}

	strength := sample(p.effect.Strength, desc)
	radius := sample(p.effect.Radius, desc)
	blur := sample(p.effect.Blur, desc)

	bounds := p.input.Bounds()
	if bounds.Empty() {
		return desc.Draw
	}

	src := p.input
	if blur > minBlur {
		src = p.graph.Blur(src, blur)
	}

	if p.effect.Mode == GeneratorHeight {
		p.output = p.graph.Grayscale(src)
		return desc.Draw
	}
	p.output = p.graph.GenerateNormalMap(src, metadata.GeneratorConstants{
		Strength: strength,
		Radius:   radius,
		Size:     math.NewVec2(1/bounds.Width(), 1/bounds.Height()),
	})
	return desc.Draw
}

func (p *GeneratorProcessor) Output() renderer.Image {
	if p.output != nil {
		return p.output
	}
	return p.input
}

func (p *GeneratorProcessor) Close() error {
	p.input, p.output = nil, nil
	return nil
}
