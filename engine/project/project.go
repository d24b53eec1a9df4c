// Package project loads a timeline document and exposes it to the light
// directory as a read-only timeline view.
package project

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/effects"
	"github.com/spaghettifunk/relight/engine/math"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/timeline"
)

type Project struct {
	FPS    animation.Rational
	Length int64
	Root   []*Item

	currentFrame atomic.Int64
}

// Item is a timeline item. Start is relative to the parent group.
type Item struct {
	Name   string
	Key    string
	layer  int
	start  int64
	length int64
	Draw   effects.DrawDescription
	// Bounds of the image the item renders, centered on its position.
	Bounds   math.Rect
	chain    []effects.Effect
	children []*Item
}

func (i *Item) Layer() int    { return i.layer }
func (i *Item) Start() int64  { return i.start }
func (i *Item) Length() int64 { return i.length }

func (i *Item) Effects() []timeline.EffectModel {
	out := make([]timeline.EffectModel, len(i.chain))
	for n, e := range i.chain {
		out[n] = e
	}
	return out
}

func (i *Item) Children() []timeline.Item {
	if len(i.children) == 0 {
		return nil
	}
	out := make([]timeline.Item, len(i.children))
	for n, c := range i.children {
		out[n] = c
	}
	return out
}

// Chain is the item's effects in application order.
func (i *Item) Chain() []effects.Effect { return i.chain }

func (i *Item) IsGroup() bool { return len(i.children) > 0 }

func (p *Project) CurrentFrame() (int64, error) {
	return p.currentFrame.Load(), nil
}

func (p *Project) SetCurrentFrame(frame int64) {
	p.currentFrame.Store(frame)
}

func (p *Project) Items() ([]timeline.Item, error) {
	out := make([]timeline.Item, len(p.Root))
	for n, item := range p.Root {
		out[n] = item
	}
	return out, nil
}

// Placement is an item visible at some frame, with its absolute start.
type Placement struct {
	Item          *Item
	AbsoluteStart int64
}

// Visible lists the items whose absolute interval contains frame, groups
// before their children.
func (p *Project) Visible(frame int64) []Placement {
	var out []Placement
	var walk func(items []*Item, offset int64)
	walk = func(items []*Item, offset int64) {
		for _, item := range items {
			start := item.start + offset
			if frame < start || frame >= start+item.length {
				continue
			}
			out = append(out, Placement{Item: item, AbsoluteStart: start})
			walk(item.children, start)
		}
	}
	walk(p.Root, 0)
	return out
}

// Parse builds a project from a document. Relative map paths are resolved
// against baseDir.
func Parse(data []byte, baseDir string) (*Project, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, baseDir)
}

func FromDocument(doc *Document, baseDir string) (*Project, error) {
	if doc.FPS <= 0 {
		return nil, fmt.Errorf("%w: fps must be > 0, got %d", core.ErrInvalidConfig, doc.FPS)
	}
	if doc.Length < 0 {
		return nil, fmt.Errorf("%w: negative project length", core.ErrInvalidConfig)
	}

	b := &builder{baseDir: baseDir}
	root, err := b.items(doc.Items, "")
	if err != nil {
		return nil, err
	}
	return &Project{
		FPS:    animation.FPS(doc.FPS),
		Length: doc.Length,
		Root:   root,
	}, nil
}

type builder struct {
	baseDir string
}

func (b *builder) items(configs []ItemConfig, parentKey string) ([]*Item, error) {
	out := make([]*Item, 0, len(configs))
	for n, cfg := range configs {
		key := strconv.Itoa(n)
		if parentKey != "" {
			key = parentKey + "/" + key
		}
		item, err := b.item(cfg, key)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (b *builder) item(cfg ItemConfig, key string) (*Item, error) {
	name := cfg.Name
	if name == "" {
		name = "item " + key
	}
	if cfg.Length < 0 {
		return nil, fmt.Errorf("%w: item %q has a negative length", core.ErrInvalidConfig, name)
	}

	draw := effects.NewDrawDescription()
	draw.Position = math.NewVec3(cfg.Draw.Position[0], cfg.Draw.Position[1], cfg.Draw.Position[2])
	draw.Rotation = math.NewVec3(cfg.Draw.Rotation[0], cfg.Draw.Rotation[1], cfg.Draw.Rotation[2])
	if cfg.Draw.Zoom != nil {
		draw.Zoom = math.NewVec2(cfg.Draw.Zoom[0], cfg.Draw.Zoom[1])
	}

	w, h := cfg.Size[0], cfg.Size[1]
	item := &Item{
		Name:   name,
		Key:    key,
		layer:  cfg.Layer,
		start:  cfg.Start,
		length: cfg.Length,
		Draw:   draw,
		Bounds: math.Rect{Left: -w / 2, Top: -h / 2, Right: w / 2, Bottom: h / 2},
	}

	for n, ec := range cfg.Effects {
		effect, err := b.effect(ec)
		if err != nil {
			return nil, fmt.Errorf("item %q effect %d: %w", name, n, err)
		}
		item.chain = append(item.chain, effect)
	}

	children, err := b.items(cfg.Items, key)
	if err != nil {
		return nil, err
	}
	item.children = children
	return item, nil
}

func (b *builder) effect(cfg EffectConfig) (effects.Effect, error) {
	switch cfg.Type {
	case "light_source":
		return b.lightSource(cfg)
	case "normal_map":
		return b.normalMap(cfg)
	case "normal_map_generator":
		return b.generator(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownEffect, cfg.Type)
	}
}

// trackBinding points a track config at the effect field it overrides.
type trackBinding struct {
	cfg *TrackConfig
	dst **animation.Track
}

func bindTracks(bindings ...trackBinding) error {
	for _, b := range bindings {
		t, err := b.cfg.track(*b.dst)
		if err != nil {
			return err
		}
		*b.dst = t
	}
	return nil
}

func (b *builder) lightSource(cfg EffectConfig) (effects.Effect, error) {
	e := effects.NewLightSourceEffect()
	if err := bindTracks(
		trackBinding{cfg.LightID, &e.LightID},
		trackBinding{cfg.X, &e.X},
		trackBinding{cfg.Y, &e.Y},
		trackBinding{cfg.Z, &e.Z},
		trackBinding{cfg.Intensity, &e.Intensity},
		trackBinding{cfg.Ambient, &e.Ambient},
	); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Kind) {
	case "", "point":
		e.Kind = metadata.LightKindPoint
	case "directional":
		e.Kind = metadata.LightKindDirectional
	default:
		return nil, fmt.Errorf("%w: light kind %q", core.ErrInvalidConfig, cfg.Kind)
	}

	if cfg.Color != "" {
		c, err := parseColor(cfg.Color)
		if err != nil {
			return nil, err
		}
		e.Color = c
	}
	e.ApplyToItem = cfg.ApplyToItem
	return e, nil
}

func (b *builder) normalMap(cfg EffectConfig) (effects.Effect, error) {
	e := effects.NewNormalMapEffect()
	if err := bindTracks(
		trackBinding{cfg.LightID, &e.LightID},
		trackBinding{cfg.MapX, &e.MapX},
		trackBinding{cfg.MapY, &e.MapY},
		trackBinding{cfg.MapScale, &e.MapScale},
		trackBinding{cfg.MapRotation, &e.MapRotation},
		trackBinding{cfg.MapBlur, &e.MapBlur},
		trackBinding{cfg.SurfaceScale, &e.SurfaceScale},
		trackBinding{cfg.Ambient, &e.Ambient},
	); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Mode) {
	case "", "absolute":
		e.Mode = effects.CoordinateAbsolute
	case "relative":
		e.Mode = effects.CoordinateRelative
	default:
		return nil, fmt.Errorf("%w: coordinate mode %q", core.ErrInvalidConfig, cfg.Mode)
	}

	switch strings.ToLower(cfg.MapType) {
	case "", "normal":
		e.MapType = effects.MapTypeNormal
	case "height":
		e.MapType = effects.MapTypeHeight
	default:
		return nil, fmt.Errorf("%w: map type %q", core.ErrInvalidConfig, cfg.MapType)
	}

	if cfg.MapPath != "" {
		path := cfg.MapPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(b.baseDir, path)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		e.MapPath = abs
	}
	if cfg.AutoFit != nil {
		e.AutoFit = *cfg.AutoFit
	}
	return e, nil
}

func (b *builder) generator(cfg EffectConfig) (effects.Effect, error) {
	e := effects.NewNormalMapGeneratorEffect()
	if err := bindTracks(
		trackBinding{cfg.Strength, &e.Strength},
		trackBinding{cfg.Radius, &e.Radius},
		trackBinding{cfg.Blur, &e.Blur},
	); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.GeneratorMode) {
	case "", "normal":
		e.Mode = effects.GeneratorNormal
	case "height":
		e.Mode = effects.GeneratorHeight
	default:
		return nil, fmt.Errorf("%w: generator mode %q", core.ErrInvalidConfig, cfg.GeneratorMode)
	}
	return e, nil
}

// parseColor reads "#RRGGBB" or "RRGGBB".
func parseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("%w: color %q", core.ErrInvalidConfig, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: color %q", core.ErrInvalidConfig, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
