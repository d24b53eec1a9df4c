package project

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/core"
)

// Document is the on-disk project layout.
type Document struct {
	FPS    int64        `toml:"fps"`
	Length int64        `toml:"length"`
	Items  []ItemConfig `toml:"items"`
}

type ItemConfig struct {
	Name   string     `toml:"name"`
	Layer  int        `toml:"layer"`
	Start  int64      `toml:"start"`
	Length int64      `toml:"length"`
	Draw   DrawConfig `toml:"draw"`
	// Size of the image the item renders, in pixels. Zero means empty.
	Size    [2]float32     `toml:"size"`
	Effects []EffectConfig `toml:"effects"`
	// Items makes this item a group.
	Items []ItemConfig `toml:"items"`
}

type DrawConfig struct {
	Position [3]float32  `toml:"position"`
	Rotation [3]float32  `toml:"rotation"`
	Zoom     *[2]float32 `toml:"zoom"`
}

// TrackConfig is either a constant value or time keyed values (seconds).
type TrackConfig struct {
	Value *float64    `toml:"value"`
	Keys  []KeyConfig `toml:"keys"`
}

type KeyConfig struct {
	Time  float64 `toml:"time"`
	Value float64 `toml:"value"`
}

// EffectConfig holds the fields of every effect type; Type picks which ones
// are read.
type EffectConfig struct {
	Type string `toml:"type"`

	LightID *TrackConfig `toml:"light_id"`
	Ambient *TrackConfig `toml:"ambient"`

	// light_source
	Kind        string       `toml:"kind"`
	X           *TrackConfig `toml:"x"`
	Y           *TrackConfig `toml:"y"`
	Z           *TrackConfig `toml:"z"`
	Intensity   *TrackConfig `toml:"intensity"`
	Color       string       `toml:"color"`
	ApplyToItem bool         `toml:"apply_to_item"`

	// normal_map
	Mode         string       `toml:"mode"`
	MapType      string       `toml:"map_type"`
	MapPath      string       `toml:"map_path"`
	AutoFit      *bool        `toml:"auto_fit"`
	MapX         *TrackConfig `toml:"map_x"`
	MapY         *TrackConfig `toml:"map_y"`
	MapScale     *TrackConfig `toml:"map_scale"`
	MapRotation  *TrackConfig `toml:"map_rotation"`
	MapBlur      *TrackConfig `toml:"map_blur"`
	SurfaceScale *TrackConfig `toml:"surface_scale"`

	// normal_map_generator
	GeneratorMode string       `toml:"generator_mode"`
	Strength      *TrackConfig `toml:"strength"`
	Radius        *TrackConfig `toml:"radius"`
	Blur          *TrackConfig `toml:"blur"`
}

// DecodeDocument parses a project document, rejecting unknown keys.
func DecodeDocument(data []byte) (*Document, error) {
	doc := &Document{}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("%w: project: %w", core.ErrInvalidConfig, err)
	}
	return doc, nil
}

// track builds a track from cfg, keeping the clamp range of def. A nil cfg
// returns def.
func (cfg *TrackConfig) track(def *animation.Track) (*animation.Track, error) {
	if cfg == nil {
		return def, nil
	}

	var t *animation.Track
	switch {
	case cfg.Value != nil && len(cfg.Keys) > 0:
		return nil, fmt.Errorf("%w: track sets both value and keys", core.ErrInvalidConfig)
	case cfg.Value != nil:
		t = animation.NewConstantTrack(*cfg.Value)
	case len(cfg.Keys) > 0:
		keys := make([]animation.Keyframe, len(cfg.Keys))
		for i, k := range cfg.Keys {
			keys[i] = animation.Keyframe{Time: k.Time, Value: k.Value}
		}
		t = animation.NewTrack(keys...)
	default:
		return nil, fmt.Errorf("%w: track has neither value nor keys", core.ErrInvalidConfig)
	}

	if min, max, ok := def.Range(); ok {
		t.WithRange(min, max)
	}
	return t, nil
}
