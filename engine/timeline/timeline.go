// Package timeline is the read-only view of the host editor's timeline that
// the light directory falls back to when no provider is live.
package timeline

import (
	"github.com/spaghettifunk/relight/engine/animation"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

// FallbackFPS is the rate used to sample light parameters during the
// fallback scan, regardless of the project's frame rate.
var FallbackFPS = animation.FPS(60)

// View exposes the host's currently open project.
type View interface {
	// CurrentFrame is the absolute playback frame shown by the host.
	CurrentFrame() (int64, error)
	// Items is the root collection of timeline items.
	Items() ([]Item, error)
}

// Item is one timeline item. Start is relative to the enclosing group.
type Item interface {
	Layer() int
	Start() int64
	Length() int64
	// Effects attached to the item, in application order.
	Effects() []EffectModel
	// Children returns the nested items of a group item, nil otherwise.
	Children() []Item
}

// EffectModel is the configuration object of an attached video effect.
type EffectModel interface {
	Label() string
}

// LightModel is implemented by light-source effect configurations.
type LightModel interface {
	EffectModel
	// ConfiguredLightID is the ID stored in the configuration, not sampled.
	ConfiguredLightID() int
	// SampleLight evaluates the animated light parameters at an
	// item-relative frame.
	SampleLight(frame, length int64, fps animation.Rational) metadata.LightDescriptor
}
