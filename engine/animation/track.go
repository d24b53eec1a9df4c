// Package animation holds the sampler contract used to evaluate animated
// effect parameters, plus a keyframed Track used by projects and tests.
package animation

import (
	"sort"

	"github.com/spaghettifunk/relight/engine/math"
)

// Rational is a frame rate expressed as Num/Den frames per second.
type Rational struct {
	Num int64
	Den int64
}

// FPS builds an integral frame rate.
func FPS(n int64) Rational {
	return Rational{Num: n, Den: 1}
}

// Seconds converts a frame index to seconds at this rate. A zero or
// malformed rate maps every frame to 0.
func (r Rational) Seconds(frame int64) float64 {
	if r.Num <= 0 || r.Den <= 0 {
		return 0
	}
	return float64(frame) * float64(r.Den) / float64(r.Num)
}

func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Sampler evaluates an animated parameter. Implementations must be pure and
// accept frames outside [0, length).
type Sampler interface {
	GetValue(frame, length int64, fps Rational) float64
}

type Keyframe struct {
	// Time in seconds from the start of the owning item.
	Time  float64
	Value float64
}

// Track is a Sampler over time keyed values. A track without keyframes
// holds a constant. Values before the first or after the last key hold.
type Track struct {
	keys     []Keyframe
	min, max float64
	clamped  bool
}

func NewConstantTrack(value float64) *Track {
	return &Track{keys: []Keyframe{{Time: 0, Value: value}}}
}

func NewTrack(keys ...Keyframe) *Track {
	sorted := make([]Keyframe, len(keys))
	copy(sorted, keys)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &Track{keys: sorted}
}

// WithRange clamps every sampled value into [min, max].
func (t *Track) WithRange(min, max float64) *Track {
	t.min, t.max, t.clamped = min, max, true
	return t
}

// Range reports the clamp set with WithRange, if any.
func (t *Track) Range() (min, max float64, ok bool) {
	if t == nil {
		return 0, 0, false
	}
	return t.min, t.max, t.clamped
}

// InitialValue is the value of the first keyframe, or 0 for an empty track.
func (t *Track) InitialValue() float64 {
	if t == nil || len(t.keys) == 0 {
		return 0
	}
	return t.clamp(t.keys[0].Value)
}

func (t *Track) GetValue(frame, length int64, fps Rational) float64 {
	if t == nil || len(t.keys) == 0 {
		return 0
	}
	if len(t.keys) == 1 {
		return t.clamp(t.keys[0].Value)
	}

	at := fps.Seconds(frame)
	if at <= t.keys[0].Time {
		return t.clamp(t.keys[0].Value)
	}
	last := t.keys[len(t.keys)-1]
	if at >= last.Time {
		return t.clamp(last.Value)
	}

	i := sort.Search(len(t.keys), func(i int) bool { return t.keys[i].Time > at })
	a, b := t.keys[i-1], t.keys[i]
	span := b.Time - a.Time
	if span <= 0 {
		return t.clamp(b.Value)
	}
	f := (at - a.Time) / span
	return t.clamp(a.Value + (b.Value-a.Value)*f)
}

func (t *Track) clamp(v float64) float64 {
	if !t.clamped {
		return v
	}
	return math.Clamp(v, t.min, t.max)
}
