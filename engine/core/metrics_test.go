package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMetrics_AverageAfterWindow(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < int(AVG_COUNT)-1; i++ {
		m.Update(0.002)
	}
	assert.Zero(t, m.FrameTime(), "average is published only once the window is full")

	m.Update(0.002)
	assert.InDelta(t, 2.0, m.FrameTime(), 1e-9)
	assert.Equal(t, uint64(AVG_COUNT), m.Frames())
}

func TestFrameMetrics_SlidingWindow(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.001)
	}
	assert.InDelta(t, 1.0, m.FrameTime(), 1e-9)

	// Replace the whole window with slower frames.
	for i := 0; i < int(AVG_COUNT); i++ {
		m.Update(0.004)
	}
	assert.InDelta(t, 4.0, m.FrameTime(), 1e-9)
}

func TestFrameMetrics_FPS(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < 11; i++ {
		m.Update(0.1)
	}
	// 11 frames of 100ms cross the one second mark on the 11th frame.
	assert.Equal(t, 11.0, m.FPS())
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	assert.NoError(t, err)
	assert.Equal(t, DebugLevel, lvl)

	lvl, err = ParseLogLevel("")
	assert.NoError(t, err)
	assert.Equal(t, InfoLevel, lvl)

	_, err = ParseLogLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
