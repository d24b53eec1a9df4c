package testbed

import (
	"fmt"

	"github.com/spaghettifunk/relight/engine"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/project"
	"github.com/spaghettifunk/relight/engine/renderer"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	project *project.Project
	// Log a frame summary every reportEvery frames.
	reportEvery int64
	rendered    int64
}

func NewTestGame(config *engine.ApplicationConfig) (*TestGame, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: testbed needs an application config", core.ErrInvalidConfig)
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State: &gameState{
				reportEvery: 30,
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnRender = tg.Render
	tg.FnShutdown = tg.Shutdown

	return tg, nil
}

func (g *TestGame) Initialize(p *project.Project) error {
	core.LogDebug("TestGame Initialize fn....")

	if g.SystemManager == nil {
		return fmt.Errorf("the engine is not yet initialized with all the system managers")
	}

	state := g.State.(*gameState)
	state.project = p
	for _, item := range p.Root {
		core.LogInfo("item %s %q: %d effects, starts at %d for %d frames", item.Key, item.Name, len(item.Chain()), item.Start(), item.Length())
	}
	return nil
}

func (g *TestGame) Render(result *engine.FrameResult, deltaTime float64) error {
	state := g.State.(*gameState)
	state.rendered++
	if result.Frame%state.reportEvery != 0 {
		return nil
	}

	core.LogInfo("frame %d: %d visible items (dt %.4fs)", result.Frame, len(result.Outputs), deltaTime)
	for _, key := range result.Keys() {
		out := result.Outputs[key]
		if node, ok := out.(*renderer.Node); ok {
			b := node.Bounds()
			core.LogDebug("  %s -> %s [%.0f,%.0f %.0fx%.0f]", key, node.Op, b.Left, b.Top, b.Width(), b.Height())
		}
	}
	return nil
}

func (g *TestGame) Shutdown() error {
	state := g.State.(*gameState)
	stats := g.SystemManager.Lights().Stats()
	core.LogInfo("rendered %d frames; light lookups: provider=%d backup=%d scan=%d default=%d (scan disabled: %t)",
		state.rendered, stats.Provider, stats.Backup, stats.Scan, stats.Default, stats.ScanDisabled)
	return nil
}
