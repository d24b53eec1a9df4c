package engine

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/effects"
	"github.com/spaghettifunk/relight/engine/project"
	"github.com/spaghettifunk/relight/engine/renderer"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
	"github.com/spaghettifunk/relight/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// FrameResult holds the output of every visible item, keyed by item key.
type FrameResult struct {
	Frame   int64
	Outputs map[string]renderer.Image
	Draws   map[string]effects.DrawDescription
}

// Keys returns the item keys of the result in order.
func (r *FrameResult) Keys() []string {
	keys := make([]string, 0, len(r.Outputs))
	for k := range r.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// chain is the live processors of one visible item.
type chain struct {
	item       *project.Item
	processors []effects.Processor
}

type chainJob struct {
	chain *chain
	desc  effects.EffectDescription

	output renderer.Image
	draw   effects.DrawDescription
}

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	systemManager *systems.SystemManager
	graph         *renderer.Recorder
	project       *project.Project
	chains        map[string]*chain
	clock         *core.Clock
	metrics       *core.FrameMetrics
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("%w: missing application config", core.ErrInvalidConfig)
	}
	config := g.ApplicationConfig
	if err := config.validate(); err != nil {
		return nil, err
	}

	sm, err := systems.NewSystemManager(&systems.SystemManagerConfig{
		Workers:         config.Workers,
		FallbackScan:    config.FallbackScan,
		MaxTextureCount: config.MaxTextureCount,
		HotReload:       config.HotReload,
	})
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		systemManager: sm,
		graph:         renderer.NewRecorder(),
		chains:        make(map[string]*chain),
		clock:         core.NewClock(),
		metrics:       core.NewFrameMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("engine already initialized")
	}
	e.currentStage = EngineStageInitializing
	config := e.gameInstance.ApplicationConfig

	level, err := core.ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)

	if err := e.systemManager.Initialize(); err != nil {
		return err
	}

	p := e.gameInstance.Project
	if p == nil {
		if p, err = e.loadProject(config.ProjectPath); err != nil {
			return err
		}
	}
	e.project = p
	e.systemManager.AttachTimeline(p)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(p); err != nil {
			return err
		}
	}

	core.LogInfo("%s initialized: %d root items at %d fps", config.Name, len(p.Root), p.FPS.Num)
	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadProject(path string) (*project.Project, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no project configured", core.ErrInvalidConfig)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	am := e.systemManager.Assets()
	res, err := am.LoadAsset(abs, metadata.ResourceTypeProject)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	defer func() {
		if err := am.UnloadAsset(res); err != nil {
			core.LogWarn("unloading project resource: %s", err)
		}
	}()

	data, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("project resource %s has no data", res.FullPath)
	}
	return project.Parse(data, filepath.Dir(abs))
}

// RenderFrame evaluates every item visible at frame. Items are evaluated
// concurrently on the job system, so the order in which they observe each
// other's lights within a frame is unspecified. Not safe for concurrent use.
func (e *Engine) RenderFrame(frame int64) (*FrameResult, error) {
	if e.currentStage != EngineStageInitialized && e.currentStage != EngineStageRunning {
		return nil, core.ErrNotInitialized
	}
	started := time.Now()

	e.project.SetCurrentFrame(frame)
	visible := e.project.Visible(frame)
	if err := e.syncChains(visible); err != nil {
		return nil, err
	}

	result := &FrameResult{
		Frame:   frame,
		Outputs: make(map[string]renderer.Image, len(visible)),
		Draws:   make(map[string]effects.DrawDescription, len(visible)),
	}
	var mu sync.Mutex
	var errs []error

	tasks := make([]metadata.JobTask, 0, len(visible))
	for _, pl := range visible {
		key := pl.Item.Key
		tasks = append(tasks, metadata.JobTask{
			InputParams: &chainJob{
				chain: e.chains[key],
				desc: effects.EffectDescription{
					Frame:  frame - pl.AbsoluteStart,
					Length: pl.Item.Length(),
					FPS:    e.project.FPS,
					Draw:   pl.Item.Draw,
				},
			},
			OnStart: e.evaluateChain,
			OnComplete: func(params interface{}) {
				job := params.(*chainJob)
				mu.Lock()
				result.Outputs[key] = job.output
				result.Draws[key] = job.draw
				mu.Unlock()
			},
			OnFailure: func(params interface{}, err error) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("item %s: %w", key, err))
				mu.Unlock()
			},
		})
	}
	if err := e.systemManager.Jobs().RunBatch(tasks); err != nil {
		return nil, err
	}

	e.metrics.Update(time.Since(started).Seconds())
	return result, errors.Join(errs...)
}

func (e *Engine) evaluateChain(params interface{}) error {
	job := params.(*chainJob)
	img := e.graph.Source(job.chain.item.Bounds)
	desc := job.desc
	for _, p := range job.chain.processors {
		p.SetInput(img)
		desc.Draw = p.Update(desc)
		img = p.Output()
	}
	job.output = img
	job.draw = desc.Draw
	return nil
}

// syncChains closes the chains of items that left the visible set, then
// creates chains for items that just became visible.
func (e *Engine) syncChains(visible []project.Placement) error {
	seen := make(map[string]struct{}, len(visible))
	for _, pl := range visible {
		seen[pl.Item.Key] = struct{}{}
	}
	for key, c := range e.chains {
		if _, ok := seen[key]; !ok {
			e.closeChain(c)
			delete(e.chains, key)
		}
	}

	deps := effects.Dependencies{
		Lights:   e.systemManager.Lights(),
		Textures: e.systemManager.Textures(),
		Graph:    e.graph,
	}
	for _, pl := range visible {
		if _, ok := e.chains[pl.Item.Key]; ok {
			continue
		}
		c := &chain{item: pl.Item}
		for _, effect := range pl.Item.Chain() {
			p, err := effect.CreateProcessor(deps)
			if err != nil {
				e.closeChain(c)
				return fmt.Errorf("item %s: creating %s: %w", pl.Item.Key, effect.Label(), err)
			}
			c.processors = append(c.processors, p)
		}
		core.LogDebug("item %s (%s) entered with %d effects", pl.Item.Key, pl.Item.Name, len(c.processors))
		e.chains[pl.Item.Key] = c
	}
	return nil
}

func (e *Engine) closeChain(c *chain) {
	for _, p := range c.processors {
		if err := p.Close(); err != nil {
			core.LogWarn("closing processor %s: %s", p.ID(), err)
		}
	}
	c.processors = nil
}

// Run renders the configured frame range until it ends or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning
	e.isRunning.Store(true)
	defer func() {
		e.isRunning.Store(false)
		if e.currentStage == EngineStageRunning {
			e.currentStage = EngineStageInitialized
		}
	}()

	config := e.gameInstance.ApplicationConfig
	start, end := config.StartFrame, config.EndFrame
	if end < 0 {
		end = e.project.Length
	}
	var targetFrameSeconds float64
	if fps := e.project.FPS.Float(); fps > 0 {
		targetFrameSeconds = 1.0 / fps
	}

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	for frame := start; frame < end && e.isRunning.Load(); frame++ {
		e.clock.Update()
		var currentTime float64 = e.clock.Elapsed()
		var delta float64 = currentTime - e.lastTime

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(frame, delta); err != nil {
				core.LogError("game update failed at frame %d, stopping", frame)
				return err
			}
		}

		result, err := e.RenderFrame(frame)
		if result == nil {
			return err
		}
		if err != nil {
			core.LogWarn("frame %d: %s", frame, err)
		}

		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(result, delta); err != nil {
				core.LogError("game render failed at frame %d, stopping", frame)
				return err
			}
		}

		if config.Realtime {
			e.clock.Update()
			remainingSeconds := targetFrameSeconds - (e.clock.Elapsed() - currentTime)
			if remainingSeconds > 0 {
				time.Sleep(time.Duration(remainingSeconds * float64(time.Second)))
			}
		}

		e.lastTime = currentTime
	}
	return nil
}

// Stop makes Run return after the frame in progress.
func (e *Engine) Stop() {
	e.isRunning.Store(false)
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageUninitialized || e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning.Store(false)

	for key, c := range e.chains {
		e.closeChain(c)
		delete(e.chains, key)
	}

	var errs []error
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := e.systemManager.Shutdown(); err != nil {
		errs = append(errs, err)
	}
	e.clock.Stop()
	e.currentStage = EngineStageUninitialized
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage                    { return e.currentStage }
func (e *Engine) Systems() *systems.SystemManager { return e.systemManager }
func (e *Engine) Graph() *renderer.Recorder       { return e.graph }
func (e *Engine) Project() *project.Project       { return e.project }
func (e *Engine) Metrics() *core.FrameMetrics     { return e.metrics }

// ActiveChains is the number of items with live processors.
func (e *Engine) ActiveChains() int { return len(e.chains) }
