package engine

import (
	"github.com/spaghettifunk/relight/engine/project"
	"github.com/spaghettifunk/relight/engine/systems"
)

// Game is the application hosting the engine. Every hook is optional.
type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by New.
	SystemManager *systems.SystemManager
	// Project, when set, is used instead of loading ApplicationConfig.ProjectPath.
	Project      *project.Project
	State        interface{}
	FnInitialize Initialize
	FnUpdate     Update
	FnRender     Render
	FnShutdown   Shutdown
}

type Initialize func(p *project.Project) error
type Update func(frame int64, deltaTime float64) error
type Render func(result *FrameResult, deltaTime float64) error
type Shutdown func() error
