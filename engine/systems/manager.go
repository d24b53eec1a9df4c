package systems

import (
	"fmt"

	"github.com/spaghettifunk/relight/engine/assets"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/timeline"
)

type SystemManagerConfig struct {
	Workers         int
	FallbackScan    bool
	MaxTextureCount uint32
	// HotReload reloads map images when they change on disk.
	HotReload bool
}

type SystemManager struct {
	assetManager  *assets.AssetManager
	jobSystem     *JobSystem
	lightSystem   *LightSystem
	textureSystem *TextureSystem
}

func NewSystemManager(config *SystemManagerConfig) (*SystemManager, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: system manager config is nil", core.ErrInvalidConfig)
	}
	am, err := assets.NewAssetManager()
	if err != nil {
		return nil, err
	}
	js, err := NewJobSystem(config.Workers, config.Workers*2)
	if err != nil {
		_ = am.Shutdown()
		return nil, err
	}
	// Anything created above is torn down when a later system fails.
	cleanup := func() {
		_ = js.Shutdown()
		_ = am.Shutdown()
	}

	ls, err := NewLightSystem(&LightSystemConfig{
		FallbackScan: config.FallbackScan,
	})
	if err != nil {
		cleanup()
		return nil, err
	}
	var watcher TextureWatcher
	if config.HotReload {
		watcher = am
	}
	ts, err := NewTextureSystem(&TextureSystemConfig{
		MaxTextureCount: config.MaxTextureCount,
	}, am, watcher)
	if err != nil {
		cleanup()
		return nil, err
	}
	return &SystemManager{
		assetManager:  am,
		jobSystem:     js,
		lightSystem:   ls,
		textureSystem: ts,
	}, nil
}

func (sm *SystemManager) Initialize() error {
	if err := sm.assetManager.Initialize(func(path string) {
		sm.textureSystem.Reload(path)
	}); err != nil {
		return err
	}
	if err := sm.lightSystem.Initialize(); err != nil {
		return err
	}
	if err := sm.textureSystem.Initialize(); err != nil {
		return err
	}
	core.LogDebug("systems initialized with %d workers", sm.jobSystem.Workers())
	return nil
}

// AttachTimeline hands the host view to the light directory.
func (sm *SystemManager) AttachTimeline(view timeline.View) {
	sm.lightSystem.AttachTimeline(view)
}

func (sm *SystemManager) Assets() *assets.AssetManager { return sm.assetManager }
func (sm *SystemManager) Jobs() *JobSystem             { return sm.jobSystem }
func (sm *SystemManager) Lights() *LightSystem         { return sm.lightSystem }
func (sm *SystemManager) Textures() *TextureSystem     { return sm.textureSystem }

func (sm *SystemManager) Shutdown() error {
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.textureSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.lightSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.assetManager.Shutdown(); err != nil {
		return err
	}
	return nil
}
