package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

// TextureSource decodes image files. Implemented by assets.AssetManager.
type TextureSource interface {
	LoadAsset(path string, resourceType metadata.ResourceType) (*metadata.Resource, error)
}

// TextureWatcher reports on-disk changes of loaded textures. Optional.
type TextureWatcher interface {
	Watch(path string) error
	Unwatch(path string) error
}

/**
 * @brief The texture cache. One decoded bitmap per path, shared by every
 * holder and released when the last holder lets go.
 */
type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *metadata.DefaultTexture
	// Hashtable for texture lookups, keyed by path as given.
	RegisteredTextureTable map[string]*metadata.TextureReference

	mutex   sync.Mutex
	nextID  uint32
	source  TextureSource
	watcher TextureWatcher
}

func NewTextureSystem(config *TextureSystemConfig, source TextureSource, watcher TextureWatcher) (*TextureSystem, error) {
	if config == nil || config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - %w: MaxTextureCount must be > 0", core.ErrInvalidConfig)
		core.LogError("%s", err)
		return nil, err
	}
	if source == nil {
		return nil, fmt.Errorf("func NewTextureSystem - %w: texture source is nil", core.ErrInvalidConfig)
	}

	return &TextureSystem{
		Config:                 config,
		DefaultTexture:         metadata.NewDefaultTexture(),
		RegisteredTextureTable: make(map[string]*metadata.TextureReference),
		source:                 source,
		watcher:                watcher,
	}, nil
}

func (ts *TextureSystem) Initialize() error {
	core.LogDebug("texture system initialized (max %d textures, hot reload: %t)", ts.Config.MaxTextureCount, ts.watcher != nil)
	return nil
}

// Shutdown releases every cached bitmap regardless of outstanding holders.
func (ts *TextureSystem) Shutdown() error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	for path, ref := range ts.RegisteredTextureTable {
		ref.Handle.Release()
		ts.unwatch(path)
	}
	ts.RegisteredTextureTable = make(map[string]*metadata.TextureReference)
	return nil
}

// Acquire returns the bitmap for path and takes a reference on it. An empty
// path, a missing file or a decode failure yield nil and leave no entry.
func (ts *TextureSystem) Acquire(path string) *metadata.Texture {
	if path == "" {
		return nil
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	if ref, ok := ts.RegisteredTextureTable[path]; ok {
		ref.ReferenceCount++
		return ref.Handle
	}

	if uint32(len(ts.RegisteredTextureTable)) >= ts.Config.MaxTextureCount {
		core.LogWarn("texture cache is full (%d entries), not loading '%s'", ts.Config.MaxTextureCount, path)
		return nil
	}

	data, err := ts.load(path)
	if err != nil {
		if errors.Is(err, core.ErrAssetNotFound) {
			core.LogDebug("texture '%s' not found", path)
		} else {
			core.LogWarn("failed to load texture '%s': %s", path, err)
		}
		return nil
	}

	ts.nextID++
	texture := &metadata.Texture{
		ID:     ts.nextID,
		Name:   path,
		Width:  data.Width,
		Height: data.Height,
		Pixels: data.Pixels,
	}
	ts.RegisteredTextureTable[path] = &metadata.TextureReference{
		ReferenceCount: 1,
		Handle:         texture,
	}
	if ts.watcher != nil {
		if err := ts.watcher.Watch(path); err != nil {
			core.LogWarn("cannot watch texture '%s': %s", path, err)
		}
	}
	core.LogDebug("texture '%s' loaded (%dx%d)", path, data.Width, data.Height)
	return texture
}

// Release drops one reference on path. The bitmap is freed with the last one.
func (ts *TextureSystem) Release(path string) {
	if path == "" {
		return
	}

	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[path]
	if !ok {
		return
	}
	if ref.ReferenceCount > 1 {
		ref.ReferenceCount--
		return
	}

	ref.Handle.Release()
	delete(ts.RegisteredTextureTable, path)
	ts.unwatch(path)
	core.LogDebug("texture '%s' released", path)
}

// ReferenceCount returns the number of holders of path, 0 when not cached.
func (ts *TextureSystem) ReferenceCount(path string) uint64 {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()
	if ref, ok := ts.RegisteredTextureTable[path]; ok {
		return ref.ReferenceCount
	}
	return 0
}

// Reload decodes path again and swaps the pixels of the cached handle in
// place, so holders see the new bitmap without re-acquiring. On failure the
// old bitmap is kept.
func (ts *TextureSystem) Reload(path string) bool {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	ref, ok := ts.RegisteredTextureTable[path]
	if !ok {
		return false
	}
	data, err := ts.load(path)
	if err != nil {
		core.LogWarn("keeping previous bitmap for '%s': %s", path, err)
		return false
	}

	generation := ref.Handle.Replace(data.Pixels, data.Width, data.Height)
	core.LogInfo("texture '%s' reloaded (generation %d)", path, generation)
	return true
}

func (ts *TextureSystem) DefaultNormalTexture() *metadata.Texture {
	return ts.DefaultTexture.DefaultNormalTexture
}

func (ts *TextureSystem) DefaultHeightTexture() *metadata.Texture {
	return ts.DefaultTexture.DefaultHeightTexture
}

func (ts *TextureSystem) load(path string) (*metadata.ImageResourceData, error) {
	res, err := ts.source.LoadAsset(path, metadata.ResourceTypeImage)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*metadata.ImageResourceData)
	if !ok || data == nil || data.Pixels == nil {
		return nil, fmt.Errorf("resource '%s' is not an image", path)
	}
	return data, nil
}

func (ts *TextureSystem) unwatch(path string) {
	if ts.watcher == nil {
		return
	}
	if err := ts.watcher.Unwatch(path); err != nil {
		core.LogWarn("cannot unwatch texture '%s': %s", path, err)
	}
}
