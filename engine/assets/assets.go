package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/relight/engine/assets/loaders"
	"github.com/spaghettifunk/relight/engine/core"
	"github.com/spaghettifunk/relight/engine/renderer/metadata"
)

// ReloadFunc is called from the watcher goroutine when a watched file changes.
type ReloadFunc func(path string)

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
	// How many holders asked for change notifications on this path.
	watchers int
}

type AssetManager struct {
	assets  map[string]*AssetInfo
	loaders map[metadata.ResourceType]Loader
	// watched directory -> number of watched files inside it
	dirs     map[string]int
	onReload ReloadFunc

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]*AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		dirs:     make(map[string]int),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeImage, &loaders.TextureLoader{})
	am.registerLoader(metadata.ResourceTypeProject, &loaders.BinaryLoader{})

	return am, nil
}

// Initialize starts the watcher loop. onReload may be nil.
func (am *AssetManager) Initialize(onReload ReloadFunc) error {
	am.mutex.Lock()
	am.onReload = onReload
	am.mutex.Unlock()

	am.wg.Add(1)
	go am.start()
	return nil
}

// SetReloadHandler replaces the change callback.
func (am *AssetManager) SetReloadHandler(onReload ReloadFunc) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.onReload = onReload
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads path with the loader registered for resourceType. A
// ResourceTypeNone request is resolved from the file extension.
func (am *AssetManager) LoadAsset(path string, resourceType metadata.ResourceType) (*metadata.Resource, error) {
	if resourceType == metadata.ResourceTypeNone {
		resourceType = determineAssetType(path)
	}

	am.mutex.RLock()
	loader, ok := am.loaders[resourceType]
	am.mutex.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %d", resourceType)
	}

	res, err := loader.Load(path, resourceType, nil)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	key := cleanPath(path)
	info, exists := am.assets[key]
	if !exists {
		info = &AssetInfo{Path: key, Type: resourceType}
		am.assets[key] = info
	}
	info.LastLoaded = time.Now()
	return res, nil
}

func (am *AssetManager) UnloadAsset(res *metadata.Resource) error {
	if res == nil {
		return nil
	}
	am.mutex.RLock()
	loader, ok := am.loaders[determineAssetType(res.FullPath)]
	am.mutex.RUnlock()
	if !ok {
		return nil
	}
	return loader.Unload(res)
}

// Watch asks for change notifications on path. Calls are counted, every
// Watch needs a matching Unwatch.
func (am *AssetManager) Watch(path string) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return errors.New("asset manager already closed")
	}

	key := cleanPath(path)
	info, exists := am.assets[key]
	if !exists {
		info = &AssetInfo{Path: key, Type: determineAssetType(key)}
		am.assets[key] = info
	}
	if info.watchers == 0 {
		// Editors often replace files through a rename, so watch the directory.
		dir := filepath.Dir(key)
		if am.dirs[dir] == 0 {
			if err := am.fsnotify.Add(dir); err != nil {
				return err
			}
		}
		am.dirs[dir]++
	}
	info.watchers++
	return nil
}

func (am *AssetManager) Unwatch(path string) error {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	key := cleanPath(path)
	info, exists := am.assets[key]
	if !exists || info.watchers == 0 {
		return nil
	}
	info.watchers--
	if info.watchers > 0 {
		return nil
	}
	delete(am.assets, key)

	dir := filepath.Dir(key)
	am.dirs[dir]--
	if am.dirs[dir] > 0 {
		return nil
	}
	delete(am.dirs, dir)
	if am.isClosed {
		return nil
	}
	return am.fsnotify.Remove(dir)
}

// Watching reports whether change notifications are active for path.
func (am *AssetManager) Watching(path string) bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, exists := am.assets[cleanPath(path)]
	return exists && info.watchers > 0
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			return
		}
	}
}

// Handle the creation or modification of a file
func (am *AssetManager) handleFileEvent(path string) {
	key := cleanPath(path)

	am.mutex.RLock()
	info, exists := am.assets[key]
	watched := exists && info.watchers > 0
	onReload := am.onReload
	am.mutex.RUnlock()

	if !watched || onReload == nil {
		return
	}
	core.LogDebug("asset changed on disk: %s", key)
	onReload(key)
}

func cleanPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return metadata.ResourceTypeImage
	case ".toml":
		return metadata.ResourceTypeProject
	default:
		return metadata.ResourceTypeNone
	}
}
